package session

import (
	"github.com/mcdev12/trivianight/go/internal/game/events"
	"github.com/mcdev12/trivianight/go/internal/models"
)

// Broadcaster delivers an event to a single connection. Delivery is fire-and-forget.
type Broadcaster interface {
	Send(connID string, ev *events.Event)
}

func (s *Session) sendTo(conn string, ev *events.Event) {
	if s.deps.Broadcaster == nil || conn == "" {
		return
	}
	s.deps.Broadcaster.Send(conn, ev.WithSession(s.Name))
}

func (s *Session) toHosts(ev *events.Event) {
	for conn := range s.hosts {
		s.sendTo(conn, ev)
	}
}

func (s *Session) toHostsExcept(sender string, ev *events.Event) {
	for conn := range s.hosts {
		if conn != sender {
			s.sendTo(conn, ev)
		}
	}
}

func (s *Session) toPlayers(ev *events.Event) {
	for conn := range s.playerConns {
		s.sendTo(conn, ev)
	}
}

func (s *Session) toAll(ev *events.Event) {
	s.toHosts(ev)
	s.toPlayers(ev)
}

func (s *Session) toAllExcept(sender string, ev *events.Event) {
	s.toHostsExcept(sender, ev)
	for conn := range s.playerConns {
		if conn != sender {
			s.sendTo(conn, ev)
		}
	}
}

func (s *Session) message(conn, text string, isError bool) {
	s.sendTo(conn, events.New(events.EventTypeMessage, events.MessagePayload{Text: text, IsError: isError}))
}

func (s *Session) statePayload() events.StatePayload {
	p := events.StatePayload{
		State:         s.state,
		CategoryIndex: s.catIdx,
		ClueIndex:     s.clueIdx,
	}
	if pl := s.players[s.selector]; pl != nil {
		p.Selector = pl.Name
	}
	if pl := s.players[s.responder]; pl != nil {
		p.Responder = pl.Name
	}
	if clue := s.currentClue(); clue != nil && s.clueRevealed() {
		c := *clue
		if s.state != models.SessionStateReadingClueDecision {
			c.Answer = ""
		}
		p.Clue = &c
	}
	return p
}

// clueRevealed is false while the clue is only selected, not yet read.
func (s *Session) clueRevealed() bool {
	switch s.state {
	case models.SessionStateReadingClue,
		models.SessionStateClueTossup,
		models.SessionStateClueResponse,
		models.SessionStateWaitingForClueDecision,
		models.SessionStateReadingClueDecision:
		return true
	}
	return false
}

func (s *Session) broadcastState() {
	s.toAll(events.New(events.EventTypeStateUpdate, s.statePayload()))
}

func (s *Session) roundEvent(withAnswers bool) *events.Event {
	round := s.round.Clone()
	if !withAnswers && round != nil {
		for _, cat := range round.Categories {
			for _, c := range cat.Clues {
				c.Answer = ""
			}
		}
	}
	return events.New(events.EventTypeTriviaRoundUpdate, events.TriviaRoundPayload{Preset: s.preset, Round: round})
}

// broadcastRound sends the full board to hosts and a redacted board to players.
func (s *Session) broadcastRound() {
	s.toHosts(s.roundEvent(true))
	s.toPlayers(s.roundEvent(false))
}

func (s *Session) leaderboard() []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(s.playerOrder))
	for _, id := range s.playerOrder {
		p := s.players[id]
		if p == nil {
			continue
		}
		entries = append(entries, models.LeaderboardEntry{Name: p.Name, Score: p.Score, Online: p.Online})
	}
	return entries
}

func (s *Session) leaderboardEvent() *events.Event {
	return events.New(events.EventTypeLeaderboardUpdate, events.LeaderboardPayload{Entries: s.leaderboard()})
}

func (s *Session) broadcastLeaderboard() {
	s.toAll(s.leaderboardEvent())
}

package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcdev12/trivianight/go/internal/game/timers"
	"github.com/mcdev12/trivianight/go/internal/models"
	"github.com/rs/zerolog/log"
)

// StartGame leaves the lobby. Creator only. A round is generated from the
// current preset when none is loaded.
func (s *Session) StartGame(ctx context.Context, conn string) error {
	return s.do(ctx, func() error {
		if !s.IsCreator(conn) || s.state != models.SessionStateLobby {
			return nil
		}
		if n := s.onlinePlayers(); n < s.cfg.MinPlayers {
			return userErrorf("At least %d player(s) must join before starting.", s.cfg.MinPlayers)
		}

		if s.round == nil {
			round, err := s.generate(ctx)
			if s.isClosed() {
				return ErrSessionClosed
			}
			if err != nil {
				log.Warn().Err(err).Str("session", s.Name).Msg("round generation failed")
				return generationError(err)
			}
			s.round = round
		}
		if s.state != models.SessionStateLobby {
			return nil
		}

		s.round.Reset()
		for _, p := range s.players {
			p.Score = 0
		}
		s.selector = s.firstOnlinePlayer()
		s.responder = ""
		s.catIdx, s.clueIdx = -1, -1

		log.Info().Str("session", s.Name).Int("players", len(s.players)).Msg("game started")
		s.setState(models.SessionStateReadingCategoryNames)
		s.broadcastRound()
		s.broadcastLeaderboard()

		names := make([]string, 0, len(s.round.Categories))
		for _, cat := range s.round.Categories {
			names = append(names, cat.Name)
		}
		s.narrate(timers.KindReadingCategoryName,
			"Tonight's categories are: "+strings.Join(names, ", ")+".",
			s.enterClueSelection)
		return nil
	})
}

func (s *Session) generate(ctx context.Context) (*models.TriviaRound, error) {
	if s.deps.Generator == nil {
		return nil, userErrorf("No trivia content is available.")
	}
	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()
	round, err := s.deps.Generator.Generate(genCtx, s.cfg.settingsFor(s.preset))
	if err != nil {
		return nil, err
	}
	if round == nil || len(round.Categories) == 0 {
		return nil, fmt.Errorf("generator returned an empty round")
	}
	return round, nil
}

func (s *Session) enterClueSelection() {
	s.responder = ""
	s.catIdx, s.clueIdx = -1, -1
	if s.round.Remaining() == 0 {
		s.gameOver()
		return
	}
	if p := s.players[s.selector]; p == nil || !p.Online {
		s.selector = s.firstOnlinePlayer()
	}
	s.setState(models.SessionStateClueSelection)
}

// SelectClue picks the next clue. The current selector or the creator may choose.
func (s *Session) SelectClue(ctx context.Context, conn string, categoryIdx, clueIdx int) error {
	return s.do(ctx, func() error {
		if s.state != models.SessionStateClueSelection {
			return nil
		}
		if clientID, ok := s.playerConns[conn]; !s.IsCreator(conn) && (!ok || clientID != s.selector) {
			return nil
		}
		clue := s.round.Clue(categoryIdx, clueIdx)
		if clue == nil || clue.Completed {
			return nil
		}

		s.catIdx, s.clueIdx = categoryIdx, clueIdx
		s.attempted = make(map[string]bool)
		s.wager = 0
		s.setState(models.SessionStateReadingClueSelection)

		cat := s.round.Categories[categoryIdx]
		s.narrate(timers.KindReadingClueSelection,
			fmt.Sprintf("%s for %d.", cat.Name, clue.Value),
			s.afterClueSelection)
		return nil
	})
}

func (s *Session) afterClueSelection() {
	clue := s.currentClue()
	if clue == nil {
		s.enterClueSelection()
		return
	}
	selector := s.players[s.selector]
	if !clue.IsWager || selector == nil || !selector.Online {
		s.readClue()
		return
	}

	s.setState(models.SessionStateWagerResponse)
	s.announce(fmt.Sprintf("%s, you found a wager clue. Make your wager.", selector.Name), func() {
		s.after(timers.KindWagerResponse, s.cfg.WagerWindow, func() {
			s.wager = s.defaultWager()
			s.readClue()
		})
	})
}

// SubmitWager sets the stake on a wager clue. Only the selector may wager.
func (s *Session) SubmitWager(ctx context.Context, conn string, amount int) error {
	return s.do(ctx, func() error {
		clientID, ok := s.playerConns[conn]
		if s.state != models.SessionStateWagerResponse || !ok || clientID != s.selector {
			return nil
		}
		s.wager = s.clampWager(amount)
		s.timers.Cancel(s.Name, timers.KindWagerResponse)
		s.clearAnnouncement()
		log.Debug().Str("session", s.Name).Int("wager", s.wager).Msg("wager submitted")
		s.readClue()
		return nil
	})
}

func (s *Session) maxWager() int {
	max := s.round.MaxValue()
	if p := s.players[s.selector]; p != nil && p.Score > max {
		max = p.Score
	}
	return max
}

func (s *Session) clampWager(amount int) int {
	if amount < 0 {
		return 0
	}
	if max := s.maxWager(); amount > max {
		return max
	}
	return amount
}

func (s *Session) defaultWager() int {
	if clue := s.currentClue(); clue != nil {
		return s.clampWager(clue.Value)
	}
	return 0
}

func (s *Session) readClue() {
	clue := s.currentClue()
	if clue == nil {
		s.enterClueSelection()
		return
	}
	s.setState(models.SessionStateReadingClue)
	s.narrate(timers.KindReadingClue, clue.Question, s.afterReadingClue)
}

func (s *Session) afterReadingClue() {
	clue := s.currentClue()
	if clue != nil && clue.IsWager && s.players[s.selector] != nil && s.players[s.selector].Online {
		s.responder = s.selector
		s.attempted[s.selector] = true
		s.setState(models.SessionStateClueResponse)
		s.after(timers.KindClueResponse, s.cfg.ResponseWindow, s.responseTimedOut)
		return
	}
	s.openTossup()
}

func (s *Session) openTossup() {
	s.responder = ""
	s.setState(models.SessionStateClueTossup)
	s.after(timers.KindClueTossup, s.cfg.TossupWindow, s.tossupTimedOut)
}

func (s *Session) tossupTimedOut() {
	clue := s.currentClue()
	if clue == nil {
		s.enterClueSelection()
		return
	}
	clue.Completed = true
	s.setState(models.SessionStateReadingClueDecision)
	s.narrate(timers.KindReadingClueDecision,
		fmt.Sprintf("Time's up. The answer was %s.", clue.Answer),
		s.enterClueSelection)
}

// Buzz claims the right to answer during a tossup. A player gets one try per clue.
func (s *Session) Buzz(ctx context.Context, conn string) error {
	return s.do(ctx, func() error {
		if s.state != models.SessionStateClueTossup {
			return nil
		}
		clientID, ok := s.playerConns[conn]
		if !ok || s.attempted[clientID] {
			return nil
		}
		p := s.players[clientID]
		s.attempted[clientID] = true
		s.responder = clientID
		s.timers.Cancel(s.Name, timers.KindClueTossup)
		s.setState(models.SessionStateClueResponse)
		s.announce(p.Name, func() {
			s.after(timers.KindClueResponse, s.cfg.ResponseWindow, s.responseTimedOut)
		})
		return nil
	})
}

// SubmitResponse answers the current clue. Only the responder may answer.
func (s *Session) SubmitResponse(ctx context.Context, conn, response string) error {
	return s.do(ctx, func() error {
		if s.state != models.SessionStateClueResponse || s.responder == "" || s.playerConns[conn] != s.responder {
			return nil
		}
		s.judge(response)
		return nil
	})
}

func (s *Session) responseTimedOut() {
	s.judge("")
}

func (s *Session) judge(response string) {
	s.timers.Cancel(s.Name, timers.KindClueResponse)
	s.clearAnnouncement()
	s.setState(models.SessionStateWaitingForClueDecision)

	clue := s.currentClue()
	correct := clue != nil && AnswersMatch(response, clue.Answer)
	s.decide(correct)
}

func (s *Session) decide(correct bool) {
	clue := s.currentClue()
	if clue == nil {
		s.enterClueSelection()
		return
	}
	value := clue.Value
	if clue.IsWager {
		value = s.wager
	}

	p := s.players[s.responder]
	name := "Nobody"
	if p != nil {
		name = p.Name
		if correct {
			p.Score += value
		} else {
			p.Score -= value
		}
	}
	s.broadcastLeaderboard()

	var line string
	next := s.enterClueSelection
	switch {
	case correct:
		clue.Completed = true
		s.selector = s.responder
		line = fmt.Sprintf("That's correct, %s.", name)
	case !clue.IsWager && s.eligibleBuzzers() > 0:
		line = fmt.Sprintf("Sorry %s, that's incorrect.", name)
		next = s.openTossup
	default:
		clue.Completed = true
		line = fmt.Sprintf("Sorry %s, that's incorrect. The answer was %s.", name, clue.Answer)
	}

	log.Debug().
		Str("session", s.Name).
		Str("player", name).
		Bool("correct", correct).
		Int("value", value).
		Msg("response judged")

	s.setState(models.SessionStateReadingClueDecision)
	s.narrate(timers.KindReadingClueDecision, line, next)
}

func (s *Session) gameOver() {
	s.selector, s.responder = "", ""
	s.setState(models.SessionStateGameOver)
	s.broadcastLeaderboard()

	if winner := s.leader(); winner != nil {
		s.narrate(timers.KindReadingClueDecision,
			fmt.Sprintf("That's the game! Congratulations %s.", winner.Name), nil)
	}
	log.Info().Str("session", s.Name).Msg("game over")
}

// PlayAgain resets a finished game back to the lobby. Any host may ask.
// Custom rounds are kept; preset rounds are regenerated, falling back to the
// old round if generation fails.
func (s *Session) PlayAgain(ctx context.Context, conn string) error {
	return s.do(ctx, func() error {
		if s.state != models.SessionStateGameOver {
			return nil
		}
		if _, ok := s.hosts[conn]; !ok {
			return nil
		}

		if s.preset != models.SettingsPresetCustom {
			round, err := s.generate(ctx)
			if s.isClosed() {
				return ErrSessionClosed
			}
			if err != nil {
				log.Warn().Err(err).Str("session", s.Name).Msg("regeneration failed, reusing round")
			} else {
				s.round = round
			}
		}
		if s.state != models.SessionStateGameOver {
			return nil
		}

		s.timers.CancelAll(s.Name)
		s.round.Reset()
		for _, p := range s.players {
			p.Score = 0
		}
		for id, p := range s.players {
			if !p.Online {
				delete(s.players, id)
				s.playerOrder = removeString(s.playerOrder, id)
			}
		}
		s.selector, s.responder = "", ""
		s.catIdx, s.clueIdx = -1, -1
		s.attempted = make(map[string]bool)
		s.wager = 0
		s.currentVoiceLine, s.currentAnnouncement = "", ""

		log.Info().Str("session", s.Name).Msg("play again")
		s.setState(models.SessionStateLobby)
		s.broadcastRound()
		s.broadcastLeaderboard()
		return nil
	})
}

func (s *Session) currentClue() *models.TriviaClue {
	return s.round.Clue(s.catIdx, s.clueIdx)
}

func (s *Session) onlinePlayers() int {
	n := 0
	for _, p := range s.players {
		if p.Online {
			n++
		}
	}
	return n
}

func (s *Session) firstOnlinePlayer() string {
	for _, id := range s.playerOrder {
		if p := s.players[id]; p != nil && p.Online {
			return id
		}
	}
	return ""
}

func (s *Session) eligibleBuzzers() int {
	n := 0
	for id, p := range s.players {
		if p.Online && !s.attempted[id] {
			n++
		}
	}
	return n
}

func (s *Session) leader() *models.Player {
	var best *models.Player
	for _, id := range s.playerOrder {
		p := s.players[id]
		if p != nil && (best == nil || p.Score > best.Score) {
			best = p
		}
	}
	return best
}

package session

import (
	"context"
	"strings"

	"github.com/mcdev12/trivianight/go/internal/game/events"
	"github.com/mcdev12/trivianight/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Welcome sends the joining connection everything it needs to render the session.
func (s *Session) Welcome(ctx context.Context, conn string) error {
	return s.do(ctx, func() error {
		s.welcome(conn)
		return nil
	})
}

func (s *Session) welcome(conn string) {
	role := events.RolePlayer
	_, isHost := s.hosts[conn]
	if isHost {
		role = events.RoleHost
	}
	s.sendTo(conn, events.New(events.EventTypeSessionJoined, events.SessionJoinedPayload{
		SessionName: s.Name,
		Role:        role,
		Creator:     s.IsCreator(conn),
		State:       s.state,
		Preset:      s.preset,
		VoiceType:   s.voiceType,
	}))
	s.sendTo(conn, events.New(events.EventTypeStateUpdate, s.statePayload()))
	if s.round != nil {
		s.sendTo(conn, s.roundEvent(isHost))
	}
	s.sendTo(conn, s.leaderboardEvent())
}

// AddHost attaches conn as a display. The creator is a host from construction.
func (s *Session) AddHost(ctx context.Context, conn, clientID string) error {
	return s.do(ctx, func() error {
		if _, ok := s.hosts[conn]; ok {
			return ErrAlreadyHost
		}
		if _, ok := s.playerConns[conn]; ok {
			return ErrAlreadyPlaying
		}
		s.hosts[conn] = clientID
		log.Info().
			Str("session", s.Name).
			Str("conn_id", conn).
			Int("hosts", len(s.hosts)).
			Msg("host joined session")
		s.welcome(conn)
		return nil
	})
}

// AddPlayer joins conn as a contestant. A known client ID reclaims its seat in any state.
func (s *Session) AddPlayer(ctx context.Context, conn, clientID, name string) error {
	return s.do(ctx, func() error {
		if _, ok := s.hosts[conn]; ok {
			return userErrorf("A host display cannot also play.")
		}
		if _, ok := s.playerConns[conn]; ok {
			return ErrAlreadyPlaying
		}

		if p, ok := s.players[clientID]; ok && clientID != "" {
			if p.ConnID != "" {
				delete(s.playerConns, p.ConnID)
			}
			p.ConnID = conn
			p.Online = true
			s.playerConns[conn] = clientID
			log.Info().Str("session", s.Name).Str("player", p.Name).Msg("player reconnected")
			s.welcome(conn)
			s.toAllExcept(conn, s.leaderboardEvent())
			return nil
		}

		if s.state != models.SessionStateLobby {
			return ErrGameInProgress
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return ErrNameRequired
		}
		for _, p := range s.players {
			if strings.EqualFold(p.Name, name) {
				return userErrorf("The name %q is already taken.", name)
			}
		}
		if clientID == "" {
			clientID = conn
		}

		s.players[clientID] = &models.Player{ConnID: conn, ClientID: clientID, Name: name, Online: true}
		s.playerConns[conn] = clientID
		s.playerOrder = append(s.playerOrder, clientID)

		log.Info().
			Str("session", s.Name).
			Str("player", name).
			Int("players", len(s.players)).
			Msg("player joined session")
		s.welcome(conn)
		s.toAllExcept(conn, s.leaderboardEvent())
		return nil
	})
}

// Leave detaches conn. It reports whether conn was the creator, in which case
// the caller must tear the session down.
func (s *Session) Leave(ctx context.Context, conn string) (bool, error) {
	wasCreator := false
	err := s.do(ctx, func() error {
		if _, ok := s.hosts[conn]; ok {
			delete(s.hosts, conn)
			wasCreator = s.IsCreator(conn)
			log.Info().
				Str("session", s.Name).
				Str("conn_id", conn).
				Bool("creator", wasCreator).
				Msg("host left session")
			return nil
		}

		clientID, ok := s.playerConns[conn]
		if !ok {
			return ErrNotInSession
		}
		delete(s.playerConns, conn)
		p := s.players[clientID]
		if s.state == models.SessionStateLobby {
			delete(s.players, clientID)
			s.playerOrder = removeString(s.playerOrder, clientID)
		} else if p != nil {
			p.Online = false
			p.ConnID = ""
		}
		log.Info().Str("session", s.Name).Str("client_id", clientID).Msg("player left session")
		s.broadcastLeaderboard()
		return nil
	})
	return wasCreator, err
}

// IsHost reports whether conn is attached as a host.
func (s *Session) IsHost(ctx context.Context, conn string) (bool, error) {
	var ok bool
	err := s.do(ctx, func() error {
		_, ok = s.hosts[conn]
		return nil
	})
	return ok, err
}

func (s *Session) playerByConn(conn string) *models.Player {
	if id, ok := s.playerConns[conn]; ok {
		return s.players[id]
	}
	return nil
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

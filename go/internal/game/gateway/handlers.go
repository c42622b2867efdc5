package gateway

import (
	"context"
	"strings"

	"github.com/mcdev12/trivianight/go/internal/game/events"
	"github.com/mcdev12/trivianight/go/internal/game/session"
)

func (r *Router) handleConnect(ctx context.Context, c *Client, ev *events.Event) error {
	var p events.ConnectPayload
	if err := ev.DecodePayload(&p); err != nil {
		return &session.UserError{Msg: "Invalid connect request."}
	}
	name := strings.ToUpper(strings.TrimSpace(p.SessionName))

	switch p.Role {
	case events.RoleHost:
		if name != "" {
			return r.spectate(ctx, c, name, p.ClientID)
		}
		if err := r.detach(ctx, c); err != nil {
			return err
		}
		s, err := r.sessions.CreateWithGeneratedName(c.ConnID, p.ClientID)
		if err != nil {
			return err
		}
		r.setState(c.ConnID, ConnState{ClientID: p.ClientID, SessionName: s.Name, Role: events.RoleHost})
		return s.Welcome(ctx, c.ConnID)

	case events.RolePlayer:
		s, ok := r.sessions.Get(name)
		if !ok {
			return session.ErrSessionNotFound
		}
		if c.State.SessionName != s.Name {
			if err := r.detach(ctx, c); err != nil {
				return err
			}
		}
		if err := s.AddPlayer(ctx, c.ConnID, p.ClientID, p.PlayerName); err != nil {
			return err
		}
		r.setState(c.ConnID, ConnState{ClientID: p.ClientID, SessionName: s.Name, Role: events.RolePlayer})
		return nil
	}
	return &session.UserError{Msg: "Unknown role."}
}

func (r *Router) handleAttemptSpectate(ctx context.Context, c *Client, ev *events.Event) error {
	var p events.AttemptSpectatePayload
	if err := ev.DecodePayload(&p); err != nil {
		return &session.UserError{Msg: "Invalid spectate request."}
	}
	return r.spectate(ctx, c, strings.ToUpper(strings.TrimSpace(p.SessionName)), p.ClientID)
}

// spectate attaches c as a host of name, leaving its previous session first.
func (r *Router) spectate(ctx context.Context, c *Client, name, clientID string) error {
	s, ok := r.sessions.Get(name)
	if !ok {
		return session.ErrSessionNotFound
	}
	isHost, err := s.IsHost(ctx, c.ConnID)
	if err != nil {
		return err
	}
	if isHost {
		return session.ErrAlreadyHost
	}
	// A player's seat would be lost by detaching, so watching their own game is refused up front.
	if c.State.SessionName == s.Name && c.State.Role == events.RolePlayer {
		return session.ErrAlreadyPlaying
	}
	if err := r.detach(ctx, c); err != nil {
		return err
	}
	if err := s.AddHost(ctx, c.ConnID, clientID); err != nil {
		return err
	}
	r.setState(c.ConnID, ConnState{ClientID: clientID, SessionName: s.Name, Role: events.RoleHost})
	return nil
}

// detach leaves whatever session the connection is currently routed to.
func (r *Router) detach(ctx context.Context, c *Client) error {
	if c.State.SessionName == "" {
		return nil
	}
	if err := r.leave(ctx, c.ConnID, c.State); err != nil {
		return err
	}
	r.clearIf(c.ConnID, c.State.SessionName)
	c.State = r.State(c.ConnID)
	return nil
}

func (r *Router) handleLeaveSession(ctx context.Context, c *Client, _ *events.Event) error {
	return r.detach(ctx, c)
}

func (r *Router) handleUpdatePreset(ctx context.Context, c *Client, ev *events.Event) error {
	var p events.UpdateGameSettingsPresetPayload
	if err := ev.DecodePayload(&p); err != nil {
		return err
	}
	return c.Session.UpdateSettingsPreset(ctx, c.ConnID, p.Preset)
}

func (r *Router) handleUpdateVoiceType(ctx context.Context, c *Client, ev *events.Event) error {
	var p events.UpdateVoiceTypePayload
	if err := ev.DecodePayload(&p); err != nil {
		return err
	}
	return c.Session.UpdateVoiceType(ctx, c.ConnID, p.VoiceType)
}

func (r *Router) handleUpdateVoiceDuration(ctx context.Context, c *Client, ev *events.Event) error {
	var p events.UpdateVoiceDurationPayload
	if err := ev.DecodePayload(&p); err != nil {
		return err
	}
	return c.Session.UpdateVoiceDuration(ctx, c.ConnID, p.VoiceLine, p.DurationSeconds)
}

func (r *Router) handleGenerateCustomGame(ctx context.Context, c *Client, ev *events.Event) error {
	var p events.GenerateCustomGamePayload
	if err := ev.DecodePayload(&p); err != nil {
		return err
	}
	return c.Session.GenerateCustomGame(ctx, c.ConnID, p.Settings)
}

func (r *Router) handlePlayAgain(ctx context.Context, c *Client, _ *events.Event) error {
	return c.Session.PlayAgain(ctx, c.ConnID)
}

func (r *Router) handleStartGame(ctx context.Context, c *Client, _ *events.Event) error {
	return c.Session.StartGame(ctx, c.ConnID)
}

func (r *Router) handleSelectClue(ctx context.Context, c *Client, ev *events.Event) error {
	var p events.SelectCluePayload
	if err := ev.DecodePayload(&p); err != nil {
		return err
	}
	return c.Session.SelectClue(ctx, c.ConnID, p.CategoryIndex, p.ClueIndex)
}

func (r *Router) handleBuzz(ctx context.Context, c *Client, _ *events.Event) error {
	return c.Session.Buzz(ctx, c.ConnID)
}

func (r *Router) handleSubmitResponse(ctx context.Context, c *Client, ev *events.Event) error {
	var p events.SubmitResponsePayload
	if err := ev.DecodePayload(&p); err != nil {
		return err
	}
	return c.Session.SubmitResponse(ctx, c.ConnID, p.Response)
}

func (r *Router) handleSubmitWager(ctx context.Context, c *Client, ev *events.Event) error {
	var p events.SubmitWagerPayload
	if err := ev.DecodePayload(&p); err != nil {
		return err
	}
	return c.Session.SubmitWager(ctx, c.ConnID, p.Amount)
}

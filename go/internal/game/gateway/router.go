package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mcdev12/trivianight/go/internal/game/events"
	"github.com/mcdev12/trivianight/go/internal/game/session"
	"github.com/rs/zerolog/log"
)

const genericErrorText = "Something went wrong. Please try again."

// ConnState records which session a connection is routed to.
type ConnState struct {
	ClientID    string
	SessionName string
	Role        events.Role
}

// Client is what a handler sees: the origin connection, its recorded state and,
// for session events, the resolved session.
type Client struct {
	ConnID  string
	State   ConnState
	Session *session.Session
}

type HandlerFunc func(ctx context.Context, c *Client, ev *events.Event) error

type route struct {
	handler         HandlerFunc
	requiresSession bool
}

// Router maps each inbound event type to exactly one handler and turns handler
// failures into messages for the originating connection.
type Router struct {
	sessions *session.Manager
	out      session.Broadcaster
	timeout  time.Duration

	routes map[events.EventType]route

	mu    sync.Mutex
	conns map[string]ConnState
}

func NewRouter(sessions *session.Manager, out session.Broadcaster, timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = time.Minute
	}
	r := &Router{
		sessions: sessions,
		out:      out,
		timeout:  timeout,
		routes:   make(map[events.EventType]route),
		conns:    make(map[string]ConnState),
	}
	r.registerHandlers()
	return r
}

// Handle registers h for typ, replacing any existing handler.
func (r *Router) Handle(typ events.EventType, h HandlerFunc, requiresSession bool) {
	r.routes[typ] = route{handler: h, requiresSession: requiresSession}
}

func (r *Router) registerHandlers() {
	// Pre-session events carry their own target.
	r.Handle(events.EventTypeConnect, r.handleConnect, false)
	r.Handle(events.EventTypeAttemptSpectate, r.handleAttemptSpectate, false)

	r.Handle(events.EventTypeLeaveSession, r.handleLeaveSession, true)
	r.Handle(events.EventTypeUpdateGameSettingsPreset, r.handleUpdatePreset, true)
	r.Handle(events.EventTypeUpdateVoiceType, r.handleUpdateVoiceType, true)
	r.Handle(events.EventTypeUpdateVoiceDuration, r.handleUpdateVoiceDuration, true)
	r.Handle(events.EventTypeGenerateCustomGame, r.handleGenerateCustomGame, true)
	r.Handle(events.EventTypePlayAgain, r.handlePlayAgain, true)
	r.Handle(events.EventTypeStartGame, r.handleStartGame, true)
	r.Handle(events.EventTypeSelectClue, r.handleSelectClue, true)
	r.Handle(events.EventTypeBuzz, r.handleBuzz, true)
	r.Handle(events.EventTypeSubmitResponse, r.handleSubmitResponse, true)
	r.Handle(events.EventTypeSubmitWager, r.handleSubmitWager, true)
}

// HandleMessage decodes a raw frame and dispatches it.
func (r *Router) HandleMessage(connID string, raw []byte) {
	ev, err := events.Parse(raw)
	if err != nil {
		log.Debug().Err(err).Str("conn_id", connID).Msg("malformed client message")
		r.sendMessage(connID, "", "Malformed message.", true)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.Dispatch(ctx, connID, ev)
}

// HandleDisconnect treats a closed socket as leaving its session.
func (r *Router) HandleDisconnect(connID string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	st := r.forget(connID)
	if st.SessionName == "" {
		return
	}
	if err := r.leave(ctx, connID, st); err != nil && !errors.Is(err, session.ErrSessionClosed) {
		log.Warn().Err(err).Str("conn_id", connID).Str("session", st.SessionName).Msg("leave on disconnect failed")
	}
}

// Dispatch runs the handler for ev. Errors and panics never escape.
func (r *Router) Dispatch(ctx context.Context, connID string, ev *events.Event) {
	err := r.invoke(ctx, connID, ev)
	r.finish(connID, ev, err)
}

func (r *Router) invoke(ctx context.Context, connID string, ev *events.Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("conn_id", connID).
				Str("event_type", string(ev.Type)).
				Interface("panic", rec).
				Msg("recovered panic in event handler")
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()

	rt, ok := r.routes[ev.Type]
	if !ok {
		return &session.UserError{Msg: fmt.Sprintf("Unknown event %q.", ev.Type)}
	}

	c := &Client{ConnID: connID, State: r.State(connID)}
	if rt.requiresSession {
		if c.State.SessionName == "" {
			return session.ErrNotInSession
		}
		s, ok := r.sessions.Get(c.State.SessionName)
		if !ok {
			r.clearIf(connID, c.State.SessionName)
			return session.ErrSessionNotFound
		}
		c.Session = s
	}
	return rt.handler(ctx, c, ev)
}

func (r *Router) finish(connID string, ev *events.Event, err error) {
	var ue *session.UserError
	switch {
	case err == nil, errors.Is(err, session.ErrIgnored):
	case errors.As(err, &ue):
		r.sendMessage(connID, ev.Session, ue.Msg, true)
	case errors.Is(err, session.ErrSessionClosed):
		r.sendMessage(connID, ev.Session, "That game has ended.", true)
	default:
		log.Error().
			Err(err).
			Str("conn_id", connID).
			Str("event_type", string(ev.Type)).
			Msg("event handler failed")
		r.sendMessage(connID, ev.Session, genericErrorText, true)
	}

	if ev.AckID != "" {
		r.out.Send(connID, events.New(events.EventTypeAck, events.AckPayload{ID: ev.AckID, Success: err == nil}))
	}
}

func (r *Router) sendMessage(connID, sessionName, text string, isError bool) {
	ev := events.New(events.EventTypeMessage, events.MessagePayload{Text: text, IsError: isError})
	ev.Session = sessionName
	r.out.Send(connID, ev)
}

// State returns the connection's recorded association.
func (r *Router) State(connID string) ConnState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns[connID]
}

func (r *Router) setState(connID string, st ConnState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = st
}

func (r *Router) forget(connID string) ConnState {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.conns[connID]
	delete(r.conns, connID)
	return st
}

// clearIf drops the association only if it still points at name.
func (r *Router) clearIf(connID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.conns[connID]; ok && st.SessionName == name {
		r.conns[connID] = ConnState{ClientID: st.ClientID}
	}
}

// TerminateSession deletes the session and tells every other connection routed
// to it that the game is cancelled. It returns how many connections were notified.
func (r *Router) TerminateSession(name, exceptConn, reason string) int {
	deleted := r.sessions.Delete(name)

	r.mu.Lock()
	var targets []string
	for connID, st := range r.conns {
		if st.SessionName != name {
			continue
		}
		r.conns[connID] = ConnState{ClientID: st.ClientID}
		if connID != exceptConn {
			targets = append(targets, connID)
		}
	}
	r.mu.Unlock()

	for _, connID := range targets {
		ev := events.New(events.EventTypeCancelGame, events.CancelGamePayload{Reason: reason})
		ev.Session = name
		r.out.Send(connID, ev)
	}

	log.Info().
		Str("session", name).
		Bool("deleted", deleted).
		Int("notified", len(targets)).
		Msg("session terminated")
	return len(targets)
}

// leave detaches connID from st.SessionName, tearing the session down if it
// was the creator.
func (r *Router) leave(ctx context.Context, connID string, st ConnState) error {
	s, ok := r.sessions.Get(st.SessionName)
	if !ok {
		return nil
	}
	wasCreator, err := s.Leave(ctx, connID)
	if err != nil && !errors.Is(err, session.ErrNotInSession) {
		return err
	}
	if wasCreator {
		r.TerminateSession(st.SessionName, connID, "The host ended the game.")
	}
	return nil
}

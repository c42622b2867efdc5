package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mcdev12/trivianight/go/internal/game/eventbus"
	"github.com/mcdev12/trivianight/go/internal/game/timers"
	"github.com/mcdev12/trivianight/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Generator builds a trivia round from settings.
type Generator interface {
	Generate(ctx context.Context, settings models.TriviaGameSettings) (*models.TriviaRound, error)
}

// Synthesizer renders a narration line. A nil Audio with a nil error means speech is disabled.
type Synthesizer interface {
	Synthesize(ctx context.Context, line string, voice models.VoiceType) (*models.Audio, error)
}

// Deps are the collaborators shared by every session of a Manager.
type Deps struct {
	Broadcaster Broadcaster
	Generator   Generator
	Synthesizer Synthesizer
	Publisher   eventbus.Publisher
	Clock       timers.Clock
}

// Session is one live game. All mutable fields below the queue are owned by the
// run goroutine and must only be touched from closures submitted to it.
type Session struct {
	Name            string
	CreatorConnID   string
	creatorClientID string

	cfg    Config
	deps   Deps
	timers *timers.Registry
	bus    *eventbus.OrderedPublisher

	queue    chan func()
	done     chan struct{}
	stopOnce sync.Once

	state               models.SessionState
	hosts               map[string]string // conn -> client
	players             map[string]*models.Player
	playerConns         map[string]string // conn -> client
	playerOrder         []string
	preset              models.SettingsPreset
	voiceType           models.VoiceType
	currentVoiceLine    string
	currentAnnouncement string
	round               *models.TriviaRound

	selector  string
	responder string
	catIdx    int
	clueIdx   int
	attempted map[string]bool
	wager     int
}

func newSession(name, creatorConnID, creatorClientID string, cfg Config, deps Deps, reg *timers.Registry, bus *eventbus.OrderedPublisher) *Session {
	size := cfg.QueueSize
	if size <= 0 {
		size = 64
	}
	s := &Session{
		Name:            name,
		CreatorConnID:   creatorConnID,
		creatorClientID: creatorClientID,
		cfg:             cfg,
		deps:            deps,
		timers:          reg,
		bus:             bus,
		queue:           make(chan func(), size),
		done:            make(chan struct{}),
		state:           models.SessionStateLobby,
		hosts:           map[string]string{creatorConnID: creatorClientID},
		players:         make(map[string]*models.Player),
		playerConns:     make(map[string]string),
		preset:          cfg.DefaultPreset,
		voiceType:       cfg.DefaultVoiceType,
		catIdx:          -1,
		clueIdx:         -1,
		attempted:       make(map[string]bool),
	}
	go s.run()
	return s
}

func (s *Session) run() {
	for {
		select {
		case fn := <-s.queue:
			s.exec(fn)
		case <-s.done:
			return
		}
	}
}

func (s *Session) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("session", s.Name).Interface("panic", r).Msg("recovered panic in session queue")
		}
	}()
	fn()
}

// Submit queues fn on the session. It reports false once the session is closed.
func (s *Session) Submit(fn func()) bool {
	if s.isClosed() {
		return false
	}
	select {
	case s.queue <- fn:
		return true
	case <-s.done:
		return false
	}
}

// do runs fn on the queue and waits for its result.
func (s *Session) do(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	ok := s.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("session", s.Name).Interface("panic", r).Msg("recovered panic in session handler")
				errCh <- fmt.Errorf("session handler panic: %v", r)
			}
		}()
		if s.isClosed() {
			errCh <- ErrSessionClosed
			return
		}
		errCh <- fn()
	})
	if !ok {
		return ErrSessionClosed
	}

	select {
	case err := <-errCh:
		return err
	case <-s.done:
		select {
		case err := <-errCh:
			return err
		default:
			return ErrSessionClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// close stops the queue. Pending closures are dropped.
func (s *Session) close() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// Done is closed once the session has been torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// IsCreator reports whether conn created this session. CreatorConnID never changes.
func (s *Session) IsCreator(conn string) bool { return conn == s.CreatorConnID }

// Snapshot returns a read-only summary taken on the session queue.
func (s *Session) Snapshot(ctx context.Context) (models.SessionSummary, error) {
	var out models.SessionSummary
	err := s.do(ctx, func() error {
		out = models.SessionSummary{
			Name:          s.Name,
			State:         s.state,
			Preset:        s.preset,
			VoiceType:     s.voiceType,
			CreatorConnID: s.CreatorConnID,
			Hosts:         len(s.hosts),
			Players:       len(s.players),
		}
		for _, k := range s.timers.Active(s.Name) {
			out.ActiveTimers = append(out.ActiveTimers, string(k))
		}
		return nil
	})
	return out, err
}

func (s *Session) setState(state models.SessionState) {
	if s.state == state {
		return
	}
	log.Debug().
		Str("session", s.Name).
		Str("from", string(s.state)).
		Str("to", string(state)).
		Msg("session state changed")
	s.state = state
	s.broadcastState()
	s.bus.Enqueue(eventbus.NewSessionEvent(eventbus.EventTypeSessionStateChanged, s.Name, string(state)))
}

// after arms a phase timeout whose callback only runs if the session is still
// open and still in the state it was armed in.
func (s *Session) after(kind timers.Kind, d time.Duration, fn func()) {
	armed := s.state
	s.timers.Schedule(s.Name, kind, d, func() {
		if s.isClosed() || s.state != armed {
			log.Debug().
				Str("session", s.Name).
				Str("kind", string(kind)).
				Str("armed_in", string(armed)).
				Str("state", string(s.state)).
				Msg("ignoring stale timeout")
			return
		}
		fn()
	})
}

package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mcdev12/trivianight/go/internal/game/eventbus"
	"github.com/mcdev12/trivianight/go/internal/game/timers"
	"github.com/mcdev12/trivianight/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Manager is the registry of live sessions. Its map is the only state shared
// across sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg    Config
	deps   Deps
	timers *timers.Registry
	bus    *eventbus.OrderedPublisher

	nameFunc func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithNameFunc replaces the session name generator.
func WithNameFunc(fn func() string) Option {
	return func(m *Manager) { m.nameFunc = fn }
}

func NewManager(cfg Config, deps Deps, opts ...Option) *Manager {
	if deps.Publisher == nil {
		deps.Publisher = eventbus.NoOpPublisher{}
	}
	m := &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		deps:     deps,
		bus:      eventbus.NewOrderedPublisher(deps.Publisher, 1024, 5*time.Second),
	}
	m.timers = timers.NewRegistry(deps.Clock, m.dispatch)
	m.nameFunc = func() string { return syllableName(cfg.NameSyllables) }
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// dispatch routes a fired timeout onto its session's queue.
func (m *Manager) dispatch(name string, fn func()) bool {
	s, ok := m.Get(name)
	if !ok {
		return false
	}
	return s.Submit(fn)
}

// Timers exposes the registry for inspection.
func (m *Manager) Timers() *timers.Registry { return m.timers }

// Create registers a new session in the lobby. It fails if name is taken.
func (m *Manager) Create(name, creatorConnID, creatorClientID string) (*Session, error) {
	m.mu.Lock()
	if _, exists := m.sessions[name]; exists {
		m.mu.Unlock()
		return nil, ErrSessionExists
	}
	s := newSession(name, creatorConnID, creatorClientID, m.cfg, m.deps, m.timers, m.bus)
	m.sessions[name] = s
	total := len(m.sessions)
	// Enqueued under the lock so Created precedes any event the session emits.
	m.bus.Enqueue(eventbus.NewSessionEvent(eventbus.EventTypeSessionCreated, name, string(models.SessionStateLobby)))
	m.mu.Unlock()

	log.Info().
		Str("session", name).
		Str("creator_conn_id", creatorConnID).
		Int("sessions", total).
		Msg("session created")
	return s, nil
}

// CreateWithGeneratedName creates a session under a fresh generated name. After
// NameMaxAttempts collisions it appends a numeric suffix, which always terminates.
func (m *Manager) CreateWithGeneratedName(creatorConnID, creatorClientID string) (*Session, error) {
	attempts := m.cfg.NameMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		s, err := m.Create(m.nameFunc(), creatorConnID, creatorClientID)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrSessionExists) {
			return nil, err
		}
	}

	base := m.nameFunc()
	log.Warn().Str("base", base).Int("attempts", attempts).Msg("session name collisions, using numeric suffix")
	for n := 2; ; n++ {
		s, err := m.Create(fmt.Sprintf("%s%d", base, n), creatorConnID, creatorClientID)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrSessionExists) {
			return nil, err
		}
	}
}

// Get looks a session up by name.
func (m *Manager) Get(name string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[name]
	return s, ok
}

// Delete tears a session down: it is removed, its timers are cancelled and its
// queue is stopped. Deleting an absent name is a no-op.
func (m *Manager) Delete(name string) bool {
	m.mu.Lock()
	s, ok := m.sessions[name]
	if ok {
		delete(m.sessions, name)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}

	cancelled := m.timers.CancelAll(name)
	s.close()

	log.Info().
		Str("session", name).
		Int("cancelled_timers", cancelled).
		Msg("session deleted")
	m.bus.Enqueue(eventbus.NewSessionEvent(eventbus.EventTypeSessionDeleted, name, ""))
	return true
}

// List returns live sessions sorted by name.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown deletes every live session and flushes pending lifecycle events.
func (m *Manager) Shutdown() {
	for _, s := range m.List() {
		m.Delete(s.Name)
	}
	m.bus.Close()
}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/trivianight/go/internal/game/events"
	"github.com/mcdev12/trivianight/go/internal/models"
)

type sentEvent struct {
	conn string
	ev   *events.Event
}

type recorder struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (r *recorder) Send(conn string, ev *events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentEvent{conn: conn, ev: ev})
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

// typesFor lists the event types delivered to conn in order.
func (r *recorder) typesFor(conn string) []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.EventType
	for _, s := range r.sent {
		if s.conn == conn {
			out = append(out, s.ev.Type)
		}
	}
	return out
}

func (r *recorder) eventsFor(conn string, typ events.EventType) []*events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*events.Event
	for _, s := range r.sent {
		if s.conn == conn && s.ev.Type == typ {
			out = append(out, s.ev)
		}
	}
	return out
}

type stubGenerator struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (g *stubGenerator) Generate(_ context.Context, _ models.TriviaGameSettings) (*models.TriviaRound, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return testRound(), nil
}

func (g *stubGenerator) setErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func testRound() *models.TriviaRound {
	return &models.TriviaRound{Categories: []*models.TriviaCategory{
		{Name: "Rivers", Clues: []*models.TriviaClue{
			{Question: "This river flows through Cairo", Answer: "The Nile", Value: 200},
		}},
	}}
}

type fixture struct {
	mgr   *Manager
	rec   *recorder
	gen   *stubGenerator
	clock *clockwork.FakeClock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	return newFixtureWith(t, nil, opts...)
}

// newFixtureWith lets a test adjust the config and collaborators before the manager is built.
func newFixtureWith(t *testing.T, adjust func(*Config, *Deps), opts ...Option) *fixture {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MinPlayers = 1
	cfg.WordsPerSecond = 1
	cfg.NarrationPadding = 0
	cfg.MinNarration = time.Second
	cfg.TossupWindow = 30 * time.Second
	cfg.ResponseWindow = 30 * time.Second
	cfg.WagerWindow = 30 * time.Second
	cfg.GenerationTimeout = time.Second

	f := &fixture{
		rec:   &recorder{},
		gen:   &stubGenerator{},
		clock: clockwork.NewFakeClock(),
	}
	deps := Deps{Broadcaster: f.rec, Generator: f.gen, Clock: f.clock}
	if adjust != nil {
		adjust(&cfg, &deps)
	}
	f.mgr = NewManager(cfg, deps, opts...)
	t.Cleanup(f.mgr.Shutdown)
	return f
}

func (f *fixture) create(t *testing.T, name string) *Session {
	t.Helper()
	s, err := f.mgr.Create(name, "creator", "creator-client")
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return s
}

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

func snapshot(t *testing.T, s *Session) models.SessionSummary {
	t.Helper()
	snap, err := s.Snapshot(ctx(t))
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}

// advanceUntil moves fake time forward in small steps until the session reaches want.
func (f *fixture) advanceUntil(t *testing.T, s *Session, want models.SessionState) {
	t.Helper()
	for i := 0; i < 400; i++ {
		if snapshot(t, s).State == want {
			return
		}
		f.clock.Advance(250 * time.Millisecond)
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("session never reached %s, stuck in %s", want, snapshot(t, s).State)
}

func (f *fixture) startWithPlayer(t *testing.T, s *Session) {
	t.Helper()
	if err := s.AddPlayer(ctx(t), "alice", "alice-client", "Alice"); err != nil {
		t.Fatalf("add player: %v", err)
	}
	if err := s.StartGame(ctx(t), "creator"); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if got := snapshot(t, s).State; got != models.SessionStateReadingCategoryNames {
		t.Fatalf("state after start = %s", got)
	}
}

func lastVoiceLine(t *testing.T, rec *recorder, conn string) events.VoiceLinePayload {
	t.Helper()
	lines := rec.eventsFor(conn, events.EventTypeVoiceLine)
	if len(lines) == 0 {
		t.Fatalf("no voice line sent to %s", conn)
	}
	var p events.VoiceLinePayload
	if err := lines[len(lines)-1].DecodePayload(&p); err != nil {
		t.Fatalf("decode voice line: %v", err)
	}
	return p
}

func isUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mcdev12/trivianight/go/internal/game/eventbus"
	"github.com/mcdev12/trivianight/go/internal/game/timers"
	"github.com/mcdev12/trivianight/go/internal/models"
)

func TestManager_Create_RejectsDuplicateName(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, "BAKOTI")

	if _, err := f.mgr.Create("BAKOTI", "other", "other-client"); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("duplicate create err = %v, want ErrSessionExists", err)
	}
	got, ok := f.mgr.Get("BAKOTI")
	if !ok || got != first {
		t.Fatalf("registry lost the original session")
	}
	if got.CreatorConnID != "creator" {
		t.Fatalf("creator changed to %q", got.CreatorConnID)
	}
	if st := snapshot(t, got).State; st != models.SessionStateLobby {
		t.Fatalf("new session state = %s, want LOBBY", st)
	}
}

func TestManager_Delete_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.create(t, "MIRUKA")

	if !f.mgr.Delete("MIRUKA") {
		t.Fatalf("first delete reported false")
	}
	if f.mgr.Delete("MIRUKA") {
		t.Fatalf("second delete reported true")
	}
	if _, ok := f.mgr.Get("MIRUKA"); ok {
		t.Fatalf("session still present after delete")
	}
	if f.mgr.Len() != 0 {
		t.Fatalf("Len = %d, want 0", f.mgr.Len())
	}
}

func TestManager_GeneratedName_FallsBackToSuffix(t *testing.T) {
	f := newFixture(t, WithNameFunc(func() string { return "ZOPALE" }))
	f.mgr.cfg.NameMaxAttempts = 3

	names := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		s, err := f.mgr.CreateWithGeneratedName("conn", "client")
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		names = append(names, s.Name)
	}

	want := []string{"ZOPALE", "ZOPALE2", "ZOPALE3"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestManager_GeneratedName_Unique(t *testing.T) {
	f := newFixture(t)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, err := f.mgr.CreateWithGeneratedName("conn", "client")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[s.Name] {
			t.Fatalf("duplicate name %q", s.Name)
		}
		seen[s.Name] = true
	}
}

func TestManager_Delete_CancelsTimers(t *testing.T) {
	f := newFixture(t)
	s := f.create(t, "TEKARO")
	f.startWithPlayer(t, s)

	if kinds := f.mgr.Timers().Active("TEKARO"); len(kinds) != 1 || kinds[0] != timers.KindReadingCategoryName {
		t.Fatalf("active timers = %v, want [READING_CATEGORY_NAME]", kinds)
	}

	f.mgr.Delete("TEKARO")
	if kinds := f.mgr.Timers().Active("TEKARO"); len(kinds) != 0 {
		t.Fatalf("timers survived teardown: %v", kinds)
	}

	sent := f.rec.count()
	f.clock.Advance(time.Minute)
	time.Sleep(50 * time.Millisecond)
	if f.rec.count() != sent {
		t.Fatalf("session emitted events after teardown")
	}
	if _, err := s.Snapshot(ctx(t)); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("snapshot after delete err = %v, want ErrSessionClosed", err)
	}
}

func TestSyllableName(t *testing.T) {
	name := syllableName(3)
	if len(name) != 6 {
		t.Fatalf("name %q has length %d, want 6", name, len(name))
	}
	for i, r := range name {
		set := nameConsonants
		if i%2 == 1 {
			set = nameVowels
		}
		if !containsRune(set, r) {
			t.Fatalf("name %q has %q at %d", name, r, i)
		}
	}
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}

type lifecyclePublisher struct {
	mu     sync.Mutex
	events []eventbus.SessionEvent
}

func (p *lifecyclePublisher) Publish(_ context.Context, ev eventbus.SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func TestManager_LifecycleEventsPublishedInOrder(t *testing.T) {
	pub := &lifecyclePublisher{}
	f := newFixtureWith(t, func(_ *Config, deps *Deps) { deps.Publisher = pub })

	s := f.create(t, "BAKOTI")
	f.startWithPlayer(t, s)
	f.mgr.Delete("BAKOTI")
	f.mgr.Shutdown()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 3 {
		t.Fatalf("published %d events, want 3", len(pub.events))
	}
	want := []eventbus.EventType{
		eventbus.EventTypeSessionCreated,
		eventbus.EventTypeSessionStateChanged,
		eventbus.EventTypeSessionDeleted,
	}
	for i, ev := range pub.events {
		if ev.Type != want[i] || ev.Session != "BAKOTI" {
			t.Fatalf("event %d = %s/%s, want %s", i, ev.Type, ev.Session, want[i])
		}
	}
	if pub.events[1].State != string(models.SessionStateReadingCategoryNames) {
		t.Fatalf("state change = %s", pub.events[1].State)
	}
}

package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []SessionEvent
	delay  func(SessionEvent) time.Duration
}

func (r *recordingPublisher) Publish(_ context.Context, event SessionEvent) error {
	if r.delay != nil {
		time.Sleep(r.delay(event))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func TestOrderedPublisher_PreservesOrder(t *testing.T) {
	// A slow first publish must not let later events overtake it.
	rec := &recordingPublisher{delay: func(e SessionEvent) time.Duration {
		if e.Type == EventTypeSessionCreated {
			return 20 * time.Millisecond
		}
		return 0
	}}
	p := NewOrderedPublisher(rec, 8, time.Second)

	want := []EventType{EventTypeSessionCreated, EventTypeSessionStateChanged, EventTypeSessionDeleted}
	for _, typ := range want {
		if !p.Enqueue(NewSessionEvent(typ, "BAKOTI", "")) {
			t.Fatalf("enqueue %s rejected", typ)
		}
	}
	p.Close()

	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("published %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("published %v, want %v", got, want)
		}
	}
}

func TestOrderedPublisher_RejectsAfterClose(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewOrderedPublisher(rec, 8, time.Second)
	p.Close()
	p.Close()

	if p.Enqueue(NewSessionEvent(EventTypeSessionCreated, "BAKOTI", "LOBBY")) {
		t.Fatalf("enqueue after close accepted")
	}
	if n := len(rec.types()); n != 0 {
		t.Fatalf("published %d events after close", n)
	}
}

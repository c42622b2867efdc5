package timers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func waitForWaiters(t *testing.T, clock *clockwork.FakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, n); err != nil {
		t.Fatalf("waiting for %d timers: %v", n, err)
	}
}

func expectNoFire(t *testing.T, fired <-chan time.Time) {
	t.Helper()
	select {
	case at := <-fired:
		t.Fatalf("unexpected fire at %v", at)
	case <-time.After(50 * time.Millisecond):
	}
}

func expectFire(t *testing.T, fired <-chan time.Time) time.Time {
	t.Helper()
	select {
	case at := <-fired:
		return at
	case <-time.After(2 * time.Second):
		t.Fatalf("timer did not fire")
	}
	return time.Time{}
}

func TestRegistry_Reschedule_ReplacesPendingTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := NewRegistry(clock, nil)
	start := clock.Now()

	fired := make(chan time.Time, 4)
	onFire := func() { fired <- clock.Now() }

	reg.Schedule("BAKOTI", KindReadingClue, 5000*time.Millisecond, onFire)
	waitForWaiters(t, clock, 1)
	clock.Advance(100 * time.Millisecond)

	reg.Schedule("BAKOTI", KindReadingClue, 1200*time.Millisecond, onFire)
	waitForWaiters(t, clock, 1)

	deadline, ok := reg.Deadline("BAKOTI", KindReadingClue)
	if !ok || !deadline.Equal(start.Add(1300*time.Millisecond)) {
		t.Fatalf("deadline = %v, %v; want %v", deadline, ok, start.Add(1300*time.Millisecond))
	}

	clock.Advance(1199 * time.Millisecond)
	expectNoFire(t, fired)

	clock.Advance(time.Millisecond)
	at := expectFire(t, fired)
	if got := at.Sub(start); got != 1300*time.Millisecond {
		t.Fatalf("fired at +%v, want +1.3s", got)
	}

	clock.Advance(5 * time.Second)
	expectNoFire(t, fired)

	if reg.Len() != 0 {
		t.Fatalf("expected no live timers, got %d", reg.Len())
	}
}

func TestRegistry_CancelAll_OnlyTouchesOwner(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := NewRegistry(clock, nil)

	fired := make(chan time.Time, 8)
	onFire := func() { fired <- clock.Now() }

	reg.Schedule("A", KindReadingClue, time.Second, onFire)
	reg.Schedule("A", KindAnnouncement, time.Second, onFire)
	reg.Schedule("A", KindClueTossup, 2*time.Second, onFire)
	reg.Schedule("B", KindReadingClue, time.Second, onFire)
	waitForWaiters(t, clock, 4)

	if n := reg.CancelAll("A"); n != 3 {
		t.Fatalf("CancelAll = %d, want 3", n)
	}
	if kinds := reg.Active("A"); len(kinds) != 0 {
		t.Fatalf("owner A still has %v", kinds)
	}
	waitForWaiters(t, clock, 1)

	clock.Advance(3 * time.Second)
	expectFire(t, fired)
	expectNoFire(t, fired)

	if n := reg.CancelAll("A"); n != 0 {
		t.Fatalf("second CancelAll = %d, want 0", n)
	}
}

func TestRegistry_SupersededFireIsDropped(t *testing.T) {
	clock := clockwork.NewFakeClock()

	var mu sync.Mutex
	var queued []func()
	dispatched := make(chan struct{}, 4)
	reg := NewRegistry(clock, func(_ string, fn func()) bool {
		mu.Lock()
		queued = append(queued, fn)
		mu.Unlock()
		dispatched <- struct{}{}
		return true
	})

	var calls []string
	reg.Schedule("S", KindClueTossup, time.Second, func() { calls = append(calls, "first") })
	waitForWaiters(t, clock, 1)
	clock.Advance(time.Second)

	select {
	case <-dispatched:
	case <-time.After(2 * time.Second):
		t.Fatalf("fire was not dispatched")
	}

	// A handler ahead of the queued fire reschedules the same kind.
	reg.Schedule("S", KindClueTossup, time.Second, func() { calls = append(calls, "second") })

	mu.Lock()
	pending := queued
	queued = nil
	mu.Unlock()
	for _, fn := range pending {
		fn()
	}
	if len(calls) != 0 {
		t.Fatalf("superseded callback ran: %v", calls)
	}

	waitForWaiters(t, clock, 1)
	clock.Advance(time.Second)
	<-dispatched
	mu.Lock()
	pending = queued
	mu.Unlock()
	for _, fn := range pending {
		fn()
	}
	if len(calls) != 1 || calls[0] != "second" {
		t.Fatalf("calls = %v, want [second]", calls)
	}
}

func TestRegistry_MissingOwnerForgetsEntry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	dropped := make(chan struct{}, 1)
	reg := NewRegistry(clock, func(string, func()) bool {
		dropped <- struct{}{}
		return false
	})

	ran := false
	reg.Schedule("GONE", KindReadingClue, time.Second, func() { ran = true })
	waitForWaiters(t, clock, 1)
	clock.Advance(time.Second)

	select {
	case <-dropped:
	case <-time.After(2 * time.Second):
		t.Fatalf("dispatcher was not called")
	}
	deadline := time.Now().Add(time.Second)
	for reg.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if reg.Len() != 0 {
		t.Fatalf("entry was not forgotten")
	}
	if ran {
		t.Fatalf("callback ran for a missing owner")
	}
}

func TestRegistry_Cancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := NewRegistry(clock, nil)

	if reg.Cancel("S", KindWagerResponse) {
		t.Fatalf("cancel on empty registry reported true")
	}
	reg.Schedule("S", KindWagerResponse, time.Second, func() {})
	if !reg.Cancel("S", KindWagerResponse) {
		t.Fatalf("cancel did not find the timer")
	}
	if _, ok := reg.Deadline("S", KindWagerResponse); ok {
		t.Fatalf("deadline still present after cancel")
	}
}

func TestRegistry_Reschedule_KeepsCallback(t *testing.T) {
	clock := clockwork.NewFakeClock()
	reg := NewRegistry(clock, nil)
	fired := make(chan time.Time, 2)

	if reg.Reschedule("S", KindAnnouncement, time.Second) {
		t.Fatalf("reschedule of an unarmed kind reported true")
	}

	reg.Schedule("S", KindAnnouncement, 10*time.Second, func() { fired <- clock.Now() })
	if !reg.Reschedule("S", KindAnnouncement, 2*time.Second) {
		t.Fatalf("reschedule did not find the armed timer")
	}
	waitForWaiters(t, clock, 1)
	clock.Advance(2 * time.Second)
	expectFire(t, fired)
	clock.Advance(10 * time.Second)
	expectNoFire(t, fired)
}

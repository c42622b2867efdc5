package timers

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Kind names the phase a timeout advances. A session holds at most one live timer per kind.
type Kind string

const (
	KindReadingCategoryName  Kind = "READING_CATEGORY_NAME"
	KindReadingClueSelection Kind = "READING_CLUE_SELECTION"
	KindReadingClue          Kind = "READING_CLUE"
	KindClueTossup           Kind = "CLUE_TOSSUP"
	KindClueResponse         Kind = "CLUE_RESPONSE"
	KindWagerResponse        Kind = "WAGER_RESPONSE"
	KindReadingClueDecision  Kind = "READING_CLUE_DECISION"
	KindAnnouncement         Kind = "ANNOUNCEMENT"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// Dispatcher hands fn to the owner's serialized queue. It returns false when the
// owner no longer exists, in which case fn is never run.
type Dispatcher func(owner string, fn func()) bool

type key struct {
	owner string
	kind  Kind
}

type entry struct {
	timer    clockwork.Timer
	stop     chan struct{}
	deadline time.Time
	onFire   func()
}

// Registry owns every phase timeout. Schedule is the only way to arm one and it
// always replaces whatever was registered under the same (owner, kind).
type Registry struct {
	clock    Clock
	dispatch Dispatcher

	mu     sync.Mutex
	active map[key]*entry
}

// NewRegistry creates a registry. A nil dispatch runs callbacks on the timer goroutine.
func NewRegistry(clock Clock, dispatch Dispatcher) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if dispatch == nil {
		dispatch = func(_ string, fn func()) bool {
			fn()
			return true
		}
	}
	return &Registry{
		clock:    clock,
		dispatch: dispatch,
		active:   make(map[key]*entry),
	}
}

// Schedule cancels any timer registered for (owner, kind) and arms a new one that
// calls onFire after d. The callback runs through the dispatcher and is dropped if
// the entry was replaced or cancelled in the meantime.
func (r *Registry) Schedule(owner string, kind Kind, d time.Duration, onFire func()) {
	if d < 0 {
		d = 0
	}
	k := key{owner: owner, kind: kind}
	e := &entry{
		timer:    r.clock.NewTimer(d),
		stop:     make(chan struct{}),
		deadline: r.clock.Now().Add(d),
		onFire:   onFire,
	}

	r.replace(k, e)
	go r.wait(k, e)

	log.Debug().
		Str("session", owner).
		Str("kind", string(kind)).
		Dur("duration", d).
		Time("deadline", e.deadline).
		Msg("scheduled timeout")
}

func (r *Registry) wait(k key, e *entry) {
	select {
	case <-e.timer.Chan():
		if !r.dispatch(k.owner, func() { r.fire(k, e) }) {
			r.forget(k, e)
			log.Debug().Str("session", k.owner).Str("kind", string(k.kind)).Msg("timeout fired for missing session")
		}
	case <-e.stop:
	}
}

// fire runs on the owner's queue. Only the currently registered entry may fire.
func (r *Registry) fire(k key, e *entry) {
	r.mu.Lock()
	cur, ok := r.active[k]
	if !ok || cur != e {
		r.mu.Unlock()
		log.Debug().Str("session", k.owner).Str("kind", string(k.kind)).Msg("dropping superseded timeout")
		return
	}
	delete(r.active, k)
	r.mu.Unlock()

	log.Debug().Str("session", k.owner).Str("kind", string(k.kind)).Msg("timeout fired")
	if e.onFire != nil {
		e.onFire()
	}
}

func (r *Registry) replace(k key, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.active[k]; ok {
		stopEntry(existing)
		log.Debug().Str("session", k.owner).Str("kind", string(k.kind)).Msg("replaced existing timeout")
	}
	r.active[k] = e
}

func (r *Registry) forget(k key, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.active[k]; ok && cur == e {
		delete(r.active, k)
	}
}

// Reschedule re-arms a live (owner, kind) timer with a new duration, keeping its
// callback. It reports false when nothing is armed for that kind.
func (r *Registry) Reschedule(owner string, kind Kind, d time.Duration) bool {
	r.mu.Lock()
	e, ok := r.active[key{owner: owner, kind: kind}]
	r.mu.Unlock()
	if !ok {
		return false
	}
	r.Schedule(owner, kind, d, e.onFire)
	return true
}

// Cancel stops the timer for (owner, kind). It reports whether one was active.
func (r *Registry) Cancel(owner string, kind Kind) bool {
	k := key{owner: owner, kind: kind}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.active[k]
	if !ok {
		return false
	}
	stopEntry(e)
	delete(r.active, k)
	log.Debug().Str("session", owner).Str("kind", string(kind)).Msg("cancelled timeout")
	return true
}

// CancelAll stops every timer the owner holds and returns how many were active.
func (r *Registry) CancelAll(owner string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for k, e := range r.active {
		if k.owner != owner {
			continue
		}
		stopEntry(e)
		delete(r.active, k)
		n++
	}
	if n > 0 {
		log.Debug().Str("session", owner).Int("count", n).Msg("cancelled all timeouts")
	}
	return n
}

// Deadline returns when the (owner, kind) timer is due to fire.
func (r *Registry) Deadline(owner string, kind Kind) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.active[key{owner: owner, kind: kind}]
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}

// Active lists the kinds the owner currently has armed, sorted by name.
func (r *Registry) Active(owner string) []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kinds []Kind
	for k := range r.active {
		if k.owner == owner {
			kinds = append(kinds, k.kind)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Len is the number of live timers across all owners.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// stopEntry stops the timer, drains its channel and releases the waiting goroutine.
func stopEntry(e *entry) {
	if !e.timer.Stop() {
		select {
		case <-e.timer.Chan():
		default:
		}
	}
	close(e.stop)
}

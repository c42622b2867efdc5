package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// OrderedPublisher hands events to a single worker so they reach the bus in
// the order they were enqueued. Enqueue never blocks; events are dropped when
// the buffer is full or after Close.
type OrderedPublisher struct {
	next    Publisher
	timeout time.Duration

	queue     chan SessionEvent
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func NewOrderedPublisher(next Publisher, buffer int, timeout time.Duration) *OrderedPublisher {
	if next == nil {
		next = NoOpPublisher{}
	}
	if buffer <= 0 {
		buffer = 1024
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	p := &OrderedPublisher{
		next:    next,
		timeout: timeout,
		queue:   make(chan SessionEvent, buffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go p.run()
	return p
}

// Enqueue schedules event for publishing and reports whether it was accepted.
func (p *OrderedPublisher) Enqueue(event SessionEvent) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.queue <- event:
		return true
	default:
		log.Warn().
			Str("event_type", string(event.Type)).
			Str("session", event.Session).
			Msg("session event queue full, dropping event")
		return false
	}
}

func (p *OrderedPublisher) run() {
	defer close(p.stopped)
	for {
		select {
		case event := <-p.queue:
			p.publish(event)
		case <-p.done:
			// Flush what was accepted before Close.
			for {
				select {
				case event := <-p.queue:
					p.publish(event)
				default:
					return
				}
			}
		}
	}
}

func (p *OrderedPublisher) publish(event SessionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.next.Publish(ctx, event); err != nil {
		log.Warn().
			Err(err).
			Str("event_type", string(event.Type)).
			Str("session", event.Session).
			Msg("failed to publish session event")
	}
}

// Close stops accepting events and waits until the accepted ones are published.
func (p *OrderedPublisher) Close() {
	p.closeOnce.Do(func() { close(p.done) })
	<-p.stopped
}

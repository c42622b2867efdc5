package eventbus

import (
	"context"
	"sync"
	"time"
)

// MetricsCollector records publish outcomes.
type MetricsCollector interface {
	RecordPublished(eventType EventType, success bool, duration time.Duration)
}

type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordPublished(EventType, bool, time.Duration) {}

// CounterMetrics keeps in-process counters, reported on the health endpoint.
type CounterMetrics struct {
	mu        sync.Mutex
	published map[EventType]int
	failed    map[EventType]int
	total     time.Duration
}

func NewCounterMetrics() *CounterMetrics {
	return &CounterMetrics{
		published: make(map[EventType]int),
		failed:    make(map[EventType]int),
	}
}

func (m *CounterMetrics) RecordPublished(eventType EventType, success bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.published[eventType]++
	} else {
		m.failed[eventType]++
	}
	m.total += duration
}

// Snapshot returns a copy of the counters keyed by event type.
func (m *CounterMetrics) Snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	published := make(map[string]int, len(m.published))
	for k, v := range m.published {
		published[string(k)] = v
	}
	failed := make(map[string]int, len(m.failed))
	for k, v := range m.failed {
		failed[string(k)] = v
	}
	return map[string]interface{}{
		"published":        published,
		"failed":           failed,
		"publish_time_sec": m.total.Seconds(),
	}
}

// MetricPublisher wraps a Publisher with metrics collection
type MetricPublisher struct {
	publisher Publisher
	metrics   MetricsCollector
}

func NewMetricPublisher(publisher Publisher, metrics MetricsCollector) *MetricPublisher {
	return &MetricPublisher{
		publisher: publisher,
		metrics:   metrics,
	}
}

func (p *MetricPublisher) Publish(ctx context.Context, event SessionEvent) error {
	start := time.Now()
	err := p.publisher.Publish(ctx, event)
	p.metrics.RecordPublished(event.Type, err == nil, time.Since(start))
	return err
}

// internal/activity/dispatcher.go
package activity

import (
	"context"
	"sync"
	"time"

	"company-matching/internal/common/logger"
	"company-matching/internal/common/metrics"
)

type Config struct {
	BufferSize     int
	PublishTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		BufferSize:     256,
		PublishTimeout: 5 * time.Second,
	}
}

// Dispatcher implements matching.ActivityRecorder. RecordActivityEvent only
// enqueues; a single background goroutine delivers every event to each sink
// in order. A full buffer drops the event rather than blocking the caller.
type Dispatcher struct {
	sinks  []Sink
	config Config
	logger logger.Logger
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
	events chan Event
	done   chan struct{}
}

func NewDispatcher(cfg Config, log logger.Logger, sinks ...Sink) *Dispatcher {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = def.PublishTimeout
	}

	d := &Dispatcher{
		sinks:  sinks,
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "activity-dispatcher"}),
		now:    time.Now,
		events: make(chan Event, cfg.BufferSize),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// RecordActivityEvent never blocks and never reports an error to the caller.
func (d *Dispatcher) RecordActivityEvent(_ context.Context, kind string, payload map[string]interface{}) {
	event := Event{Kind: kind, Payload: payload, OccurredAt: d.now().UTC()}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(event, "closed")
		return
	}
	select {
	case d.events <- event:
	default:
		d.drop(event, "buffer_full")
	}
}

// Close stops accepting events and waits until the buffered ones are
// delivered or ctx expires.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.events {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event Event) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.config.PublishTimeout)
		err := sink.Publish(ctx, event)
		cancel()

		if err != nil {
			metrics.ActivityEventsDropped.WithLabelValues(sink.Name(), "publish_failed").Inc()
			d.logger.Warn("Activity event delivery failed", map[string]interface{}{
				"sink":  sink.Name(),
				"kind":  event.Kind,
				"error": err.Error(),
			})
		}
	}
}

func (d *Dispatcher) drop(event Event, reason string) {
	metrics.ActivityEventsDropped.WithLabelValues("dispatcher", reason).Inc()
	d.logger.Warn("Activity event dropped", map[string]interface{}{
		"kind":   event.Kind,
		"reason": reason,
	})
}

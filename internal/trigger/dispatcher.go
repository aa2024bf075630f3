package trigger

import (
	"context"
	"log/slog"
	"time"
)

// Dispatcher decouples event emitters from the transport. Publish enqueues
// and never blocks the caller: a full buffer drops the event. A single
// worker goroutine drains the buffer through the sink, guarded by a circuit
// breaker so a dead transport does not burn the drain loop.
type Dispatcher struct {
	sink    Publisher
	inbox   chan Event
	breaker *circuitBreaker
	logger  *slog.Logger
	metrics *Metrics
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithBuffer sets the inbox capacity.
func WithBuffer(size int) DispatcherOption {
	return func(d *Dispatcher) {
		if size > 0 {
			d.inbox = make(chan Event, size)
		}
	}
}

// WithBreaker sets the circuit breaker thresholds.
func WithBreaker(threshold int, cooldown time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.breaker = newCircuitBreaker(threshold, cooldown)
	}
}

// WithMetrics sets the delivery metrics.
func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher wraps a sink publisher.
func NewDispatcher(sink Publisher, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sink:    sink,
		inbox:   make(chan Event, 256),
		breaker: newCircuitBreaker(5, time.Minute),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Publish enqueues the event for asynchronous delivery. A full inbox drops
// the event; trigger events carry no durability guarantee.
func (d *Dispatcher) Publish(ctx context.Context, event Event) error {
	select {
	case d.inbox <- event:
		return nil
	default:
		d.metrics.incDropped("buffer_full")
		d.logger.WarnContext(ctx, "trigger inbox full, dropping event",
			"event", event.Name, "organization_id", event.OrganizationID)
		return nil
	}
}

// Run drains the inbox until ctx is cancelled, then drains whatever is still
// buffered before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return ctx.Err()
		case event := <-d.inbox:
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) drain() {
	// Delivery after shutdown gets a short grace period of its own.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event := <-d.inbox:
			d.deliver(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event Event) {
	if !d.breaker.allow() {
		d.metrics.incDropped("circuit_open")
		return
	}
	if err := d.sink.Publish(ctx, event); err != nil {
		d.breaker.recordFailure()
		d.metrics.incDeliveryFailure()
		d.logger.ErrorContext(ctx, "trigger event delivery failed",
			"event", event.Name, "error", err)
		return
	}
	d.breaker.recordSuccess()
	d.metrics.incDelivered()
}

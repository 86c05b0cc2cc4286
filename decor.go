package decorz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for Decor.
const (
	// Metrics.
	DecorAppliedTotal         = metricz.Key("decor.applied.total")
	DecorApplyFailuresTotal   = metricz.Key("decor.apply.failures.total")
	DecorUnappliedTotal       = metricz.Key("decor.unapplied.total")
	DecorUnapplyFailuresTotal = metricz.Key("decor.unapply.failures.total")
	DecorUpdatesTotal         = metricz.Key("decor.updates.total")
	DecorSteps                = metricz.Key("decor.steps")
	DecorUndoActions          = metricz.Key("decor.undo.actions")
	DecorApplyDurationMs      = metricz.Key("decor.apply.duration.ms")
	DecorUnapplyDurationMs    = metricz.Key("decor.unapply.duration.ms")

	// Spans.
	DecorApplySpan   = tracez.Key("decor.apply")
	DecorUnapplySpan = tracez.Key("decor.unapply")

	// Tags.
	DecorTagSteps   = tracez.Tag("decor.steps")
	DecorTagSuccess = tracez.Tag("decor.success")
	DecorTagError   = tracez.Tag("decor.error")

	// Hook event keys.
	DecorEventApplied   = hookz.Key("decor.applied")
	DecorEventUnapplied = hookz.Key("decor.unapplied")
	DecorEventUpdated   = hookz.Key("decor.updated")
)

// DecorEvent is emitted via hookz after an apply, an unapply or a
// behaviour update.
type DecorEvent struct {
	Name        Name          // Decor name
	Steps       int           // Steps in the held behaviour
	UndoActions int           // Undo actions captured by the last apply
	Success     bool          // Whether the operation succeeded
	Error       error         // Error if the operation failed
	Duration    time.Duration // How long the operation took
	Timestamp   time.Time     // When the event occurred
}

// Decor is the stateful face of a Behaviour. It holds one behaviour and
// the undo action produced by its most recent successful Apply.
//
// Unapply does not reset the stored action: calling it twice runs the same
// undo twice, and a later Apply replaces it.
//
// Decor is safe for concurrent use. Steps and undo actions run outside the
// internal lock. UpdateBehaviour calls are serialised, so fn must not call
// UpdateBehaviour on the same Decor. When applies overlap, the undo of the
// most recently started successful Apply is the one kept.
//
// # Observability
//
// Metrics:
//   - decor.applied.total / decor.apply.failures.total: Counters of Apply calls
//   - decor.unapplied.total / decor.unapply.failures.total: Counters of Unapply calls
//   - decor.updates.total: Counter of successful behaviour updates
//   - decor.steps: Gauge of steps in the held behaviour
//   - decor.undo.actions: Gauge of undo actions captured by the last apply
//   - decor.apply.duration.ms / decor.unapply.duration.ms: Gauges of the last durations
//
// Traces:
//   - decor.apply, decor.unapply
//
// Events (via hooks):
//   - decor.applied, decor.unapplied, decor.updated
//
// Example:
//
//	decor, err := decorz.NewDecorWith("staging", func(b *decorz.Behaviour[*Config]) (*decorz.Behaviour[*Config], error) {
//	    return b.WithUnapply(func(c *Config) decorz.Unappliable {
//	        prev := c.Mode
//	        c.Mode = "staging"
//	        return func() error { c.Mode = prev; return nil }
//	    })
//	})
//	cfg, err = decor.Apply(ctx, cfg)
//	defer decor.Unapply(ctx)
type Decor[T any] struct {
	name      Name
	behaviour *Behaviour[T]
	undo      Unappliable
	undoCount int
	applySeq  uint64 // sequence issued to the latest Apply
	storedSeq uint64 // sequence of the Apply whose undo is stored
	clock     clockz.Clock
	mu        sync.RWMutex
	updateMu  sync.Mutex
	metrics   *metricz.Registry
	tracer    *tracez.Tracer
	hooks     *hookz.Hooks[DecorEvent]
}

// NewDecor wraps behaviour in a Decor.
func NewDecor[T any](name Name, behaviour *Behaviour[T]) (*Decor[T], error) {
	if behaviour == nil {
		return nil, nilArgument("NewDecor", "behaviour")
	}

	metrics := metricz.New()
	metrics.Counter(DecorAppliedTotal)
	metrics.Counter(DecorApplyFailuresTotal)
	metrics.Counter(DecorUnappliedTotal)
	metrics.Counter(DecorUnapplyFailuresTotal)
	metrics.Counter(DecorUpdatesTotal)
	metrics.Gauge(DecorSteps)
	metrics.Gauge(DecorUndoActions)
	metrics.Gauge(DecorApplyDurationMs)
	metrics.Gauge(DecorUnapplyDurationMs)
	metrics.Gauge(DecorSteps).Set(float64(behaviour.Len()))

	return &Decor[T]{
		name:      name,
		behaviour: behaviour,
		undo:      empty,
		clock:     clockz.RealClock,
		metrics:   metrics,
		tracer:    tracez.New(),
		hooks:     hookz.New[DecorEvent](),
	}, nil
}

// NewDecorWith builds the behaviour with NewWith and wraps it.
func NewDecorWith[T any](name Name, configure func(*Behaviour[T]) (*Behaviour[T], error)) (*Decor[T], error) {
	behaviour, err := NewWith(configure)
	if err != nil {
		return nil, err
	}
	return NewDecor(name, behaviour)
}

// UpdateBehaviour replaces the held behaviour with fn applied to it. On any
// error the held behaviour is left as it was.
func (d *Decor[T]) UpdateBehaviour(fn func(*Behaviour[T]) (*Behaviour[T], error)) (err error) {
	if fn == nil {
		return nilArgument("UpdateBehaviour", "fn")
	}
	d.updateMu.Lock()
	defer d.updateMu.Unlock()
	defer recoverFromPanic(&err, "update", d.name)

	d.mu.RLock()
	current := d.behaviour
	d.mu.RUnlock()

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nilArgument("UpdateBehaviour", "fn result")
	}

	d.mu.Lock()
	d.behaviour = next
	d.mu.Unlock()

	d.metrics.Counter(DecorUpdatesTotal).Inc()
	d.metrics.Gauge(DecorSteps).Set(float64(next.Len()))
	_ = d.hooks.Emit(context.Background(), DecorEventUpdated, DecorEvent{ //nolint:errcheck
		Name:      d.name,
		Steps:     next.Len(),
		Success:   true,
		Timestamp: d.getClock().Now(),
	})
	return nil
}

// Apply runs the held behaviour on value, stores the resulting undo action
// and returns the resulting value. On failure the previously stored undo
// action is kept.
func (d *Decor[T]) Apply(ctx context.Context, value T) (result T, err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.Lock()
	behaviour := d.behaviour
	d.applySeq++
	seq := d.applySeq
	d.mu.Unlock()

	clock := d.getClock()
	d.metrics.Gauge(DecorSteps).Set(float64(behaviour.Len()))
	start := clock.Now()

	ctx, span := d.tracer.StartSpan(ctx, DecorApplySpan)
	span.SetTag(DecorTagSteps, fmt.Sprintf("%d", behaviour.Len()))

	var pair Pair[T]
	undoActions := 0
	defer func() {
		elapsed := clock.Since(start)
		d.metrics.Gauge(DecorApplyDurationMs).Set(float64(elapsed.Milliseconds()))
		if err == nil {
			span.SetTag(DecorTagSuccess, "true")
			d.metrics.Counter(DecorAppliedTotal).Inc()
			d.metrics.Gauge(DecorUndoActions).Set(float64(undoActions))
		} else {
			span.SetTag(DecorTagSuccess, "false")
			span.SetTag(DecorTagError, err.Error())
			d.metrics.Counter(DecorApplyFailuresTotal).Inc()
		}
		span.Finish()

		_ = d.hooks.Emit(ctx, DecorEventApplied, DecorEvent{ //nolint:errcheck
			Name:        d.name,
			Steps:       behaviour.Len(),
			UndoActions: undoActions,
			Success:     err == nil,
			Error:       err,
			Duration:    elapsed,
			Timestamp:   clock.Now(),
		})
	}()
	defer recoverFromPanic(&err, "apply", d.name)

	pair, err = behaviour.Apply(value)
	if err != nil {
		var zero T
		return zero, err
	}

	undoActions = pair.Len()
	d.mu.Lock()
	if seq > d.storedSeq {
		d.undo = pair.Undo()
		d.undoCount = undoActions
		d.storedSeq = seq
	}
	d.mu.Unlock()

	return pair.Value(), nil
}

// Unapply invokes the undo action stored by the last successful Apply.
// The action is not cleared, so repeated calls replay it.
func (d *Decor[T]) Unapply(ctx context.Context) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	undo := d.undo
	count := d.undoCount
	d.mu.RUnlock()

	clock := d.getClock()
	start := clock.Now()
	ctx, span := d.tracer.StartSpan(ctx, DecorUnapplySpan)

	defer func() {
		elapsed := clock.Since(start)
		d.metrics.Gauge(DecorUnapplyDurationMs).Set(float64(elapsed.Milliseconds()))
		if err == nil {
			span.SetTag(DecorTagSuccess, "true")
			d.metrics.Counter(DecorUnappliedTotal).Inc()
		} else {
			span.SetTag(DecorTagSuccess, "false")
			span.SetTag(DecorTagError, err.Error())
			d.metrics.Counter(DecorUnapplyFailuresTotal).Inc()
		}
		span.Finish()

		_ = d.hooks.Emit(ctx, DecorEventUnapplied, DecorEvent{ //nolint:errcheck
			Name:        d.name,
			UndoActions: count,
			Success:     err == nil,
			Error:       err,
			Duration:    elapsed,
			Timestamp:   clock.Now(),
		})
	}()
	defer recoverFromPanic(&err, "unapply", d.name)

	return undo.Unapply()
}

// Behaviour returns the currently held behaviour.
func (d *Decor[T]) Behaviour() *Behaviour[T] {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.behaviour
}

// Name returns the name of this decor.
func (d *Decor[T]) Name() Name {
	return d.name
}

// WithClock sets a custom clock for testing.
func (d *Decor[T]) WithClock(clock clockz.Clock) *Decor[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clock = clock
	return d
}

// getClock returns the clock to use.
func (d *Decor[T]) getClock() clockz.Clock {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.clock == nil {
		return clockz.RealClock
	}
	return d.clock
}

// Metrics returns the metrics registry for this decor.
func (d *Decor[T]) Metrics() *metricz.Registry {
	return d.metrics
}

// Tracer returns the tracer for this decor.
func (d *Decor[T]) Tracer() *tracez.Tracer {
	return d.tracer
}

// Close gracefully shuts down observability components.
func (d *Decor[T]) Close() error {
	if d.tracer != nil {
		d.tracer.Close()
	}
	d.hooks.Close()
	return nil
}

// OnApplied registers a handler called asynchronously after every Apply,
// successful or not.
func (d *Decor[T]) OnApplied(handler func(context.Context, DecorEvent) error) error {
	_, err := d.hooks.Hook(DecorEventApplied, handler)
	return err
}

// OnUnapplied registers a handler called asynchronously after every Unapply.
func (d *Decor[T]) OnUnapplied(handler func(context.Context, DecorEvent) error) error {
	_, err := d.hooks.Hook(DecorEventUnapplied, handler)
	return err
}

// OnUpdated registers a handler called asynchronously after a successful
// UpdateBehaviour.
func (d *Decor[T]) OnUpdated(handler func(context.Context, DecorEvent) error) error {
	_, err := d.hooks.Hook(DecorEventUpdated, handler)
	return err
}

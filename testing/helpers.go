// Package testing provides test utilities and helpers for decorz-based code.
//
// It includes an undo recorder that produces observable Unappliable actions,
// must-style helpers for the (behaviour, error) builder API, and assertion
// helpers for Decor metrics and spans.
//
// Example usage:
//
//	func TestRollback(t *testing.T) {
//		rec := testing.NewRecorder()
//		b := testing.Must[string](t)(decorz.New[string]().WithUnapply(testing.Builder[string](rec, "A:")))
//
//		pair, err := b.Apply("1")
//		if err != nil {
//			t.Fatal(err)
//		}
//		_ = pair.Undo().Unapply()
//		testing.AssertRecorded(t, rec, "A:1")
//	}
package testing

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/zoobzio/decorz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Recorder collects the labels of undo actions as they run.
type Recorder struct {
	mu      sync.Mutex
	entries []string
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends label.
func (r *Recorder) Record(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, label)
}

// Action returns an undo action that records label.
func (r *Recorder) Action(label string) decorz.Unappliable {
	return func() error {
		r.Record(label)
		return nil
	}
}

// Failing returns an undo action that records label and then fails with err.
func (r *Recorder) Failing(label string, err error) decorz.Unappliable {
	return func() error {
		r.Record(label)
		return err
	}
}

// Entries returns a copy of the recorded labels in order.
func (r *Recorder) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// Builder returns an undo builder for WithUnapply whose action records
// prefix followed by the value the builder saw.
func Builder[T any](r *Recorder, prefix string) func(T) decorz.Unappliable {
	return func(v T) decorz.Unappliable {
		return r.Action(fmt.Sprintf("%s%v", prefix, v))
	}
}

// Must returns a function that fails the test on a builder error and
// otherwise returns the behaviour:
//
//	b := testing.Must[int](t)(decorz.New[int]().With(inc))
func Must[T any](t *testing.T) func(*decorz.Behaviour[T], error) *decorz.Behaviour[T] {
	return func(b *decorz.Behaviour[T], err error) *decorz.Behaviour[T] {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected builder error: %v", err)
		}
		return b
	}
}

// AssertRecorded checks the recorder holds exactly want, in order.
func AssertRecorded(t *testing.T, r *Recorder, want ...string) {
	t.Helper()
	got := r.Entries()
	if !slices.Equal(got, want) {
		t.Errorf("expected recorded %v, got %v", want, got)
	}
}

// AssertCounter checks a counter in registry has the expected value.
func AssertCounter(t *testing.T, registry *metricz.Registry, key metricz.Key, want float64) {
	t.Helper()
	if got := registry.Counter(key).Value(); got != want {
		t.Errorf("expected counter %s to be %v, got %v", key, want, got)
	}
}

// AssertGauge checks a gauge in registry has the expected value.
func AssertGauge(t *testing.T, registry *metricz.Registry, key metricz.Key, want float64) {
	t.Helper()
	if got := registry.Gauge(key).Value(); got != want {
		t.Errorf("expected gauge %s to be %v, got %v", key, want, got)
	}
}

// SpanCollector captures spans completed by a tracer.
type SpanCollector struct {
	mu    sync.Mutex
	spans []tracez.Span
}

// CollectSpans hooks a collector onto tracer.
func CollectSpans(tracer *tracez.Tracer) *SpanCollector {
	c := &SpanCollector{}
	tracer.OnSpanComplete(func(span tracez.Span) {
		c.mu.Lock()
		c.spans = append(c.spans, span)
		c.mu.Unlock()
	})
	return c
}

// Spans returns a copy of the collected spans.
func (c *SpanCollector) Spans() []tracez.Span {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.spans)
}

// Named returns the collected spans with the given name.
func (c *SpanCollector) Named(name tracez.Key) []tracez.Span {
	var out []tracez.Span
	for _, span := range c.Spans() {
		if span.Name == name {
			out = append(out, span)
		}
	}
	return out
}

// Package decorz provides a small, type-safe library for building
// reversible transformation pipelines in Go.
//
// # Overview
//
// A Behaviour[T] is an immutable list of steps over a value of type T.
// Some steps transform the value; others register an undo action built from
// the value as it is at that point. Applying a behaviour returns a Pair
// holding the final value and a single Unappliable that reverses every
// registered effect, in registration order.
//
//	b := decorz.New[string]()
//	b, _ = b.With(func(s string) string { return s + "2" })
//	b, _ = b.WithUnapply(func(s string) decorz.Unappliable {
//	    return func() error { log.Printf("undo %s", s); return nil }
//	})
//	pair, err := b.Apply("1")
//	// pair.Value() == "12"; pair.Undo().Unapply() logs "undo 12"
//
// # Core Concepts
//
//   - Unappliable: a func() error with AndThen and All for sequencing
//   - Pair: the (value, undo) result of Apply
//   - Behaviour: the persistent builder (With, WithE, WithUnapply, Merge
//     and their bulk and iterator forms)
//   - Decor: a named, stateful holder of one Behaviour with imperative
//     Apply and Unapply, instrumented with metricz, tracez and hookz
//
// Design philosophy:
//   - Behaviours and pairs are immutable values
//   - Decor is a mutable pointer guarded by a lock
//
// # Ordering
//
// Steps run strictly in registration order. An undo builder receives the
// value produced by the steps registered before it, so interleaving With
// and WithUnapply captures intermediate states:
//
//	b, _ := decorz.New[int]().With(double)     // v*2
//	b, _ = b.WithUnapply(remember)             // sees v*2
//	b, _ = b.With(increment)                   // v*2+1
//
// # Error Handling
//
// Nil arguments are rejected with an *ArgumentError matching
// ErrInvalidArgument. Bulk operations check every element before
// registering anything. An undo builder that returns nil is only detected
// when Apply reaches it. Failures of WithE transforms come back as
// *StepError[T], and Decor recovers panics from caller code into
// *PanicError.
//
//	if errors.Is(err, decorz.ErrInvalidArgument) {
//	    // a nil function, behaviour or action was supplied
//	}
package decorz

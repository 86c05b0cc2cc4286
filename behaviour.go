package decorz

import "iter"

// step is one registered stage folded over a Pair during Apply.
type step[T any] func(Pair[T]) (Pair[T], error)

// link is a node of the persistent step list, newest last.
type link[T any] struct {
	prev *link[T]
	fn   step[T]
}

// Behaviour is an immutable, persistent builder of reversible pipelines.
// Every registration returns a new Behaviour that shares the receiver's
// steps and adds its own; the receiver stays usable and unchanged.
//
// The zero value is the identity behaviour.
//
// Example:
//
//	b := decorz.New[string]()
//	b, _ = b.With(strings.TrimSpace)
//	b, _ = b.WithUnapply(func(s string) decorz.Unappliable {
//	    return func() error { return cache.Delete(s) }
//	})
//	pair, err := b.Apply("  key  ")
//	// pair.Value() == "key", pair.Undo() deletes "key" from the cache
type Behaviour[T any] struct {
	last *link[T]
	size int
}

// New returns the identity behaviour.
func New[T any]() *Behaviour[T] {
	return &Behaviour[T]{}
}

// NewWith passes the identity behaviour once through configure and returns
// the result.
func NewWith[T any](configure func(*Behaviour[T]) (*Behaviour[T], error)) (*Behaviour[T], error) {
	if configure == nil {
		return nil, nilArgument("NewWith", "configure")
	}
	b, err := configure(New[T]())
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nilArgument("NewWith", "configure result")
	}
	return b, nil
}

// Len returns the number of registered steps. A merged behaviour counts as
// one step.
func (b *Behaviour[T]) Len() int {
	return b.size
}

func (b *Behaviour[T]) then(fn step[T]) *Behaviour[T] {
	return &Behaviour[T]{last: &link[T]{prev: b.last, fn: fn}, size: b.size + 1}
}

// With appends a transform that replaces the current value and leaves the
// accumulated undo untouched.
func (b *Behaviour[T]) With(transform func(T) T) (*Behaviour[T], error) {
	if b == nil {
		return nil, nilArgument("With", "receiver")
	}
	if transform == nil {
		return nil, nilArgument("With", "transform")
	}
	return b.then(transformStep(transform)), nil
}

// WithE appends a transform that may fail. A returned error stops Apply
// and is reported as a *StepError.
func (b *Behaviour[T]) WithE(transform func(T) (T, error)) (*Behaviour[T], error) {
	if b == nil {
		return nil, nilArgument("WithE", "receiver")
	}
	if transform == nil {
		return nil, nilArgument("WithE", "transform")
	}
	index := b.size + 1
	return b.then(func(p Pair[T]) (Pair[T], error) {
		v, err := transform(p.value)
		if err != nil {
			return p, &StepError[T]{Step: index, InputData: p.value, Err: err}
		}
		return p.withValue(v), nil
	}), nil
}

// WithUnapply appends a step that builds an undo action from the current
// value and appends it after the accumulated undo. build sees the value as
// produced by the steps registered before it, not the final output.
//
// A nil action returned by build is only detected when the step runs, so
// Apply reports it rather than WithUnapply.
func (b *Behaviour[T]) WithUnapply(build func(T) Unappliable) (*Behaviour[T], error) {
	if b == nil {
		return nil, nilArgument("WithUnapply", "receiver")
	}
	if build == nil {
		return nil, nilArgument("WithUnapply", "build")
	}
	return b.then(unapplyStep(build)), nil
}

// Merge appends other as a single step. When applied, other runs as an
// independent application on the current value; its value replaces the
// current one and its undo runs after the undo accumulated so far.
func (b *Behaviour[T]) Merge(other *Behaviour[T]) (*Behaviour[T], error) {
	if b == nil {
		return nil, nilArgument("Merge", "receiver")
	}
	if other == nil {
		return nil, nilArgument("Merge", "other")
	}
	return b.then(mergeStep(other)), nil
}

// WithAll is With folded over transforms. Nothing is registered if any
// element is nil.
func (b *Behaviour[T]) WithAll(transforms ...func(T) T) (*Behaviour[T], error) {
	if b == nil {
		return nil, nilArgument("WithAll", "receiver")
	}
	for i, fn := range transforms {
		if fn == nil {
			return nil, nilElement("WithAll", "transforms", i)
		}
	}
	next := b
	for _, fn := range transforms {
		next = next.then(transformStep(fn))
	}
	return next, nil
}

// WithSeq is WithAll over an iterator.
func (b *Behaviour[T]) WithSeq(transforms iter.Seq[func(T) T]) (*Behaviour[T], error) {
	if transforms == nil {
		return nil, nilArgument("WithSeq", "transforms")
	}
	return b.WithAll(collect(transforms)...)
}

// WithUnapplyAll is WithUnapply folded over builders. Nothing is
// registered if any element is nil.
func (b *Behaviour[T]) WithUnapplyAll(builders ...func(T) Unappliable) (*Behaviour[T], error) {
	if b == nil {
		return nil, nilArgument("WithUnapplyAll", "receiver")
	}
	for i, fn := range builders {
		if fn == nil {
			return nil, nilElement("WithUnapplyAll", "builders", i)
		}
	}
	next := b
	for _, fn := range builders {
		next = next.then(unapplyStep(fn))
	}
	return next, nil
}

// WithUnapplySeq is WithUnapplyAll over an iterator.
func (b *Behaviour[T]) WithUnapplySeq(builders iter.Seq[func(T) Unappliable]) (*Behaviour[T], error) {
	if builders == nil {
		return nil, nilArgument("WithUnapplySeq", "builders")
	}
	return b.WithUnapplyAll(collect(builders)...)
}

// MergeAll is Merge folded over others. Nothing is registered if any
// element is nil.
func (b *Behaviour[T]) MergeAll(others ...*Behaviour[T]) (*Behaviour[T], error) {
	if b == nil {
		return nil, nilArgument("MergeAll", "receiver")
	}
	for i, other := range others {
		if other == nil {
			return nil, nilElement("MergeAll", "others", i)
		}
	}
	next := b
	for _, other := range others {
		next = next.then(mergeStep(other))
	}
	return next, nil
}

// MergeSeq is MergeAll over an iterator.
func (b *Behaviour[T]) MergeSeq(others iter.Seq[*Behaviour[T]]) (*Behaviour[T], error) {
	if others == nil {
		return nil, nilArgument("MergeSeq", "others")
	}
	return b.MergeAll(collect(others)...)
}

// Apply seeds a Pair with value and Empty and folds it through every step
// in registration order. The behaviour itself is never modified.
//
// When a step fails, the returned Pair holds the value that step received
// and the undo actions accumulated before it, so callers can roll back the
// partial run.
func (b *Behaviour[T]) Apply(value T) (Pair[T], error) {
	p := seed(value)
	if b == nil {
		return p, nilArgument("Apply", "receiver")
	}

	steps := make([]step[T], b.size)
	for n, i := b.last, b.size-1; n != nil; n, i = n.prev, i-1 {
		steps[i] = n.fn
	}

	var err error
	for _, fn := range steps {
		if p, err = fn(p); err != nil {
			return p, err
		}
	}
	return p, nil
}

func transformStep[T any](transform func(T) T) step[T] {
	return func(p Pair[T]) (Pair[T], error) {
		return p.withValue(transform(p.value)), nil
	}
}

func unapplyStep[T any](build func(T) Unappliable) step[T] {
	return func(p Pair[T]) (Pair[T], error) {
		action := build(p.value)
		if action == nil {
			return p, nilArgument("WithUnapply", "build result")
		}
		return p.withUndo(action), nil
	}
}

func mergeStep[T any](other *Behaviour[T]) step[T] {
	return func(p Pair[T]) (Pair[T], error) {
		sub, err := other.Apply(p.value)
		if err != nil {
			return p, err
		}
		next := p.withValue(sub.value)
		if sub.Len() > 0 {
			next = next.withUndo(sub.Undo())
		}
		return next, nil
	}
}

func collect[E any](seq iter.Seq[E]) []E {
	var out []E
	for e := range seq {
		out = append(out, e)
	}
	return out
}

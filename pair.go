package decorz

import "fmt"

// undoList is a persistent list of accumulated actions, newest last.
type undoList struct {
	prev   *undoList
	action Unappliable
	size   int
}

// Pair is the result of applying a Behaviour: the transformed value and the
// action that reverses every undo registered along the way.
//
// A Pair is immutable. Two pairs compare equal with == when T is comparable
// and they hold the same value and the same accumulated undo chain.
type Pair[T any] struct {
	value T
	undo  *undoList
}

// seed is the only way a Pair comes into existence.
func seed[T any](value T) Pair[T] {
	return Pair[T]{value: value}
}

// Value returns the current value.
func (p Pair[T]) Value() T {
	return p.value
}

// Undo returns the accumulated reversible action, or Empty when no undo
// was registered. Actions run in registration order.
func (p Pair[T]) Undo() Unappliable {
	if p.undo == nil {
		return empty
	}
	if p.undo.size == 1 {
		return p.undo.action
	}
	actions := make([]Unappliable, p.undo.size)
	for n := p.undo; n != nil; n = n.prev {
		actions[n.size-1] = n.action
	}
	return sequence(actions)
}

// Len returns the number of accumulated undo actions.
func (p Pair[T]) Len() int {
	if p.undo == nil {
		return 0
	}
	return p.undo.size
}

func (p Pair[T]) String() string {
	return fmt.Sprintf("Pair{value=%v, undo=%d}", p.value, p.Len())
}

// withValue replaces the value and keeps the undo chain.
func (p Pair[T]) withValue(value T) Pair[T] {
	return Pair[T]{value: value, undo: p.undo}
}

// withUndo keeps the value and appends action after the undo chain.
func (p Pair[T]) withUndo(action Unappliable) Pair[T] {
	size := 1
	if p.undo != nil {
		size = p.undo.size + 1
	}
	return Pair[T]{value: p.value, undo: &undoList{prev: p.undo, action: action, size: size}}
}

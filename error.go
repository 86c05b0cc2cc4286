package decorz

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the sentinel matched by every argument failure.
// A required function, behaviour or action was nil, or a callback produced
// a nil result where one was required.
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentError describes a nil argument rejected by an operation.
// It matches ErrInvalidArgument through errors.Is.
type ArgumentError struct {
	Op    string // Operation that rejected the argument, e.g. "WithAll"
	Arg   string // Name of the offending argument
	Index int    // Position of a nil element in a bulk call, -1 otherwise
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("decorz: %s: argument %q contains nil at index %d", e.Op, e.Arg, e.Index)
	}
	return fmt.Sprintf("decorz: %s: argument %q is nil", e.Op, e.Arg)
}

// Is reports whether target is ErrInvalidArgument.
func (*ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func nilArgument(op, arg string) error {
	return &ArgumentError{Op: op, Arg: arg, Index: -1}
}

func nilElement(op, arg string, index int) error {
	return &ArgumentError{Op: op, Arg: arg, Index: index}
}

// StepError wraps a failure returned by a fallible transform during Apply.
// It records which step failed and the value that step received.
type StepError[T any] struct {
	InputData T
	Err       error
	Step      int // 1-based position of the failing step
}

// Error implements the error interface.
func (e *StepError[T]) Error() string {
	return fmt.Sprintf("decorz: step %d failed: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error, supporting error wrapping patterns.
func (e *StepError[T]) Unwrap() error {
	return e.Err
}

// PanicError carries a panic recovered while a Decor ran caller code.
type PanicError struct {
	Value any
	Op    string
	Name  Name
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("decorz: %s %q panicked: %v", e.Op, e.Name, e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// recoverFromPanic turns a panic into a *PanicError assigned to err.
// It must be deferred directly.
func recoverFromPanic(err *error, op string, name Name) {
	if r := recover(); r != nil {
		*err = &PanicError{Op: op, Name: name, Value: r}
	}
}

package decorz

// Unappliable is a reversible action: a zero-argument operation that undoes
// something. A non-nil error means the undo failed.
type Unappliable func() error

// empty is the shared no-op action returned by Empty.
var empty Unappliable = func() error { return nil }

// Empty returns the shared no-op action, the identity of AndThen.
func Empty() Unappliable {
	return empty
}

// Unapply invokes the action.
func (u Unappliable) Unapply() error {
	return u()
}

// AndThen returns an action that runs u and then after. If u fails, after
// is never invoked and u's error is returned as is.
func (u Unappliable) AndThen(after Unappliable) (Unappliable, error) {
	if u == nil {
		return nil, nilArgument("AndThen", "receiver")
	}
	if after == nil {
		return nil, nilArgument("AndThen", "after")
	}
	return func() error {
		if err := u(); err != nil {
			return err
		}
		return after()
	}, nil
}

// All composes actions left to right. Every element is checked before any
// composition happens; an empty call yields Empty.
//
// Example:
//
//	undo, err := decorz.All(closeFile, removeTemp, releaseLock)
//	if err != nil {
//	    return err
//	}
//	defer undo.Unapply()
func All(actions ...Unappliable) (Unappliable, error) {
	for i, a := range actions {
		if a == nil {
			return nil, nilElement("All", "actions", i)
		}
	}
	switch len(actions) {
	case 0:
		return empty, nil
	case 1:
		return actions[0], nil
	}
	return sequence(append([]Unappliable(nil), actions...)), nil
}

// sequence runs actions in order inside one loop so long chains do not
// nest closures.
func sequence(actions []Unappliable) Unappliable {
	return func() error {
		for _, a := range actions {
			if err := a(); err != nil {
				return err
			}
		}
		return nil
	}
}

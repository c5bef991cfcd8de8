// Package optimistic implements local state that changes before the write
// backing it completes and snaps back if that write fails.
package optimistic

import (
	"context"
	"errors"
	"sync"
)

type State int

const (
	Pristine State = iota
	Pending
	Committed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	default:
		return "pristine"
	}
}

var ErrPending = errors.New("a write is already pending")

// Affordance is one optimistically updated value. It moves from pristine to
// pending when a change is applied locally, then to committed when the write
// succeeds or back to pristine, with the old value restored, when it fails.
type Affordance[T any] struct {
	mu    sync.Mutex
	state State
	value T
	prev  T
}

func New[T any](initial T) *Affordance[T] {
	return &Affordance[T]{value: initial}
}

func (a *Affordance[T]) Value() T {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value
}

func (a *Affordance[T]) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Begin shows next locally. Only one write may be pending at a time.
func (a *Affordance[T]) Begin(next T) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == Pending {
		return ErrPending
	}
	a.prev = a.value
	a.value = next
	a.state = Pending
	return nil
}

// Rebase replaces the shown value with one observed from the source of
// truth. It is ignored while a write is pending and reports whether it applied.
func (a *Affordance[T]) Rebase(observed T) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == Pending {
		return false
	}
	a.value = observed
	return true
}

func (a *Affordance[T]) Commit() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == Pending {
		a.state = Committed
	}
}

// Revert restores the value seen before Begin.
func (a *Affordance[T]) Revert() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == Pending {
		a.value = a.prev
		a.state = Pristine
	}
}

// Apply runs Begin, write, then Commit or Revert depending on the result of
// write. The write error is returned unchanged.
func (a *Affordance[T]) Apply(ctx context.Context, next T, write func(context.Context) error) error {
	if err := a.Begin(next); err != nil {
		return err
	}
	if err := write(ctx); err != nil {
		a.Revert()
		return err
	}
	a.Commit()
	return nil
}

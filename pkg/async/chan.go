package async

import (
	"context"
	"time"
)

// MapChan maps every value of input through f until input closes or ctx is
// done. The output channel is closed afterwards.
func MapChan[I any, O any](ctx context.Context, input <-chan I, f func(I) O) <-chan O {
	out := make(chan O)

	go func() {
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return

			case v, ok := <-input:
				if !ok {
					return
				}
				select {
				case out <- f(v):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Just emits a single value and closes.
func Just[T any](ctx context.Context, value T) <-chan T {
	out := make(chan T, 1)
	select {
	case out <- value:
	case <-ctx.Done():
	}
	close(out)
	return out
}

// Debounce forwards the latest value of input once input has been quiet for
// wait. A pending value is flushed when input closes.
func Debounce[T any](ctx context.Context, input <-chan T, wait time.Duration) <-chan T {
	out := make(chan T)

	go func() {
		defer close(out)

		timer := time.NewTimer(wait)
		timer.Stop()
		defer timer.Stop()

		var pending T
		has := false

		emit := func() bool {
			if !has {
				return true
			}
			has = false
			select {
			case out <- pending:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case v, ok := <-input:
				if !ok {
					emit()
					return
				}
				pending = v
				has = true
				timer.Reset(wait)

			case <-timer.C:
				if !emit() {
					return
				}
			}
		}
	}()

	return out
}

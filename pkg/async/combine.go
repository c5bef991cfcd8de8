package async

import (
	"context"
	"slices"
	"sync"
)

// CombineLatest fans N independently updating channels into one. Once every
// input has produced a value it emits the latest value of each input, in input
// order, and emits again on every later update of any input. The output closes
// when all inputs have closed or ctx is done. With no inputs it emits a single
// empty slice.
func CombineLatest[T any](ctx context.Context, inputs ...<-chan T) <-chan []T {
	if len(inputs) == 0 {
		return Just(ctx, []T{})
	}

	type update struct {
		index int
		value T
	}

	merged := make(chan update)
	var wg sync.WaitGroup

	for i, in := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for {
				select {
				case <-ctx.Done():
					return

				case v, ok := <-in:
					if !ok {
						return
					}
					select {
					case merged <- update{index: i, value: v}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(merged)
	}()

	out := make(chan []T)

	go func() {
		defer close(out)

		latest := make([]T, len(inputs))
		seen := make([]bool, len(inputs))
		missing := len(inputs)

		for u := range merged {
			latest[u.index] = u.value
			if !seen[u.index] {
				seen[u.index] = true
				missing--
			}
			if missing > 0 {
				continue
			}

			select {
			case out <- slices.Clone(latest):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// SwitchMap maps every value of input to an inner channel and forwards the
// values of the most recent inner channel only. Starting a new inner channel
// cancels the context the previous one was created with, so its producers
// tear down and its late values are never forwarded.
func SwitchMap[I any, O any](ctx context.Context, input <-chan I, f func(context.Context, I) <-chan O) <-chan O {
	out := make(chan O)

	go func() {
		defer close(out)

		cancel := context.CancelFunc(func() {})
		defer func() { cancel() }()

		var inner <-chan O

		for {
			select {
			case <-ctx.Done():
				return

			case v, ok := <-input:
				if !ok {
					input = nil
					if inner == nil {
						return
					}
					continue
				}
				cancel()
				var innerCtx context.Context
				innerCtx, cancel = context.WithCancel(ctx)
				inner = f(innerCtx, v)

			case v, ok := <-inner:
				if !ok {
					inner = nil
					if input == nil {
						return
					}
					continue
				}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

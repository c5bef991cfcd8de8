package async

import (
	"context"
	"sync"
)

// Value holds a value and broadcasts every change to its subscribers. A slow
// subscriber skips intermediate values and only sees the latest one.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[chan T]struct{}
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{current: initial, subs: map[chan T]struct{}{}}
}

func (v *Value[T]) Load() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

func (v *Value[T]) Store(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = x
	for ch := range v.subs {
		select {
		case <-ch:
		default:
		}
		ch <- x
	}
}

// Subscribe delivers the current value immediately and then every change
// until ctx is done.
func (v *Value[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	v.mu.Lock()
	ch <- v.current
	v.subs[ch] = struct{}{}
	v.mu.Unlock()

	go func() {
		<-ctx.Done()
		v.mu.Lock()
		delete(v.subs, ch)
		close(ch)
		v.mu.Unlock()
	}()

	return ch
}

package async_test

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/socialsync/pkg/async"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSubscribeSeesCurrentThenChanges(t *testing.T) {
	v := async.NewValue("a")
	ch := v.Subscribe(t.Context())

	assert.Equal(t, "a", receive(t, ch))

	v.Store("b")
	assert.Equal(t, "b", receive(t, ch))
	assert.Equal(t, "b", v.Load())
}

func TestValueSlowSubscriberSeesLatest(t *testing.T) {
	v := async.NewValue(0)
	ch := v.Subscribe(t.Context())

	for i := 1; i <= 5; i++ {
		v.Store(i)
	}
	assert.Equal(t, 5, receive(t, ch))
}

func TestValueUnsubscribeClosesChannel(t *testing.T) {
	v := async.NewValue(1)
	ctx, cancel := context.WithCancel(context.Background())
	ch := v.Subscribe(ctx)
	receive(t, ch)

	cancel()
	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription was not closed")
	}

	v.Store(2)
	assert.Equal(t, 2, v.Load())
}

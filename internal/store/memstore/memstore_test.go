package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"github.com/anonto42/nano-midea/socialsync/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextSnapshot(t *testing.T, ch <-chan store.Snapshot) store.Snapshot {
	t.Helper()

	select {
	case snap, ok := <-ch:
		require.True(t, ok, "subscription closed")
		require.NoError(t, snap.Err)
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return store.Snapshot{}
}

func TestGetMissing(t *testing.T) {
	s := memstore.New()

	_, err := s.Get(t.Context(), "users/nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateMissing(t *testing.T) {
	s := memstore.New()

	err := s.Update(t.Context(), "users/nobody", store.Fields{"bio": "x"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTransforms(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := memstore.New(memstore.WithClock(func() time.Time { return now }))
	ctx := t.Context()

	require.NoError(t, s.Set(ctx, "conversations/a__b", store.Fields{
		"count":    int64(1),
		"unreadBy": []string{"a"},
	}))
	require.NoError(t, s.Update(ctx, "conversations/a__b", store.Fields{
		"count":    store.Increment(-3),
		"unreadBy": store.ArrayUnion{"b", "a"},
		"at":       store.ServerTimestamp,
	}))

	doc, err := s.Get(ctx, "conversations/a__b")
	require.NoError(t, err)
	assert.Equal(t, int64(-2), doc.Int("count"))
	assert.ElementsMatch(t, []string{"a", "b"}, doc.Strings("unreadBy"))
	assert.Equal(t, now, doc.Time("at"))

	require.NoError(t, s.Update(ctx, "conversations/a__b", store.Fields{
		"unreadBy": store.ArrayRemove{"a"},
	}))
	doc, err = s.Get(ctx, "conversations/a__b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, doc.Strings("unreadBy"))
}

func TestSubscribeRedeliversOnChange(t *testing.T) {
	s := memstore.New()
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, s.Set(ctx, "posts/p1", store.Fields{"authorId": "u1", "createdAt": int64(1)}))

	ch, err := s.Subscribe(ctx, store.Collection("posts").
		Where("authorId", store.OpIn, []string{"u1", "u2"}).
		OrderBy("createdAt", store.Desc))
	require.NoError(t, err)

	snap := nextSnapshot(t, ch)
	require.Len(t, snap.Docs, 1)

	require.NoError(t, s.Set(ctx, "posts/p2", store.Fields{"authorId": "u2", "createdAt": int64(2)}))
	snap = nextSnapshot(t, ch)
	require.Len(t, snap.Docs, 2)
	assert.Equal(t, "p2", snap.Docs[0].ID)
	assert.Equal(t, "p1", snap.Docs[1].ID)

	cancel()
	for range ch {
	}
}

func TestSubscribeRejectsOversizedMembership(t *testing.T) {
	s := memstore.New()

	ids := make([]string, store.MaxInValues+1)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	_, err := s.Subscribe(t.Context(), store.Collection("posts").Where("authorId", store.OpIn, ids))
	require.ErrorIs(t, err, store.ErrTooManyValues)
}

func TestArrayContainsAndLimit(t *testing.T) {
	s := memstore.New()
	ctx := t.Context()

	for i, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, s.Set(ctx, "conversations/"+id, store.Fields{
			"participantIds": []string{"me", id},
			"lastMessageAt":  int64(i),
		}))
	}
	require.NoError(t, s.Set(ctx, "conversations/other", store.Fields{
		"participantIds": []string{"x", "y"},
		"lastMessageAt":  int64(10),
	}))

	docs, err := store.Fetch(ctx, s, store.Collection("conversations").
		Where("participantIds", store.OpArrayContains, "me").
		OrderBy("lastMessageAt", store.Desc).
		WithLimit(2))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c3", docs[0].ID)
	assert.Equal(t, "c2", docs[1].ID)
}

func TestSubcollectionsAreIsolated(t *testing.T) {
	s := memstore.New()
	ctx := t.Context()

	_, err := s.Append(ctx, "users/u1/notifications", store.Fields{"type": "follow"})
	require.NoError(t, err)
	_, err = s.Append(ctx, "users/u2/notifications", store.Fields{"type": "like"})
	require.NoError(t, err)

	docs, err := store.Fetch(ctx, s, store.Collection("users/u1/notifications"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "follow", docs[0].String("type"))
}

func TestInjectFault(t *testing.T) {
	s := memstore.New()
	boom := errors.New("boom")
	s.InjectFault(func(op, path string) error {
		if op == "set" {
			return boom
		}
		return nil
	})

	require.ErrorIs(t, s.Set(t.Context(), "users/u1", store.Fields{}), boom)

	s.InjectFault(nil)
	require.NoError(t, s.Set(t.Context(), "users/u1", store.Fields{}))
	assert.Equal(t, 1, s.Len())
}

package firestore

import (
	"testing"

	gcfirestore "cloud.google.com/go/firestore"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestToNative(t *testing.T) {
	out := toNative(store.Fields{
		"likeCount": store.Increment(-1),
		"members":   store.ArrayUnion{"a", "b"},
		"removed":   store.ArrayRemove{"c"},
		"createdAt": store.ServerTimestamp,
		"text":      "hello",
		"read":      false,
	})

	assert.Len(t, out, 6)
	assert.Equal(t, gcfirestore.Increment(int64(-1)), out["likeCount"])
	assert.Equal(t, gcfirestore.ArrayUnion("a", "b"), out["members"])
	assert.Equal(t, gcfirestore.ArrayRemove("c"), out["removed"])
	assert.Equal(t, gcfirestore.ServerTimestamp, out["createdAt"])
	assert.Equal(t, "hello", out["text"])
	assert.Equal(t, false, out["read"])
}

func TestToNative_Empty(t *testing.T) {
	assert.Empty(t, toNative(nil))
}

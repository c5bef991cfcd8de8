package services

import (
	"context"
	"testing"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnreadNotificationCount_SuppressesOpenChat(t *testing.T) {
	list := []models.Notification{
		{Type: models.NotificationMessage, ConversationID: "a__b"},
		{Type: models.NotificationMessage, ConversationID: "a__c"},
		{Type: models.NotificationLike, PostID: "p1"},
		{Type: models.NotificationFollow, Read: true},
	}

	assert.Equal(t, 3, UnreadNotificationCount(list, nil))
	assert.Equal(t, 2, UnreadNotificationCount(list, &OpenChat{ConversationID: "a__b"}))
	assert.Equal(t, 3, UnreadNotificationCount(list, &OpenChat{ConversationID: "x__y"}))
}

func TestMarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	authorCtx, author := env.signUp(t)
	u1Ctx, _ := env.signUp(t)
	u2Ctx, _ := env.signUp(t)

	require.NoError(t, env.graph.Follow(u1Ctx, author.UID))
	require.NoError(t, env.graph.Follow(u2Ctx, author.UID))

	list, err := env.notifier.ListNotifications(authorCtx)
	require.NoError(t, err)
	require.Equal(t, 2, UnreadNotificationCount(list, nil))

	require.NoError(t, env.notifier.MarkRead(authorCtx, list[0].ID))
	list, err = env.notifier.ListNotifications(authorCtx)
	require.NoError(t, err)
	require.Equal(t, 1, UnreadNotificationCount(list, nil))

	require.NoError(t, env.notifier.MarkAllRead(authorCtx))
	list, err = env.notifier.ListNotifications(authorCtx)
	require.NoError(t, err)
	assert.Zero(t, UnreadNotificationCount(list, nil))
}

func TestMarkAllRead_IgnoresItemFailures(t *testing.T) {
	env := newTestEnv(t)
	authorCtx, author := env.signUp(t)
	u1Ctx, _ := env.signUp(t)

	require.NoError(t, env.graph.Follow(u1Ctx, author.UID))
	env.failWrites("/notifications/")

	require.NoError(t, env.notifier.MarkAllRead(authorCtx))
	assert.Equal(t, 1, UnreadNotificationCount(env.inbox(t, author.UID), nil))

	_, err := env.notifier.ListNotifications(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestWatchNotifications_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	authorCtx, author := env.signUp(t)
	u1Ctx, u1 := env.signUp(t)
	u2Ctx, u2 := env.signUp(t)

	ctx, cancel := context.WithCancel(authorCtx)
	defer cancel()

	inbox, err := env.notifier.WatchNotifications(ctx)
	require.NoError(t, err)
	require.Empty(t, receive(t, inbox))

	require.NoError(t, env.graph.Follow(u1Ctx, author.UID))
	require.NoError(t, env.graph.Follow(u2Ctx, author.UID))

	got := receiveUntil(t, inbox, func(list []models.Notification) bool { return len(list) == 2 })
	assert.Equal(t, u2.UID, got[0].ActorID)
	assert.Equal(t, u1.UID, got[1].ActorID)
}

package services

import (
	"context"
	"testing"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatPopup_OpenSwitchesSubscription(t *testing.T) {
	env := newTestEnv(t)
	u1Ctx, u1 := env.signUp(t)
	u2Ctx, u2 := env.signUp(t)
	_, u3 := env.signUp(t)

	withU1, err := env.messaging.GetOrCreateConversation(u2Ctx, u1.UID)
	require.NoError(t, err)
	withU3, err := env.messaging.GetOrCreateConversation(u2Ctx, u3.UID)
	require.NoError(t, err)

	_, err = env.messaging.SendMessage(u1Ctx, withU1, "are you there?")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(u2Ctx)
	defer cancel()

	popup := NewChatPopup(env.messaging)
	changes := popup.Changes(ctx)
	require.Nil(t, receive(t, changes))

	first, err := popup.Open(ctx, OpenChat{ConversationID: withU1, Name: u1.DisplayName})
	require.NoError(t, err)
	msgs := receive(t, first)
	require.Len(t, msgs, 1)
	assert.Equal(t, "are you there?", msgs[0].Text)
	assert.Equal(t, withU1, receive(t, changes).ConversationID)

	conv, err := env.conversations.GetConversation(context.Background(), withU1)
	require.NoError(t, err)
	assert.False(t, conv.IsUnreadBy(u2.UID))

	second, err := popup.Open(ctx, OpenChat{ConversationID: withU3})
	require.NoError(t, err)
	requireClosed(t, first)
	assert.Empty(t, receive(t, second))
	assert.Equal(t, withU3, popup.Current().ConversationID)

	popup.Close()
	requireClosed(t, second)
	assert.Nil(t, popup.Current())
}

func TestChatPopup_SuppressesOpenConversation(t *testing.T) {
	env := newTestEnv(t)
	u1Ctx, u1 := env.signUp(t)
	u2Ctx, u2 := env.signUp(t)

	id, err := env.messaging.GetOrCreateConversation(u1Ctx, u2.UID)
	require.NoError(t, err)
	_, err = env.messaging.SendMessage(u1Ctx, id, "hi")
	require.NoError(t, err)
	require.NoError(t, env.graph.Follow(u1Ctx, u2.UID))

	popup := NewChatPopup(env.messaging)
	inbox := env.inbox(t, u2.UID)
	require.Equal(t, 2, UnreadNotificationCount(inbox, popup.Current()))

	ctx, cancel := context.WithCancel(u2Ctx)
	defer cancel()

	_, err = popup.Open(ctx, OpenChat{ConversationID: id, Name: u1.DisplayName})
	require.NoError(t, err)
	assert.Equal(t, 1, UnreadNotificationCount(inbox, popup.Current()))
	assert.Equal(t, models.NotificationFollow, inbox[0].Type)
}

func TestChatPopup_OpenForeignConversation(t *testing.T) {
	env := newTestEnv(t)
	u1Ctx, _ := env.signUp(t)
	_, u2 := env.signUp(t)
	strangerCtx, _ := env.signUp(t)

	id, err := env.messaging.GetOrCreateConversation(u1Ctx, u2.UID)
	require.NoError(t, err)

	popup := NewChatPopup(env.messaging)
	_, err = popup.Open(strangerCtx, OpenChat{ConversationID: id})
	require.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, popup.Current())
}

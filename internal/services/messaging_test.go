package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationID_Symmetric(t *testing.T) {
	for i := 0; i < 100; i++ {
		a, b := gofakeit.UUID(), gofakeit.UUID()
		require.Equal(t, ConversationID(a, b), ConversationID(b, a))
	}
	assert.Equal(t, "alice__bob", ConversationID("bob", "alice"))
	assert.NotEqual(t, ConversationID("a", "b"), ConversationID("a", "c"))
}

func TestGetOrCreateConversation(t *testing.T) {
	env := newTestEnv(t)
	u1Ctx, u1 := env.signUp(t)
	u2Ctx, u2 := env.signUp(t)

	id, err := env.messaging.GetOrCreateConversation(u1Ctx, u2.UID)
	require.NoError(t, err)
	assert.Equal(t, ConversationID(u1.UID, u2.UID), id)

	again, err := env.messaging.GetOrCreateConversation(u2Ctx, u1.UID)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	conv, err := env.conversations.GetConversation(context.Background(), id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{u1.UID, u2.UID}, conv.ParticipantIDs)
	assert.Equal(t, u1.Handle(), conv.ParticipantNames[u1.UID])
	assert.Equal(t, models.DefaultAvatarColor, conv.ParticipantColors[u2.UID])
	assert.Empty(t, conv.LastMessage)

	_, err = env.messaging.GetOrCreateConversation(u1Ctx, u1.UID)
	require.ErrorIs(t, err, ErrInvalidTarget)
}

func TestSendMessage_FreshConversation(t *testing.T) {
	env := newTestEnv(t)
	u1Ctx, u1 := env.signUp(t)
	_, u2 := env.signUp(t)

	id, err := env.messaging.GetOrCreateConversation(u1Ctx, u2.UID)
	require.NoError(t, err)

	_, err = env.messaging.SendMessage(u1Ctx, id, "hello")
	require.NoError(t, err)

	conv, err := env.conversations.GetConversation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "hello", conv.LastMessage)
	assert.Equal(t, u1.UID, conv.LastMessageSenderID)
	assert.True(t, conv.IsUnreadBy(u2.UID))
	assert.False(t, conv.IsUnreadBy(u1.UID))

	inbox := env.inbox(t, u2.UID)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationMessage, inbox[0].Type)
	assert.Equal(t, "hello", inbox[0].Preview)
	assert.Equal(t, id, inbox[0].ConversationID)
	assert.Equal(t, u1.UID, inbox[0].ActorID)
	assert.Equal(t, conv.ParticipantNames[u1.UID], inbox[0].ActorName)
	assert.Equal(t, u1.Handle(), inbox[0].ActorName)

	assert.Empty(t, env.inbox(t, u1.UID))
}

func TestSendMessage_PreviewTruncated(t *testing.T) {
	env := newTestEnv(t)
	u1Ctx, _ := env.signUp(t)
	_, u2 := env.signUp(t)

	id, err := env.messaging.GetOrCreateConversation(u1Ctx, u2.UID)
	require.NoError(t, err)

	text := strings.Repeat("é", 90)
	_, err = env.messaging.SendMessage(u1Ctx, id, text)
	require.NoError(t, err)

	inbox := env.inbox(t, u2.UID)
	require.Len(t, inbox, 1)
	assert.Equal(t, 63, utf8.RuneCountInString(inbox[0].Preview))
	assert.True(t, strings.HasSuffix(inbox[0].Preview, "..."))
	assert.Equal(t, strings.Repeat("é", 60), strings.TrimSuffix(inbox[0].Preview, "..."))

	conv, err := env.conversations.GetConversation(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, text, conv.LastMessage)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "", Preview(""))
	assert.Equal(t, strings.Repeat("a", 60), Preview(strings.Repeat("a", 60)))
	assert.Equal(t, strings.Repeat("a", 60)+"...", Preview(strings.Repeat("a", 61)))
}

func TestSendMessage_Rejections(t *testing.T) {
	env := newTestEnv(t)
	u1Ctx, _ := env.signUp(t)
	_, u2 := env.signUp(t)
	strangerCtx, _ := env.signUp(t)

	id, err := env.messaging.GetOrCreateConversation(u1Ctx, u2.UID)
	require.NoError(t, err)

	_, err = env.messaging.SendMessage(u1Ctx, id, "   ")
	require.ErrorIs(t, err, ErrBlankText)

	_, err = env.messaging.SendMessage(strangerCtx, id, "hi")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = env.messaging.SendMessage(u1Ctx, "no__such", "hi")
	require.ErrorIs(t, err, ErrConversationNotFound)

	assert.Empty(t, env.inbox(t, u2.UID))
}

func TestMarkRead(t *testing.T) {
	env := newTestEnv(t)
	u1Ctx, _ := env.signUp(t)
	u2Ctx, u2 := env.signUp(t)

	id, err := env.messaging.GetOrCreateConversation(u1Ctx, u2.UID)
	require.NoError(t, err)
	_, err = env.messaging.SendMessage(u1Ctx, id, "ping")
	require.NoError(t, err)

	env.failWrites(repositories.ConversationPath(id))
	env.messaging.MarkRead(u2Ctx, id)

	conv, err := env.conversations.GetConversation(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, conv.IsUnreadBy(u2.UID))

	env.store.InjectFault(nil)
	env.messaging.MarkRead(u2Ctx, id)

	conv, err = env.conversations.GetConversation(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, conv.IsUnreadBy(u2.UID))
}

func TestWatchConversationsAndMessages(t *testing.T) {
	env := newTestEnv(t)
	u1Ctx, u1 := env.signUp(t)
	_, u2 := env.signUp(t)
	_, u3 := env.signUp(t)

	first, err := env.messaging.GetOrCreateConversation(u1Ctx, u2.UID)
	require.NoError(t, err)
	second, err := env.messaging.GetOrCreateConversation(u1Ctx, u3.UID)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(u1Ctx)
	defer cancel()

	convs, err := env.messaging.WatchConversations(ctx)
	require.NoError(t, err)
	got := receive(t, convs)
	require.Len(t, got, 2)
	assert.Equal(t, second, got[0].ID)

	_, err = env.messaging.SendMessage(u1Ctx, first, "one")
	require.NoError(t, err)
	_, err = env.messaging.SendMessage(u1Ctx, first, "two")
	require.NoError(t, err)

	receiveUntil(t, convs, func(list []models.Conversation) bool {
		return len(list) == 2 && list[0].ID == first && list[0].LastMessage == "two"
	})

	messages, err := env.messaging.WatchMessages(ctx, first)
	require.NoError(t, err)
	list := receive(t, messages)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].Text)
	assert.Equal(t, "two", list[1].Text)
	assert.Equal(t, u1.UID, list[0].SenderID)
}

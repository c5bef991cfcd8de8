package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
	"github.com/samber/lo"
)

const conversationSeparator = "__"

// ConversationID is the id of the one conversation between a and b. It does
// not depend on argument order.
func ConversationID(a, b string) string {
	ids := []string{a, b}
	slices.Sort(ids)
	return strings.Join(ids, conversationSeparator)
}

// MessagingService handles two-party conversations
type MessagingService struct {
	users         repositories.UserRepository
	conversations repositories.ConversationRepository
	notifier      *NotificationService
}

func NewMessagingService(users repositories.UserRepository, conversations repositories.ConversationRepository, notifier *NotificationService) *MessagingService {
	return &MessagingService{users: users, conversations: conversations, notifier: notifier}
}

// GetOrCreateConversation returns the id of the conversation between the
// caller and other, creating it first if needed. A new conversation copies
// both participants' current names and colors.
func (s *MessagingService) GetOrCreateConversation(ctx context.Context, other string) (string, error) {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return "", ErrUnauthenticated
	}
	if other == "" || other == p.UID {
		return "", ErrInvalidTarget
	}

	id := ConversationID(p.UID, other)
	_, err := s.conversations.GetConversation(ctx, id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("failed to load conversation: %w", err)
	}

	me, err := s.participant(ctx, p.UID)
	if err != nil {
		return "", err
	}
	them, err := s.participant(ctx, other)
	if err != nil {
		return "", err
	}

	err = s.conversations.CreateConversation(ctx, &models.Conversation{
		ID:             id,
		ParticipantIDs: []string{p.UID, other},
		ParticipantNames: map[string]string{
			p.UID: me.name,
			other: them.name,
		},
		ParticipantColors: map[string]string{
			p.UID: me.color,
			other: them.color,
		},
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// SendMessage appends a message, refreshes the conversation preview, marks
// the other participant unread and notifies them. The writes are not rolled
// back if a later one fails.
func (s *MessagingService) SendMessage(ctx context.Context, conversationID, text string) (string, error) {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return "", ErrUnauthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrBlankText
	}

	conv, err := s.getConversation(ctx, conversationID, p.UID)
	if err != nil {
		return "", err
	}
	other := conv.Other(p.UID)

	messageID, err := s.conversations.AppendMessage(ctx, &models.Message{
		ConversationID: conversationID,
		SenderID:       p.UID,
		Text:           text,
	})
	if err != nil {
		return "", err
	}

	if err := s.conversations.UpdatePreview(ctx, conversationID, text, p.UID, other); err != nil {
		return messageID, err
	}

	// The inbox shows the sender under the name the conversation shows.
	actorName, _ := lo.Coalesce(conv.ParticipantNames[p.UID], p.Name())
	s.notifier.Notify(ctx, other, models.Notification{
		ID:             MessageNotificationID(conversationID, messageID),
		Type:           models.NotificationMessage,
		ActorID:        p.UID,
		ActorName:      actorName,
		ConversationID: conversationID,
		Preview:        Preview(text),
	})
	return messageID, nil
}

// MarkRead clears the caller's unread marker. It is best effort.
func (s *MessagingService) MarkRead(ctx context.Context, conversationID string) {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return
	}
	swallow(ctx, "mark_conversation_read", s.conversations.MarkRead(ctx, conversationID, p.UID),
		"uid", p.UID, "conversation", conversationID)
}

// WatchConversations streams the caller's conversations, most recent first
func (s *MessagingService) WatchConversations(ctx context.Context) (<-chan []models.Conversation, error) {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.conversations.WatchConversations(ctx, p.UID)
}

// WatchMessages streams one of the caller's conversations, oldest first
func (s *MessagingService) WatchMessages(ctx context.Context, conversationID string) (<-chan []models.Message, error) {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if _, err := s.getConversation(ctx, conversationID, p.UID); err != nil {
		return nil, err
	}
	return s.conversations.WatchMessages(ctx, conversationID)
}

func (s *MessagingService) getConversation(ctx context.Context, id, uid string) (*models.Conversation, error) {
	conv, err := s.conversations.GetConversation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	if !slices.Contains(conv.ParticipantIDs, uid) {
		return nil, ErrForbidden
	}
	return conv, nil
}

type participantInfo struct {
	name  string
	color string
}

func (s *MessagingService) participant(ctx context.Context, uid string) (participantInfo, error) {
	info := participantInfo{name: "Unknown", color: models.DefaultAvatarColor}

	user, err := s.users.GetUser(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("failed to load participant %s: %w", uid, err)
	}

	switch {
	case user.DisplayName != "":
		info.name = user.DisplayName
	case user.Email != "":
		info.name = user.Email
	}
	if user.AvatarColor != "" {
		info.color = user.AvatarColor
	}
	return info, nil
}

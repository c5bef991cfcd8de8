package services

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/samber/lo"
)

const (
	previewLength = 60
	previewSuffix = "..."
)

// Notification ids are deterministic so a retried fan-out overwrites the
// record it already wrote.
func CommentNotificationID(postID, commentID string) string {
	return fmt.Sprintf("comment_%s_%s", postID, commentID)
}

func LikeNotificationID(postID, actorID string) string {
	return fmt.Sprintf("like_%s_%s", postID, actorID)
}

func FollowNotificationID(actorID string) string {
	return fmt.Sprintf("follow_%s", actorID)
}

func MessageNotificationID(conversationID, messageID string) string {
	return fmt.Sprintf("message_%s_%s", conversationID, messageID)
}

// Preview cuts text to 60 runes and marks the cut with an ellipsis.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + previewSuffix
}

// UnreadNotificationCount counts unread notifications. Message notifications
// for the conversation open in the chat popup are not counted.
func UnreadNotificationCount(list []models.Notification, open *OpenChat) int {
	return lo.CountBy(list, func(n models.Notification) bool {
		if n.Read {
			return false
		}
		if open != nil && n.Type == models.NotificationMessage && n.ConversationID == open.ConversationID {
			return false
		}
		return true
	})
}

// NotificationService fans notifications out to recipients and serves the
// caller's inbox
type NotificationService struct {
	notifications repositories.NotificationRepository
}

func NewNotificationService(notifications repositories.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// Notify writes n to recipient's inbox. Failures are swallowed.
func (s *NotificationService) Notify(ctx context.Context, recipient string, n models.Notification) {
	if recipient == "" {
		return
	}
	if err := s.notifications.CreateNotification(ctx, recipient, &n); err != nil {
		swallow(ctx, "notify", err, "recipient", recipient, "type", n.Type)
		return
	}
	notificationsWritten.WithLabelValues(string(n.Type)).Inc()
}

func (s *NotificationService) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.notifications.GetNotifications(ctx, p.UID)
}

// WatchNotifications streams the caller's inbox, newest first
func (s *NotificationService) WatchNotifications(ctx context.Context) (<-chan []models.Notification, error) {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.notifications.WatchNotifications(ctx, p.UID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	p := session.FromContext(ctx)
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	return s.notifications.MarkAsRead(ctx, p.UID, id)
}

// MarkAllRead marks every unread notification read, one write each. A
// failed item does not stop the others.
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	list, err := s.ListNotifications(ctx)
	if err != nil {
		return err
	}

	uid := session.FromContext(ctx).UID
	for _, n := range list {
		if n.Read {
			continue
		}
		swallow(ctx, "mark_notification_read", s.notifications.MarkAsRead(ctx, uid, n.ID), "uid", uid, "notification", n.ID)
	}
	return nil
}

package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, recipient string, n *models.Notification) error
	MarkAsRead(ctx context.Context, recipient, id string) error
	GetNotifications(ctx context.Context, recipient string) ([]models.Notification, error)
	WatchNotifications(ctx context.Context, recipient string) (<-chan []models.Notification, error)
}

// StoreNotificationRepository implements NotificationRepository on a document store
type StoreNotificationRepository struct {
	store store.Store
}

// NewStoreNotificationRepository creates a new StoreNotificationRepository
func NewStoreNotificationRepository(s store.Store) *StoreNotificationRepository {
	return &StoreNotificationRepository{store: s}
}

// CreateNotification writes n into the recipient's inbox. A non-empty n.ID is
// used as the document key, so repeated writes collapse to one record.
func (r *StoreNotificationRepository) CreateNotification(ctx context.Context, recipient string, n *models.Notification) error {
	fields := store.Fields{
		"type":      string(n.Type),
		"actorId":   n.ActorID,
		"actorName": n.ActorName,
		"read":      false,
		"createdAt": store.ServerTimestamp,
	}
	if n.PostID != "" {
		fields["postId"] = n.PostID
	}
	if n.CommentID != "" {
		fields["commentId"] = n.CommentID
	}
	if n.ConversationID != "" {
		fields["conversationId"] = n.ConversationID
	}
	if n.Preview != "" {
		fields["preview"] = n.Preview
	}

	if n.ID == "" {
		id, err := r.store.Append(ctx, NotificationsCollection(recipient), fields)
		if err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
		n.ID = id
		return nil
	}

	if err := r.store.Set(ctx, store.Join(NotificationsCollection(recipient), n.ID), fields); err != nil {
		return fmt.Errorf("failed to create notification %s: %w", n.ID, err)
	}
	return nil
}

// MarkAsRead flips the read flag of a single notification
func (r *StoreNotificationRepository) MarkAsRead(ctx context.Context, recipient, id string) error {
	return r.store.Update(ctx, store.Join(NotificationsCollection(recipient), id), store.Fields{"read": true})
}

func (r *StoreNotificationRepository) GetNotifications(ctx context.Context, recipient string) ([]models.Notification, error) {
	return fetch(ctx, r.store, notificationsQuery(recipient), notificationFromDoc)
}

// WatchNotifications streams the inbox, newest first
func (r *StoreNotificationRepository) WatchNotifications(ctx context.Context, recipient string) (<-chan []models.Notification, error) {
	return watch(ctx, r.store, notificationsQuery(recipient), notificationFromDoc)
}

func notificationsQuery(recipient string) store.Query {
	return store.Collection(NotificationsCollection(recipient)).OrderBy("createdAt", store.Desc)
}

func notificationFromDoc(doc store.Doc) models.Notification {
	return models.Notification{
		ID:             doc.ID,
		Type:           models.NotificationType(doc.String("type")),
		ActorID:        doc.String("actorId"),
		ActorName:      doc.String("actorName"),
		PostID:         doc.String("postId"),
		CommentID:      doc.String("commentId"),
		ConversationID: doc.String("conversationId"),
		Preview:        doc.String("preview"),
		Read:           doc.Bool("read"),
		CreatedAt:      doc.Time("createdAt"),
	}
}

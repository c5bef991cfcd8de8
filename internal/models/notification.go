package models

import "time"

type NotificationType string

const (
	NotificationFollow  NotificationType = "follow"
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationMessage NotificationType = "message"
)

// Notification is a per-recipient record at users/{uid}/notifications/{id}
type Notification struct {
	ID             string           `json:"id"`
	Type           NotificationType `json:"type"`
	ActorID        string           `json:"actorId"`
	ActorName      string           `json:"actorName,omitempty"`
	PostID         string           `json:"postId,omitempty"`
	CommentID      string           `json:"commentId,omitempty"`
	ConversationID string           `json:"conversationId,omitempty"`
	Preview        string           `json:"preview,omitempty"`
	Read           bool             `json:"read"`
	CreatedAt      time.Time        `json:"createdAt"`
}

package models

import (
	"slices"
	"time"
)

// Conversation is the two-party thread header stored at conversations/{id}.
// Names and colors are snapshots taken when the conversation was created.
type Conversation struct {
	ID                  string            `json:"id"`
	ParticipantIDs      []string          `json:"participantIds"`
	ParticipantNames    map[string]string `json:"participantNames"`
	ParticipantColors   map[string]string `json:"participantColors"`
	LastMessage         string            `json:"lastMessage"`
	LastMessageAt       time.Time         `json:"lastMessageAt"`
	LastMessageSenderID string            `json:"lastMessageSenderId,omitempty"`
	UnreadBy            []string          `json:"unreadBy,omitempty"`
}

// Other returns the participant that is not uid, or "" if there is none
func (c *Conversation) Other(uid string) string {
	for _, id := range c.ParticipantIDs {
		if id != uid {
			return id
		}
	}
	return ""
}

func (c *Conversation) IsUnreadBy(uid string) bool {
	return slices.Contains(c.UnreadBy, uid)
}

// Message is an immutable entry at conversations/{id}/messages/{messageId}
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SendMessageRequest defines the request body for sending a message
type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// StartConversationRequest defines the request body for opening a conversation
type StartConversationRequest struct {
	UID string `json:"uid" validate:"required"`
}

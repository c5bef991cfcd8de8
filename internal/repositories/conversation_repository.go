package repositories

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/store"
)

// ConversationRepository defines the interface for conversations and their messages
type ConversationRepository interface {
	CreateConversation(ctx context.Context, c *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	UpdatePreview(ctx context.Context, id, text, senderID, unreadUID string) error
	MarkRead(ctx context.Context, id, uid string) error
	AppendMessage(ctx context.Context, m *models.Message) (string, error)
	WatchConversations(ctx context.Context, uid string) (<-chan []models.Conversation, error)
	WatchMessages(ctx context.Context, id string) (<-chan []models.Message, error)
}

// StoreConversationRepository implements ConversationRepository on a document store
type StoreConversationRepository struct {
	store store.Store
}

// NewStoreConversationRepository creates a new StoreConversationRepository
func NewStoreConversationRepository(s store.Store) *StoreConversationRepository {
	return &StoreConversationRepository{store: s}
}

// CreateConversation writes the conversation header with an empty preview
func (r *StoreConversationRepository) CreateConversation(ctx context.Context, c *models.Conversation) error {
	err := r.store.Set(ctx, ConversationPath(c.ID), store.Fields{
		"participantIds":    c.ParticipantIDs,
		"participantNames":  c.ParticipantNames,
		"participantColors": c.ParticipantColors,
		"lastMessage":       "",
		"lastMessageAt":     store.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to create conversation %s: %w", c.ID, err)
	}
	return nil
}

// GetConversation retrieves a conversation. Missing ones return store.ErrNotFound.
func (r *StoreConversationRepository) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	doc, err := r.store.Get(ctx, ConversationPath(id))
	if err != nil {
		return nil, err
	}
	c := conversationFromDoc(*doc)
	return &c, nil
}

// UpdatePreview denormalizes the latest message into the header and marks
// unreadUID as having unseen activity
func (r *StoreConversationRepository) UpdatePreview(ctx context.Context, id, text, senderID, unreadUID string) error {
	fields := store.Fields{
		"lastMessage":         text,
		"lastMessageAt":       store.ServerTimestamp,
		"lastMessageSenderId": senderID,
	}
	if unreadUID != "" {
		fields["unreadBy"] = store.ArrayUnion{unreadUID}
	}
	if err := r.store.Update(ctx, ConversationPath(id), fields); err != nil {
		return fmt.Errorf("failed to update conversation %s: %w", id, err)
	}
	return nil
}

// MarkRead removes uid from the unread set
func (r *StoreConversationRepository) MarkRead(ctx context.Context, id, uid string) error {
	return r.store.Update(ctx, ConversationPath(id), store.Fields{"unreadBy": store.ArrayRemove{uid}})
}

// AppendMessage writes an immutable message and returns the generated id
func (r *StoreConversationRepository) AppendMessage(ctx context.Context, m *models.Message) (string, error) {
	id, err := r.store.Append(ctx, MessagesCollection(m.ConversationID), store.Fields{
		"senderId":  m.SenderID,
		"text":      m.Text,
		"createdAt": store.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("failed to append message: %w", err)
	}
	return id, nil
}

// WatchConversations streams the conversations uid takes part in, most recent activity first
func (r *StoreConversationRepository) WatchConversations(ctx context.Context, uid string) (<-chan []models.Conversation, error) {
	q := store.Collection(conversationsCollection).
		Where("participantIds", store.OpArrayContains, uid).
		OrderBy("lastMessageAt", store.Desc)
	return watch(ctx, r.store, q, conversationFromDoc)
}

// WatchMessages streams one conversation's messages, oldest first
func (r *StoreConversationRepository) WatchMessages(ctx context.Context, id string) (<-chan []models.Message, error) {
	q := store.Collection(MessagesCollection(id)).OrderBy("createdAt", store.Asc)
	return watch(ctx, r.store, q, func(doc store.Doc) models.Message {
		return models.Message{
			ID:             doc.ID,
			ConversationID: id,
			SenderID:       doc.String("senderId"),
			Text:           doc.String("text"),
			CreatedAt:      doc.Time("createdAt"),
		}
	})
}

func conversationFromDoc(doc store.Doc) models.Conversation {
	return models.Conversation{
		ID:                  doc.ID,
		ParticipantIDs:      doc.Strings("participantIds"),
		ParticipantNames:    doc.StringMap("participantNames"),
		ParticipantColors:   doc.StringMap("participantColors"),
		LastMessage:         doc.String("lastMessage"),
		LastMessageAt:       doc.Time("lastMessageAt"),
		LastMessageSenderID: doc.String("lastMessageSenderId"),
		UnreadBy:            doc.Strings("unreadBy"),
	}
}

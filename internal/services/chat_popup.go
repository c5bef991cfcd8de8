package services

import (
	"context"
	"sync"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/pkg/async"
)

// OpenChat identifies the conversation shown in the chat popup.
type OpenChat struct {
	ConversationID string `json:"conversationId"`
	Name           string `json:"name"`
	Color          string `json:"color"`
}

// ChatPopup owns the open/closed state of one client's chat popup. The same
// instance is handed to the notification counter so it can hide message
// notifications for the open conversation.
type ChatPopup struct {
	messaging *MessagingService

	mu     sync.Mutex
	cancel context.CancelFunc
	state  *async.Value[*OpenChat]
}

func NewChatPopup(messaging *MessagingService) *ChatPopup {
	return &ChatPopup{messaging: messaging, state: async.NewValue[*OpenChat](nil)}
}

// Open shows chat and returns its message stream. The stream of the
// previously open conversation is closed first.
func (c *ChatPopup) Open(ctx context.Context, chat OpenChat) (<-chan []models.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardown()

	subCtx, cancel := context.WithCancel(ctx)
	messages, err := c.messaging.WatchMessages(subCtx, chat.ConversationID)
	if err != nil {
		cancel()
		c.state.Store(nil)
		return nil, err
	}
	c.cancel = cancel
	c.state.Store(&chat)

	c.messaging.MarkRead(ctx, chat.ConversationID)
	return messages, nil
}

func (c *ChatPopup) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardown()
	c.state.Store(nil)
}

// Current returns the open conversation, or nil when the popup is closed
func (c *ChatPopup) Current() *OpenChat {
	return c.state.Load()
}

// Changes streams the open conversation; nil means closed
func (c *ChatPopup) Changes(ctx context.Context) <-chan *OpenChat {
	return c.state.Subscribe(ctx)
}

func (c *ChatPopup) teardown() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

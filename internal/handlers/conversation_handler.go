package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/services"
	"github.com/labstack/echo/v4"
)

// ConversationHandler handles HTTP requests related to direct messages
type ConversationHandler struct {
	messaging *services.MessagingService
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(messaging *services.MessagingService) *ConversationHandler {
	return &ConversationHandler{messaging: messaging}
}

// RegisterConversationRoutes registers messaging routes
func (h *ConversationHandler) RegisterConversationRoutes(g *echo.Group) {
	g.POST("/conversations", h.StartConversation)
	g.GET("/conversations", h.GetConversations)
	g.GET("/conversations/:id/messages", h.GetMessages)
	g.POST("/conversations/:id/messages", h.SendMessage)
	g.PUT("/conversations/:id/read", h.MarkAsRead)
}

// StartConversation returns the id of the conversation with another user,
// creating it on first contact
func (h *ConversationHandler) StartConversation(c echo.Context) error {
	var req models.StartConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	id, err := h.messaging.GetOrCreateConversation(c.Request().Context(), req.UID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}

// GetConversations returns the caller's conversations, most recent first
func (h *ConversationHandler) GetConversations(c echo.Context) error {
	conversations, err := snapshot(c, h.messaging.WatchConversations)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, conversations)
}

func (h *ConversationHandler) GetMessages(c echo.Context) error {
	id := c.Param("id")
	messages, err := snapshot(c, func(ctx context.Context) (<-chan []models.Message, error) {
		return h.messaging.WatchMessages(ctx, id)
	})
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, messages)
}

func (h *ConversationHandler) SendMessage(c echo.Context) error {
	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	id, err := h.messaging.SendMessage(c.Request().Context(), c.Param("id"), req.Text)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// MarkAsRead clears the caller's unread marker on a conversation
func (h *ConversationHandler) MarkAsRead(c echo.Context) error {
	h.messaging.MarkRead(c.Request().Context(), c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

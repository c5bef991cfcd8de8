package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/services"
	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles HTTP requests related to the home feed
type FeedHandler struct {
	feed *services.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns the posts of everyone the caller follows plus their own,
// newest first
func (h *FeedHandler) GetFeed(c echo.Context) error {
	p := session.FromContext(c.Request().Context())
	if !p.Authenticated() {
		return httpError(c, services.ErrUnauthenticated)
	}

	feed, err := snapshot(c, func(ctx context.Context) (<-chan []models.Post, error) {
		return h.feed.WatchFeed(ctx, p.UID)
	})
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, feed)
}

package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/anonto42/nano-midea/socialsync/internal/services"
	"github.com/labstack/echo/v4"
)

// SearchHandler answers one-shot searches. Live clients search over the
// websocket instead.
type SearchHandler struct {
	users        repositories.UserRepository
	interactions *services.InteractionService
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(users repositories.UserRepository, interactions *services.InteractionService) *SearchHandler {
	return &SearchHandler{users: users, interactions: interactions}
}

func (h *SearchHandler) RegisterSearchRoutes(g *echo.Group) {
	g.GET("/search", h.Search)
}

// Search matches ?q= against users and recent posts
func (h *SearchHandler) Search(c echo.Context) error {
	users, err := h.users.ListUsers(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	posts, err := snapshot(c, h.interactions.WatchPosts)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, services.Search(users, posts, c.QueryParam("q")))
}

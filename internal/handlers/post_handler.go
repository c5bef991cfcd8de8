package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	interactions *services.InteractionService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(interactions *services.InteractionService) *PostHandler {
	return &PostHandler{interactions: interactions}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.GetRecentPosts)
	g.GET("/posts/:id", h.GetPost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post by the caller
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	id, err := h.interactions.CreatePost(c.Request().Context(), req.Text)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// GetRecentPosts returns the most recent posts of everyone
func (h *PostHandler) GetRecentPosts(c echo.Context) error {
	posts, err := snapshot(c, h.interactions.WatchPosts)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.interactions.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post authored by the caller
func (h *PostHandler) DeletePost(c echo.Context) error {
	if err := h.interactions.DeletePost(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

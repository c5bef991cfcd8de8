package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialsync/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	interactions *services.InteractionService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(interactions *services.InteractionService) *LikeHandler {
	return &LikeHandler{interactions: interactions}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.ToggleLike)
	g.GET("/posts/:id/like", h.GetLikeStatus)
}

// ToggleLike likes the post if the caller has not liked it yet and unlikes
// it otherwise
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	liked, err := h.interactions.ToggleLike(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"liked": liked})
}

func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	liked, err := h.interactions.HasLiked(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"liked": liked})
}

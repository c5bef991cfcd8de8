package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialsync/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles HTTP requests related to the follow graph
type FollowHandler struct {
	graph *services.FollowGraph
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(graph *services.FollowGraph) *FollowHandler {
	return &FollowHandler{graph: graph}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/follow", h.GetFollowStatus)
}

// FollowUser makes the caller follow the user in the path
func (h *FollowHandler) FollowUser(c echo.Context) error {
	if err := h.graph.Follow(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"following": true})
}

// UnfollowUser removes the caller's follow of the user in the path
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	if err := h.graph.Unfollow(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"following": false})
}

func (h *FollowHandler) GetFollowStatus(c echo.Context) error {
	following, err := h.graph.IsFollowing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"following": following})
}

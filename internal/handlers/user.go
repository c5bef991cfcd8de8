package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/services"
	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

// UserHandler handles HTTP requests related to profiles
type UserHandler struct {
	identity *services.IdentityService
	graph    *services.FollowGraph
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(identity *services.IdentityService, graph *services.FollowGraph) *UserHandler {
	return &UserHandler{identity: identity, graph: graph}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.POST("/profile/ensure", h.EnsureProfile) // Bootstrap own profile
	g.GET("/profile", h.GetProfile)            // Get own profile
	g.PUT("/profile", h.UpdateProfile)         // Update own profile
	g.GET("/users", h.ListUsers)               // User directory
	g.GET("/users/:id", h.GetUser)             // Get other user's profile by ID
}

// EnsureProfile creates the caller's profile on first sign-in
func (h *UserHandler) EnsureProfile(c echo.Context) error {
	complete, err := h.identity.EnsureUserProfile(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"profileComplete": complete})
}

// GetProfile retrieves the authenticated user's own profile, email included
func (h *UserHandler) GetProfile(c echo.Context) error {
	p := session.FromContext(c.Request().Context())

	user, err := h.identity.GetProfile(c.Request().Context(), p.UID)
	if err != nil {
		return httpError(c, err)
	}
	user.Email = p.Email
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.identity.GetProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile saves the edit-profile form
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	if err := h.identity.UpdateProfile(c.Request().Context(), req); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully"})
}

// ListUsers returns every profile except the caller's
func (h *UserHandler) ListUsers(c echo.Context) error {
	me := session.FromContext(c.Request().Context()).UID

	users, err := snapshot(c, h.graph.WatchUsers)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, lo.Filter(users, func(u models.User, _ int) bool {
		return u.UID != me
	}))
}

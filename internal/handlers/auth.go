package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/nano-midea/socialsync/internal/middleware"
	"github.com/anonto42/nano-midea/socialsync/internal/services"
	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/labstack/echo/v4"
)

// AuthHandler exchanges provider identities for local session tokens
type AuthHandler struct {
	identity  *services.IdentityService
	verifier  middleware.IDTokenVerifier
	jwtSecret string
	devLogin  bool
}

// NewAuthHandler creates a new AuthHandler. verifier may be nil when Firebase
// is not configured; devLogin enables the unauthenticated development login.
func NewAuthHandler(identity *services.IdentityService, verifier middleware.IDTokenVerifier, jwtSecret string, devLogin bool) *AuthHandler {
	return &AuthHandler{
		identity:  identity,
		verifier:  verifier,
		jwtSecret: jwtSecret,
		devLogin:  devLogin,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/firebase-login", h.FirebaseLogin)
	if h.devLogin {
		g.POST("/dev-login", h.DevLogin)
	}
	// Unknown auth paths must not fall through to the protected /api/v1 catch-all.
	g.RouteNotFound("/*", echo.NotFoundHandler)
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// DevLoginRequest defines the request body for development logins
type DevLoginRequest struct {
	UID         string `json:"uid" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	DisplayName string `json:"displayName"`
}

// LoginResponse carries the session token and whether onboarding is done
type LoginResponse struct {
	Token           string `json:"token"`
	ProfileComplete bool   `json:"profileComplete"`
}

// FirebaseLogin verifies a Firebase ID token, bootstraps the profile and
// issues a local session token
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.verifier == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	token, err := h.verifier.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	return h.login(c, middleware.PrincipalFromToken(token))
}

// DevLogin issues a session token for an arbitrary identity
func (h *AuthHandler) DevLogin(c echo.Context) error {
	var req DevLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	return h.login(c, session.Principal{UID: req.UID, Email: req.Email, DisplayName: req.DisplayName})
}

func (h *AuthHandler) login(c echo.Context, p session.Principal) error {
	ctx := session.WithPrincipal(c.Request().Context(), p)

	complete, err := h.identity.EnsureUserProfile(ctx)
	if err != nil {
		return httpError(c, err)
	}

	token, err := middleware.IssueSessionToken(h.jwtSecret, p, time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, LoginResponse{Token: token, ProfileComplete: complete})
}

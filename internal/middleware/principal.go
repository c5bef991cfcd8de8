package middleware

import (
	"net/http"
	"strings"

	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/labstack/echo/v4"
)

// bearerToken reads the token from the Authorization header. Browsers cannot
// set headers on websocket upgrades, so a token query parameter is accepted
// as a fallback.
func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if token := c.QueryParam("token"); token != "" {
			return token, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], nil
}

// authenticate stores p on the request context where the services look for it
func authenticate(c echo.Context, p session.Principal) {
	c.SetRequest(c.Request().WithContext(session.WithPrincipal(c.Request().Context(), p)))
	c.Set("uid", p.UID)
}

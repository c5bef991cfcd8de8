package middleware

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialsync/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

// RequireAdmin lets through only principals whose uid is listed in uids.
// It must run after one of the authentication middlewares.
func RequireAdmin(uids []string) echo.MiddlewareFunc {
	admins := lo.SliceToMap(uids, func(uid string) (string, struct{}) {
		return uid, struct{}{}
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := session.FromContext(c.Request().Context())
			if !p.Authenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}
			if _, ok := admins[p.UID]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			return next(c)
		}
	}
}

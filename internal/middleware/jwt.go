package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-platform/internal/apperr"
	"github.com/iliyamo/admin-platform/internal/logging"
	"github.com/iliyamo/admin-platform/internal/model"
)

// Authenticator turns a raw bearer token into a live, active account.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*model.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
// The scheme is matched case-insensitively; anything else yields "".
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get(echo.HeaderAuthorization))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Guard rejects requests without a valid access token.  On success the
// freshly loaded account, not the token claims, is attached to the request.
func Guard(auth Authenticator, log logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			u, err := auth.Authenticate(ctx, BearerToken(c.Request()))
			if err != nil {
				code, msg := apperr.Status(err)
				if code == http.StatusUnauthorized {
					log.Info(ctx, "request unauthenticated", "path", c.Path(), "reason", msg)
				} else {
					log.Error(ctx, "authentication failed", "path", c.Path(), "error", err)
				}
				return fail(c, err)
			}
			SetUser(c, u)
			return next(c)
		}
	}
}

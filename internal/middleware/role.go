package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-platform/internal/apperr"
	"github.com/iliyamo/admin-platform/internal/authz"
)

// Gate messages.
const (
	msgUnauthorized = "Unauthorized"
	msgForbidden    = "Insufficient permissions"
)

// RequireRoles admits only identities whose role is in roles.  It must run
// after Guard: a request without a verified identity is a 401, a verified
// identity with the wrong role is a 403.
func RequireRoles(roles authz.RoleSet) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := CurrentIdentity(c)
			if !ok {
				return fail(c, apperr.Unauthorized(msgUnauthorized))
			}
			if !authz.Authorize(id, roles) {
				return fail(c, apperr.Forbidden(msgForbidden))
			}
			return next(c)
		}
	}
}

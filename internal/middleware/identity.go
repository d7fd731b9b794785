package middleware

// identity.go holds the request-scoped identity helpers shared by the guard,
// the role gate and the request logger.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-platform/internal/model"
)

const userKey = "auth_user"

// SetUser attaches the verified account to the request.
func SetUser(c echo.Context, u *model.User) { c.Set(userKey, u) }

// CurrentUser returns the account attached by the guard, or nil.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userKey).(*model.User)
	return u
}

// CurrentIdentity returns the identity of the verified account.
func CurrentIdentity(c echo.Context) (model.Identity, bool) {
	u := CurrentUser(c)
	if u == nil {
		return model.Identity{}, false
	}
	return u.Identity(), true
}

// userID returns the authenticated account id, or "guest".
func userID(c echo.Context) string {
	if u := CurrentUser(c); u != nil && u.ID != "" {
		return u.ID
	}
	return "guest"
}

// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-platform/internal/handler"
	"github.com/iliyamo/admin-platform/internal/metrics"
)

// APIPrefix is where every versioned route lives.
const APIPrefix = "/api/v1"

// RegisterRoutes registers the unauthenticated operational endpoints:
// the health probe and, when m is set, the prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health(db))
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// AuthLimits holds one endpoint rate limiter per brute-force target.
type AuthLimits struct {
	Login          echo.MiddlewareFunc
	Refresh        echo.MiddlewareFunc
	ForgotPassword echo.MiddlewareFunc
}

// RegisterAuth registers the auth routes under /api/v1/auth.  Login,
// refresh and forgot-password carry their rate limiter; validate and me
// require a valid access token.  Logout deliberately does not: it must
// succeed even for a client whose access token already expired.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, guard echo.MiddlewareFunc, limits AuthLimits) {
	g := e.Group(APIPrefix + "/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login, orPass(limits.Login))
	g.POST("/refresh", a.Refresh, orPass(limits.Refresh))
	// No guard: a client whose access token expired must still be able to
	// revoke its refresh token.  The handler revokes whatever it is given.
	g.POST("/logout", a.Logout)
	g.POST("/forgot-password", a.ForgotPassword, orPass(limits.ForgotPassword))
	g.POST("/validate", a.Validate, guard)

	e.GET(APIPrefix+"/me", a.Me, guard)
}

func orPass(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return mw
}


package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-platform/internal/authz"
	"github.com/iliyamo/admin-platform/internal/handler"
	"github.com/iliyamo/admin-platform/internal/middleware"
)

// RegisterUsers registers account administration under /api/v1/users.
// Every route requires a valid access token and an admin or super admin
// role; creating admins is reserved to super admins.
func RegisterUsers(e *echo.Echo, u *handler.UsersHandler, guard echo.MiddlewareFunc) {
	g := e.Group(APIPrefix+"/users", guard, middleware.RequireRoles(authz.Admins))

	g.GET("", u.List)
	g.POST("", u.Create)
	g.POST("/admin", u.CreateAdmin, middleware.RequireRoles(authz.SuperAdmins))
	g.POST("/:id/activate", u.Activate)
	g.POST("/:id/suspend", u.Suspend)
}

package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-platform/internal/apperr"
)

// fail writes err as {"error": msg} with the status apperr assigns it.
func fail(c echo.Context, err error) error {
	code, msg := apperr.Status(err)
	return c.JSON(code, echo.Map{"error": msg})
}

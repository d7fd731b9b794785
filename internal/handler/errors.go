package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-platform/internal/apperr"
	"github.com/iliyamo/admin-platform/internal/logging"
)

const msgInvalidBody = "Invalid request body"

// fail writes err as {"error": msg}.  Unclassified errors are logged and
// reported as a bare 500.
func fail(c echo.Context, log logging.Logger, err error) error {
	code, msg := apperr.Status(err)
	if code >= http.StatusInternalServerError {
		log.Error(c.Request().Context(), "request failed", "path", c.Path(), "error", err)
	}
	return c.JSON(code, echo.Map{"error": msg})
}

// HTTPErrorHandler renders errors that escape handlers (unknown routes,
// body limit, panics recovered by echo) in the same {"error": msg} shape.
func HTTPErrorHandler(log logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			} else if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
			if he.Code >= http.StatusInternalServerError {
				log.Error(c.Request().Context(), "request failed", "path", c.Path(), "error", err)
				msg = apperr.InternalMessage
			}
			writeError(c, he.Code, msg)
			return
		}
		_ = fail(c, log, err)
	}
}

func writeError(c echo.Context, code int, msg string) {
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": msg})
}

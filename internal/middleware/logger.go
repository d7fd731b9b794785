package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-platform/internal/logging"
	"github.com/iliyamo/admin-platform/internal/metrics"
)

// RequestLogger logs every request once it has been served.
func RequestLogger(log logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let echo write the error response so the status is final.
				c.Error(err)
			}
			req, res := c.Request(), c.Response()
			args := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"ip", c.RealIP(),
				"user_id", userID(c),
			}
			switch {
			case res.Status >= 500:
				log.Error(req.Context(), "request", append(args, "error", err)...)
			case res.Status >= 400:
				log.Warn(req.Context(), "request", args...)
			default:
				log.Info(req.Context(), "request", args...)
			}
			return nil
		}
	}
}

// Metrics records in-flight requests, counts and latency per route
// template.
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.InFlightInc()
			defer m.InFlightDec()
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.ObserveRequest(c.Request().Method, path, strconv.Itoa(c.Response().Status), time.Since(start).Seconds())
			return nil
		}
	}
}

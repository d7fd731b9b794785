package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/admin-platform/internal/apperr"
	"github.com/iliyamo/admin-platform/internal/config"
	"github.com/iliyamo/admin-platform/internal/logging"
	"github.com/iliyamo/admin-platform/internal/metrics"
	"github.com/iliyamo/admin-platform/internal/ratelimit"
)

// MsgTooManyAttempts is the 429 body of the endpoint limiter.
const MsgTooManyAttempts = "Too many attempts. Please try again later."

// RateLimitOptions carries the optional collaborators of RateLimit.
type RateLimitOptions struct {
	Logger  logging.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// RateLimit applies rule per (client address, request path).  A store
// failure lets the request through: the limiter dampens abuse, it is not an
// availability dependency.
func RateLimit(store ratelimit.Store, rule config.RateRule, opts RateLimitOptions) echo.MiddlewareFunc {
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			path := c.Request().URL.Path
			key := ip + ":" + path

			res, err := store.Allow(ctx, key, rule.Limit, rule.Window, opts.Now())
			if err != nil {
				opts.Logger.Warn(ctx, "rate limit store error; allowing request", "key", key, "error", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				secs := int(math.Ceil(res.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				opts.Metrics.RateLimited("endpoint", path)
				opts.Logger.Info(ctx, "rate limit exceeded", "ip", ip, "path", path, "retry_after", secs)
				return fail(c, apperr.TooManyRequests(MsgTooManyAttempts))
			}
			return next(c)
		}
	}
}

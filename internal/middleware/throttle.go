package middleware

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/iliyamo/admin-platform/internal/apperr"
	"github.com/iliyamo/admin-platform/internal/config"
	"github.com/iliyamo/admin-platform/internal/metrics"
)

const msgTooManyRequests = "Too many requests"

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipThrottle is a token bucket per client address.  Idle buckets are
// dropped at most once per TTL.
type ipThrottle struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newIPThrottle(cfg config.ThrottleConfig, now func() time.Time) *ipThrottle {
	return &ipThrottle{
		visitors:  make(map[string]*visitor),
		rps:       rate.Limit(cfg.RPS),
		burst:     cfg.Burst,
		ttl:       cfg.TTL,
		lastSweep: now(),
		now:       now,
	}
}

func (t *ipThrottle) allow(ip string) bool {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ttl > 0 && now.Sub(t.lastSweep) > t.ttl {
		for k, v := range t.visitors {
			if now.Sub(v.lastSeen) > t.ttl {
				delete(t.visitors, k)
			}
		}
		t.lastSweep = now
	}
	v, ok := t.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.rps, t.burst)}
		t.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Throttle is the coarse per-IP request rate applied to every route, in
// front of the endpoint limiter.
func Throttle(cfg config.ThrottleConfig, m *metrics.Metrics) echo.MiddlewareFunc {
	return throttleWithClock(cfg, m, time.Now)
}

func throttleWithClock(cfg config.ThrottleConfig, m *metrics.Metrics, now func() time.Time) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	t := newIPThrottle(cfg, now)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !t.allow(c.RealIP()) {
				m.RateLimited("throttle", c.Path())
				c.Response().Header().Set("Retry-After", "1")
				return fail(c, apperr.TooManyRequests(msgTooManyRequests))
			}
			return next(c)
		}
	}
}

package config

import "time"

// Backend names accepted by RATE_LIMIT_BACKEND.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// RateRule is the sliding-window limit for one endpoint: at most Limit
// requests per Window for a single client address.
type RateRule struct {
	Limit  int
	Window time.Duration
}

// RateLimitConfig configures the brute-force limiter that guards the
// credential and token endpoints.
type RateLimitConfig struct {
	Enabled          bool
	Backend          string // memory (per process) or redis (shared)
	Prefix           string // key namespace in the shared store
	Login            RateRule
	Refresh          RateRule
	ForgotPassword   RateRule
	SweepProbability float64       // chance that a request triggers a full sweep of the memory store
	SweepHorizon     time.Duration // timestamps older than this are dropped by the sweep
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  Limits below one are
// clamped so that a typo cannot silently disable a rule.
func LoadRateLimitConfig() RateLimitConfig {
	c := RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Backend: envStr("RATE_LIMIT_BACKEND", RateLimitBackendMemory),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
		Login: RateRule{
			Limit:  envInt("RATE_LIMIT_LOGIN_LIMIT", 5),
			Window: envDur("RATE_LIMIT_LOGIN_WINDOW", 15*time.Minute),
		},
		Refresh: RateRule{
			Limit:  envInt("RATE_LIMIT_REFRESH_LIMIT", 5),
			Window: envDur("RATE_LIMIT_REFRESH_WINDOW", 15*time.Minute),
		},
		ForgotPassword: RateRule{
			Limit:  envInt("RATE_LIMIT_FORGOT_PASSWORD_LIMIT", 3),
			Window: envDur("RATE_LIMIT_FORGOT_PASSWORD_WINDOW", 60*time.Minute),
		},
		SweepProbability: envFloat("RATE_LIMIT_SWEEP_PROBABILITY", 0.1),
		SweepHorizon:     envDur("RATE_LIMIT_SWEEP_HORIZON", time.Hour),
	}
	for _, r := range []*RateRule{&c.Login, &c.Refresh, &c.ForgotPassword} {
		if r.Limit < 1 {
			r.Limit = 1
		}
	}
	if c.SweepProbability < 0 || c.SweepProbability > 1 {
		c.SweepProbability = 0.1
	}
	return c
}

// ThrottleConfig is the coarse per-IP token bucket applied to every route.
type ThrottleConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
	TTL     time.Duration // idle buckets are forgotten after this long
}

// LoadThrottleConfig reads THROTTLE_* variables.
func LoadThrottleConfig() ThrottleConfig {
	c := ThrottleConfig{
		Enabled: envBool("THROTTLE_ENABLED", true),
		RPS:     envFloat("THROTTLE_RPS", 20),
		Burst:   envInt("THROTTLE_BURST", 40),
		TTL:     envDur("THROTTLE_TTL", 5*time.Minute),
	}
	if c.RPS <= 0 {
		c.RPS = 20
	}
	if c.Burst < 1 {
		c.Burst = 1
	}
	return c
}

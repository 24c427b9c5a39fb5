package api

import (
	"context"
	"sync"
	"time"

	"reservas/internal/config"
	"reservas/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimiter decides whether a client may issue another request.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// NewRateLimiter returns nil when rate limiting is disabled (rps <= 0).
// The redis backend counts requests per window through repo; the memory
// backend uses an in-process token bucket per client.
func NewRateLimiter(cfg config.APIRateLimitConfig, repo domain.RateLimitRepository, logger *zerolog.Logger) RateLimiter {
	if cfg.RPS <= 0 {
		return nil
	}
	if cfg.Backend == config.RateLimitBackendRedis && repo != nil {
		return newWindowLimiter(cfg, repo, logger)
	}
	return newTokenBucketLimiter(cfg)
}

type tokenBucketLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rps      float64
	burst    int
}

func newTokenBucketLimiter(cfg config.APIRateLimitConfig) *tokenBucketLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	return &tokenBucketLimiter{rps: cfg.RPS, burst: burst}
}

func (l *tokenBucketLimiter) Allow(_ context.Context, key string) bool {
	return l.getLimiter(key).Allow()
}

func (l *tokenBucketLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	lim := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		if actualLim, ok := actual.(*rate.Limiter); ok {
			return actualLim
		}
	}
	return lim
}

type windowLimiter struct {
	repo   domain.RateLimitRepository
	limit  int
	window time.Duration
	logger *zerolog.Logger
}

func newWindowLimiter(cfg config.APIRateLimitConfig, repo domain.RateLimitRepository, logger *zerolog.Logger) *windowLimiter {
	window := time.Duration(cfg.Window) * time.Second
	if window <= 0 {
		window = time.Second
	}
	limit := cfg.Burst
	if limit <= 0 {
		limit = int(cfg.RPS * window.Seconds())
	}
	if limit <= 0 {
		limit = 1
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &windowLimiter{repo: repo, limit: limit, window: window, logger: logger}
}

// Allow lets the request through when the counter store fails.
func (l *windowLimiter) Allow(ctx context.Context, key string) bool {
	allowed, err := l.repo.CheckRateLimit(ctx, key, l.limit, l.window)
	if err != nil {
		l.logger.Warn().Err(err).Str("client", key).Msg("rate limit check failed")
		return true
	}
	return allowed
}

package middleware

import (
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	apierrors "github.com/Police-Data-Accessibility-Project/data-sources-app/server/internal/errors"
)

// RateLimiter keeps one token bucket per key, typically the client IP.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter
	rate   rate.Limit
	burst  int
}

// NewRateLimiter allows perSecond requests per key with the given burst.
// A non-positive perSecond disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limits: make(map[string]*rate.Limiter),
		rate:   limit,
		burst:  burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Middleware rejects requests over the limit with 429, keyed by client IP.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rl.Allow(c.RealIP()) {
				return next(c)
			}
			apiErr := apierrors.RateLimitExceeded("too many requests")
			return c.JSON(apiErr.HTTPStatus(), apiErr.Body())
		}
	}
}

package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/logger"
	"github.com/example/sunik/internal/metrics"
	"github.com/example/sunik/internal/ratelimit"
)

// RateLimit enforces limiter per client IP. Store failures let the request
// through.
func RateLimit(limiter *ratelimit.Limiter, m *metrics.Store, logg *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		res, err := limiter.Allow(ctx, ClientIP(c))
		if err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "rate limiter unavailable")
			}
			return c.Next()
		}
		if res.Limit > 0 {
			c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			c.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.UnixMilli(), 10))
		}
		if !res.Allowed {
			m.IncRateLimited(limiter.Policy().Name)
			return apperrors.New(apperrors.CodeRateLimit, "too many requests")
		}
		return c.Next()
	}
}

// ClientIP resolves the caller address: the first X-Forwarded-For entry,
// then X-Real-IP, then the socket address.
func ClientIP(c *fiber.Ctx) string {
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(c.Get("X-Real-IP")); real != "" {
		return real
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "127.0.0.1"
}

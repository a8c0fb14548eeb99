package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/sunik/internal/logger"
)

// RequestContext seeds the request's context with the logger fields shared
// by every log line of the request. It must run after requestid.
func RequestContext(logg *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
			ctx = logg.WithRequestID(ctx, id)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/auth"
	"github.com/example/sunik/internal/logger"
)

// SessionCookie carries the signed session token.
const SessionCookie = "session"

const identityKey = "currentIdentity"

// SessionVerifier validates session tokens.
type SessionVerifier interface {
	VerifySession(token string) (auth.Identity, error)
}

// Session loads the caller's identity from the session cookie (or a Bearer
// token) when one is present and valid. It never rejects a request.
func Session(verifier SessionVerifier, logg *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := sessionToken(c)
		if token == "" {
			return c.Next()
		}
		identity, err := verifier.VerifySession(token)
		if err != nil {
			return c.Next()
		}
		c.Locals(identityKey, identity)
		if logg != nil {
			c.SetUserContext(logg.WithUserID(c.UserContext(), identity.UserID.String()))
		}
		return c.Next()
	}
}

func sessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(SessionCookie); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireUser rejects requests without a verified session.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := GetIdentity(c); !ok {
			return apperrors.New(apperrors.CodeUnauthorized, "authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin rejects requests from anyone but admins.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := GetIdentity(c)
		if !ok {
			return apperrors.New(apperrors.CodeUnauthorized, "authentication required")
		}
		if !identity.IsAdmin() {
			return apperrors.New(apperrors.CodeForbidden, "admin access required")
		}
		return c.Next()
	}
}

// GetIdentity returns the identity loaded by Session.
func GetIdentity(c *fiber.Ctx) (auth.Identity, bool) {
	identity, ok := c.Locals(identityKey).(auth.Identity)
	return identity, ok
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	identity, ok := GetIdentity(c)
	if !ok {
		return uuid.Nil, false
	}
	return identity.UserID, true
}

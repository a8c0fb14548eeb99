package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/auth"
	"github.com/example/sunik/internal/middleware"
)

func parseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid id", map[string]string{name: "must be a uuid"})
	}
	return id, nil
}

func currentIdentity(c *fiber.Ctx) (auth.Identity, error) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return auth.Identity{}, apperrors.New(apperrors.CodeUnauthorized, "authentication required")
	}
	return identity, nil
}

func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	identity, err := currentIdentity(c)
	return identity.UserID, err
}

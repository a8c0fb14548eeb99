package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/sunik/internal/addresses"
	"github.com/example/sunik/internal/auth"
	"github.com/example/sunik/internal/validation"
)

// ProfileHandler serves the signed-in user's account and saved addresses.
type ProfileHandler struct {
	auth      *auth.Service
	addresses *addresses.Service
	session   *AuthHandler
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(svc *auth.Service, addrs *addresses.Service, session *AuthHandler) *ProfileHandler {
	return &ProfileHandler{auth: svc, addresses: addrs, session: session}
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.auth.User(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": user})
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req auth.ProfileInput
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	user, err := h.auth.UpdateProfile(c.UserContext(), userID, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": user})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

func (h *ProfileHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// DeleteAccount removes the account with its cart and addresses and signs
// the caller out.
func (h *ProfileHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.auth.DeleteAccount(c.UserContext(), userID); err != nil {
		return err
	}
	h.session.clearSession(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// Addresses

func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	items, err := h.addresses.List(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *ProfileHandler) PrimaryAddress(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	item, err := h.addresses.Primary(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req addresses.Input
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	item, err := h.addresses.Add(c.UserContext(), userID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req addresses.Input
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	item, err := h.addresses.Update(c.UserContext(), userID, id, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

func (h *ProfileHandler) SetPrimaryAddress(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.addresses.SetPrimary(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": item})
}

func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.addresses.Delete(c.UserContext(), userID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/sunik/internal/cart"
	"github.com/example/sunik/internal/models"
	"github.com/example/sunik/internal/validation"
)

// CartHandler serves the signed-in user's cart.
type CartHandler struct {
	cart *cart.Service
}

func NewCartHandler(svc *cart.Service) *CartHandler {
	return &CartHandler{cart: svc}
}

func cartBody(c *fiber.Ctx, items []models.CartItem) error {
	total, err := cart.CalculateTotal(items)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"items": items, "total": total},
	})
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	items, err := h.cart.Get(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return cartBody(c, items)
}

// Add puts an item in the cart, merging quantities for a product already
// present.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req models.CartItem
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	if err := validation.Struct(&req); err != nil {
		return err
	}
	items, err := h.cart.Add(c.UserContext(), userID, req)
	if err != nil {
		return err
	}
	return cartBody(c, items)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateQuantity sets an item's quantity; zero or less removes it.
func (h *CartHandler) UpdateQuantity(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req quantityRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	items, err := h.cart.UpdateQuantity(c.UserContext(), userID, c.Params("productID"), req.Quantity)
	if err != nil {
		return err
	}
	return cartBody(c, items)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	items, err := h.cart.Remove(c.UserContext(), userID, c.Params("productID"))
	if err != nil {
		return err
	}
	return cartBody(c, items)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.cart.Clear(c.UserContext(), userID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

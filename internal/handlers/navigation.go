package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/sunik/internal/navigation"
)

// NavigationHandler serves menus, icons and social links to the frontend.
type NavigationHandler struct {
	social []navigation.SocialLink
}

func NewNavigationHandler(urls navigation.SocialURLs) *NavigationHandler {
	return &NavigationHandler{social: navigation.SocialLinks(urls)}
}

func (h *NavigationHandler) DashboardMenu(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": navigation.DashboardMenu()})
}

func (h *NavigationHandler) ProfileMenu(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": navigation.ProfileMenu()})
}

// Icons maps every icon id to its component name.
func (h *NavigationHandler) Icons(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": navigation.Icons()})
}

func (h *NavigationHandler) Social(c *fiber.Ctx) error {
	links := h.social
	if links == nil {
		links = []navigation.SocialLink{}
	}
	return c.JSON(fiber.Map{"success": true, "data": links})
}

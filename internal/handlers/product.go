package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/sunik/internal/content"
	"github.com/example/sunik/internal/utils"
)

// ProductHandler manages product endpoints.
type ProductHandler struct {
	products *content.Products
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(products *content.Products) *ProductHandler {
	return &ProductHandler{products: products}
}

// ListProducts returns one page of products filtered by category, size and
// a free-text search.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	page, err := h.products.List(c.UserContext(), content.ProductQuery{
		Pagination: utils.ParsePagination(c),
		Category:   c.Query("category"),
		Size:       c.Query("size"),
		Search:     c.Query("search"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       page.Items,
		"pagination": page.Pagination,
	})
}

// GetProductBySlug returns the product shown on /products/:slug.
func (h *ProductHandler) GetProductBySlug(c *fiber.Ctx) error {
	product, err := h.products.BySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.products.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

// CreateProduct validates and stores a new product.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req content.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	product, err := h.products.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct replaces the editable fields of a product.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req content.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	product, err := h.products.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.products.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterProductRoutes mounts the public readers on public and the editing
// endpoints on admin.
func (h *ProductHandler) RegisterProductRoutes(public, admin fiber.Router) {
	public.Get("/", h.ListProducts)
	public.Get("/slug/:slug", h.GetProductBySlug)
	public.Get("/:id", h.GetProduct)

	admin.Post("/", h.CreateProduct)
	admin.Put("/:id", h.UpdateProduct)
	admin.Delete("/:id", h.DeleteProduct)
}

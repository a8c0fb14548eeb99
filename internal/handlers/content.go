package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/sunik/internal/content"
	"github.com/example/sunik/internal/validation"
)

// ContentHandler serves the published site content.
type ContentHandler struct {
	store *content.Store
}

// NewContentHandler constructs ContentHandler.
func NewContentHandler(store *content.Store) *ContentHandler {
	return &ContentHandler{store: store}
}

func (h *ContentHandler) Home(c *fiber.Ctx) error {
	items, err := h.store.FetchHomeContents(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *ContentHandler) About(c *fiber.Ctx) error {
	items, err := h.store.FetchAboutContents(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *ContentHandler) Apps(c *fiber.Ctx) error {
	items, err := h.store.FetchAppContents(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *ContentHandler) Services(c *fiber.Ctx) error {
	items, err := h.store.FetchServicesData(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *ContentHandler) Blog(c *fiber.Ctx) error {
	items, err := h.store.FetchBlogData(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *ContentHandler) BlogBySlug(c *fiber.Ctx) error {
	post, err := h.store.FetchBlogBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": post})
}

func (h *ContentHandler) Gallery(c *fiber.Ctx) error {
	items, err := h.store.FetchGalleryData(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

func (h *ContentHandler) Banners(c *fiber.Ctx) error {
	items, err := h.store.FetchBannerData(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

// RegisterPublicRoutes mounts the read-only content endpoints.
func (h *ContentHandler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/home", h.Home)
	r.Get("/about", h.About)
	r.Get("/apps", h.Apps)
	r.Get("/services", h.Services)
	r.Get("/blog", h.Blog)
	r.Get("/blog/:slug", h.BlogBySlug)
	r.Get("/gallery", h.Gallery)
	r.Get("/banners", h.Banners)
	r.Get("/categories", collectionList(h.store.Categories))
	r.Get("/sizes", collectionList(h.store.Sizes))
}

// RegisterAdminRoutes mounts CRUD endpoints for every content collection.
func (h *ContentHandler) RegisterAdminRoutes(r fiber.Router) {
	registerCollection(r.Group("/home"), h.store.Home)
	registerCollection(r.Group("/about"), h.store.About)
	registerCollection(r.Group("/apps"), h.store.Apps)
	registerCollection(r.Group("/services"), h.store.Services)
	registerCollection(r.Group("/blog"), h.store.Blog)
	registerCollection(r.Group("/gallery"), h.store.Gallery)
	registerCollection(r.Group("/banners"), h.store.Banners)
	registerCollection(r.Group("/categories"), h.store.Categories)
	registerCollection(r.Group("/sizes"), h.store.Sizes)
}

type identifiable interface {
	SetID(uuid.UUID)
}

func registerCollection[T any](r fiber.Router, coll *content.Collection[T]) {
	r.Get("/", collectionList(coll))

	r.Get("/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		item, err := coll.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": item})
	})

	r.Post("/", func(c *fiber.Ctx) error {
		item := new(T)
		if err := validation.ParseBody(c, item); err != nil {
			return err
		}
		if ided, ok := any(item).(identifiable); ok {
			ided.SetID(uuid.Nil)
		}
		if err := coll.Create(c.UserContext(), item); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
	})

	r.Put("/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		item := new(T)
		if err := validation.ParseBody(c, item); err != nil {
			return err
		}
		if ided, ok := any(item).(identifiable); ok {
			ided.SetID(id)
		}
		updated, err := coll.Replace(c.UserContext(), id, item)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": updated})
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		if err := coll.Delete(c.UserContext(), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func collectionList[T any](coll *content.Collection[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := coll.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "data": items})
	}
}

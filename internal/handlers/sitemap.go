package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/sunik/internal/logger"
	"github.com/example/sunik/internal/sitemap"
)

// SitemapHandler serves /sitemap.xml.
type SitemapHandler struct {
	generator *sitemap.Generator
	logg      *logger.Logger
}

func NewSitemapHandler(generator *sitemap.Generator, logg *logger.Logger) *SitemapHandler {
	return &SitemapHandler{generator: generator, logg: logg}
}

// Serve renders the sitemap. Data-source failures are logged and the
// static-only sitemap is served instead.
func (h *SitemapHandler) Serve(c *fiber.Ctx) error {
	body, err := h.generator.Render(c.UserContext())
	if err != nil {
		if body == nil {
			return err
		}
		h.logg.Warn(h.logg.WithField(c.UserContext(), "error", err.Error()), "sitemap falling back to static pages")
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, sitemap.CacheControl)
	return c.Send(body)
}

// Package sitemap renders /sitemap.xml from the published blog posts and
// products.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/example/sunik/internal/utils"
)

// CacheControl is sent with every sitemap response.
const CacheControl = "public, max-age=3600, s-maxage=3600, stale-while-revalidate=86400"

var staticPaths = []string{"/", "/about", "/products", "/blog", "/gallery"}

// Source lists the dynamic pages.
type Source interface {
	BlogSlugs(ctx context.Context) ([]string, error)
	ProductTitles(ctx context.Context) ([]string, error)
}

// Site describes the public site for titles, alternates and images.
type Site struct {
	BaseURL     string
	Name        string
	Description string
	Locale      string
	ImagePath   string
	ImageAlt    string
}

type Generator struct {
	src  Source
	site Site
	now  func() time.Time
}

func New(src Source, site Site) *Generator {
	site.BaseURL = strings.TrimRight(site.BaseURL, "/")
	if site.Locale == "" {
		site.Locale = "id_ID"
	}
	return &Generator{src: src, site: site, now: time.Now}
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	XHTML   string   `xml:"xmlns:xhtml,attr,omitempty"`
	Image   string   `xml:"xmlns:image,attr,omitempty"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod"`
	ChangeFreq string     `xml:"changefreq"`
	Priority   string     `xml:"priority"`
	Alternate  *alternate `xml:"xhtml:link,omitempty"`
	Image      *image     `xml:"image:image,omitempty"`
}

type alternate struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

type image struct {
	Loc     string `xml:"image:loc"`
	Title   string `xml:"image:title"`
	Caption string `xml:"image:caption"`
	License string `xml:"image:license"`
}

// Paths returns every page path: static pages, then blog posts, then
// products. Product titles are slugified and de-duplicated.
func (g *Generator) Paths(ctx context.Context) ([]string, error) {
	slugs, blogErr := g.src.BlogSlugs(ctx)
	titles, productErr := g.src.ProductTitles(ctx)
	if err := multierr.Combine(blogErr, productErr); err != nil {
		return nil, err
	}

	paths := append([]string(nil), staticPaths...)
	for _, slug := range slugs {
		if slug = strings.TrimSpace(slug); slug != "" {
			paths = append(paths, "/blog/"+slug)
		}
	}
	seen := map[string]struct{}{}
	for _, title := range titles {
		slug := utils.Slugify(title)
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		paths = append(paths, "/products/"+slug)
	}
	return paths, nil
}

// Render builds the sitemap. When a source fails it still returns the
// static-only sitemap, along with the source error for logging.
func (g *Generator) Render(ctx context.Context) ([]byte, error) {
	lastMod := g.now().UTC().Format(time.RFC3339)

	paths, srcErr := g.Paths(ctx)
	if srcErr != nil {
		body, err := g.encode(g.fallback(lastMod))
		if err != nil {
			return nil, multierr.Append(srcErr, err)
		}
		return body, srcErr
	}

	set := urlset{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		XHTML: "http://www.w3.org/1999/xhtml",
		Image: "http://www.google.com/schemas/sitemap-image/1.1",
	}
	for _, p := range paths {
		set.URLs = append(set.URLs, g.entry(p, lastMod))
	}
	return g.encode(set)
}

func (g *Generator) entry(path, lastMod string) entry {
	loc := g.site.BaseURL + path
	return entry{
		Loc:        loc,
		LastMod:    lastMod,
		ChangeFreq: "weekly",
		Priority:   "0.8",
		Alternate:  &alternate{Rel: "alternate", Hreflang: g.site.Locale, Href: loc},
		Image: &image{
			Loc:     g.site.BaseURL + g.site.ImagePath,
			Title:   g.site.ImageAlt,
			Caption: g.caption(path),
			License: g.site.Name,
		},
	}
}

// caption is the page description: the site description on the home page,
// "<Last segment> | <site> - <description>" elsewhere.
func (g *Generator) caption(path string) string {
	if path == "/" {
		return g.site.Description
	}
	last := path[strings.LastIndex(path, "/")+1:]
	if last != "" {
		last = strings.ToUpper(last[:1]) + last[1:]
	}
	return fmt.Sprintf("%s | %s - %s", last, g.site.Name, g.site.Description)
}

func (g *Generator) fallback(lastMod string) urlset {
	set := urlset{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, p := range staticPaths {
		set.URLs = append(set.URLs, entry{
			Loc:        g.site.BaseURL + p,
			LastMod:    lastMod,
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}
	return set
}

func (g *Generator) encode(set urlset) ([]byte, error) {
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

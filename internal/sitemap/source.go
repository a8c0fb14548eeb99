package sitemap

import (
	"context"

	"github.com/example/sunik/internal/content"
)

// ContentSource reads sitemap paths from the content store.
type ContentSource struct {
	store *content.Store
}

func NewContentSource(store *content.Store) *ContentSource {
	return &ContentSource{store: store}
}

func (s *ContentSource) BlogSlugs(ctx context.Context) ([]string, error) {
	posts, err := s.store.FetchBlogData(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Slug)
	}
	return out, nil
}

func (s *ContentSource) ProductTitles(ctx context.Context) ([]string, error) {
	products, err := s.store.Products.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Title)
	}
	return out, nil
}

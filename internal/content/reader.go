package content

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/example/sunik/internal/models"
)

// Store groups every content collection. Readers return (value, error):
// failures of the database are DEPENDENCY_ERROR, unknown slugs are
// NOT_FOUND, and empty collections are empty slices.
type Store struct {
	Home       *Collection[models.HomeContent]
	About      *Collection[models.AboutContent]
	Apps       *Collection[models.AppContent]
	Services   *Collection[models.ServiceItem]
	Blog       *Collection[models.BlogPost]
	Gallery    *Collection[models.GalleryItem]
	Banners    *Collection[models.Banner]
	Categories *Collection[models.Category]
	Sizes      *Collection[models.Size]
	Products   *Products
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		Home:       NewCollection[models.HomeContent](db, "home content", "created_at asc"),
		About:      NewCollection[models.AboutContent](db, "about content", "created_at asc"),
		Apps:       NewCollection[models.AppContent](db, "app content", "created_at asc"),
		Services:   NewCollection[models.ServiceItem](db, "service", "created_at asc"),
		Blog:       NewCollection[models.BlogPost](db, "blog post", "created_at desc"),
		Gallery:    NewCollection[models.GalleryItem](db, "gallery item", "created_at desc"),
		Banners:    NewCollection[models.Banner](db, "banner", "created_at desc"),
		Categories: NewCollection[models.Category](db, "category", "name asc"),
		Sizes:      NewCollection[models.Size](db, "size", "name asc"),
		Products:   NewProducts(db),
	}
}

func (s *Store) FetchHomeContents(ctx context.Context) ([]models.HomeContent, error) {
	return s.Home.List(ctx)
}

func (s *Store) FetchAboutContents(ctx context.Context) ([]models.AboutContent, error) {
	return s.About.List(ctx)
}

func (s *Store) FetchAppContents(ctx context.Context) ([]models.AppContent, error) {
	return s.Apps.List(ctx)
}

func (s *Store) FetchServicesData(ctx context.Context) ([]models.ServiceItem, error) {
	return s.Services.List(ctx)
}

func (s *Store) FetchProductsData(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	return s.Products.List(ctx, q)
}

func (s *Store) FetchProductsDataBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.Products.BySlug(ctx, slug)
}

func (s *Store) FetchBlogData(ctx context.Context) ([]models.BlogPost, error) {
	return s.Blog.List(ctx)
}

func (s *Store) FetchBlogBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	return s.Blog.first(ctx, "slug = ?", strings.ToLower(strings.TrimSpace(slug)))
}

func (s *Store) FetchGalleryData(ctx context.Context) ([]models.GalleryItem, error) {
	return s.Gallery.List(ctx)
}

func (s *Store) FetchBannerData(ctx context.Context) ([]models.Banner, error) {
	return s.Banners.List(ctx)
}

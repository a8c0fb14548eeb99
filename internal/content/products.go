package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/cart"
	"github.com/example/sunik/internal/models"
	"github.com/example/sunik/internal/utils"
	"github.com/example/sunik/internal/validation"
)

// ProductQuery filters the product listing.
type ProductQuery struct {
	utils.Pagination
	Category string
	Size     string
	Search   string
}

// ProductPage is one page of products.
type ProductPage struct {
	Items      []models.Product `json:"data"`
	Pagination utils.PageMeta   `json:"pagination"`
}

// ProductInput is the editable part of a product.
type ProductInput struct {
	Title       string  `json:"title" validate:"required,min=2"`
	Slug        string  `json:"slug"`
	Price       string  `json:"price" validate:"required"`
	ShopeeURL   string  `json:"shopee_url" validate:"omitempty,url"`
	Description string  `json:"description"`
	Thumbnail   string  `json:"thumbnail"`
	Size        *string `json:"size"`
	Category    string  `json:"category" validate:"required"`
	Content     string  `json:"content"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

func (in *ProductInput) normalize() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if _, err := cart.ParsePrice(in.Price); err != nil {
		return apperrors.Validation("invalid price", map[string]string{"price": "is not a number"})
	}
	in.Slug = utils.Slugify(in.Slug)
	if in.Slug == "" {
		in.Slug = utils.Slugify(in.Title)
	}
	return nil
}

func (in ProductInput) apply(p *models.Product) {
	p.Title = strings.TrimSpace(in.Title)
	p.Slug = in.Slug
	p.Price = in.Price
	p.ShopeeURL = in.ShopeeURL
	p.Description = in.Description
	p.Thumbnail = in.Thumbnail
	p.Size = in.Size
	p.Category = in.Category
	p.Content = in.Content
	p.Stock = in.Stock
}

// Products manages the product catalog.
type Products struct {
	db *gorm.DB
}

func NewProducts(db *gorm.DB) *Products {
	return &Products{db: db}
}

func (s *Products) filtered(ctx context.Context, q ProductQuery) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.Size != "" {
		query = query.Where("size = ?", q.Size)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	return query
}

// List returns one page of products, newest first.
func (s *Products) List(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	if q.Limit <= 0 {
		q.Pagination = utils.NewPagination(q.Page, q.Limit)
	}
	var total int64
	if err := s.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, unavailable("products", err)
	}
	items := []models.Product{}
	if err := s.filtered(ctx, q).
		Order("created_at desc").
		Limit(q.Limit).Offset(q.Offset).
		Find(&items).Error; err != nil {
		return nil, unavailable("products", err)
	}
	return &ProductPage{Items: items, Pagination: q.Meta(total)}, nil
}

// All returns every product without paging.
func (s *Products) All(ctx context.Context) ([]models.Product, error) {
	items := []models.Product{}
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&items).Error; err != nil {
		return nil, unavailable("products", err)
	}
	return items, nil
}

func (s *Products) BySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.first(ctx, "slug = ?", strings.ToLower(strings.TrimSpace(slug)))
}

func (s *Products) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *Products) first(ctx context.Context, query string, args ...any) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Where(query, args...).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("product not found")
	}
	if err != nil {
		return nil, unavailable("product", err)
	}
	return &p, nil
}

func (s *Products) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, in.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	p := models.Product{Version: 1}
	in.apply(&p)
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &p, nil
}

// Update edits a product and bumps its version, so a stock adjustment that
// read the old row fails with CONFLICT.
func (s *Products) Update(ctx context.Context, id uuid.UUID, in ProductInput) (*models.Product, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, in.Slug, id); err != nil {
		return nil, err
	}
	var p models.Product
	in.apply(&p)
	res := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(map[string]any{
		"title":       p.Title,
		"slug":        p.Slug,
		"price":       p.Price,
		"shopee_url":  p.ShopeeURL,
		"description": p.Description,
		"thumbnail":   p.Thumbnail,
		"size":        p.Size,
		"category":    p.Category,
		"content":     p.Content,
		"stock":       p.Stock,
		"version":     gorm.Expr("version + 1"),
	})
	if res.Error != nil {
		return nil, fmt.Errorf("update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("product not found")
	}
	return s.Get(ctx, id)
}

func (s *Products) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("product not found")
	}
	return nil
}

func (s *Products) ensureSlugFree(ctx context.Context, slug string, self uuid.UUID) error {
	var n int64
	q := s.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug)
	if self != uuid.Nil {
		q = q.Where("id <> ?", self)
	}
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if n > 0 {
		return apperrors.New(apperrors.CodeConflict, "a product with this slug already exists").
			WithDetails(map[string]string{"slug": slug})
	}
	return nil
}

// Package content reads and edits the storefront's published content:
// landing blocks, blog, gallery, banners, services and the product catalog.
package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/sunik/internal/apperrors"
)

// Collection is a plain CRUD table of content documents.
type Collection[T any] struct {
	db    *gorm.DB
	noun  string
	order string
}

// NewCollection builds a collection listed in order (e.g. "created_at desc").
func NewCollection[T any](db *gorm.DB, noun, order string) *Collection[T] {
	return &Collection[T]{db: db, noun: noun, order: order}
}

func (c *Collection[T]) Noun() string { return c.noun }

// List returns every item. An empty table yields an empty, non-nil slice.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	items := []T{}
	q := c.db.WithContext(ctx)
	if c.order != "" {
		q = q.Order(c.order)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, unavailable(c.noun, err)
	}
	return items, nil
}

func (c *Collection[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return c.first(ctx, "id = ?", id)
}

func (c *Collection[T]) first(ctx context.Context, query string, args ...any) (*T, error) {
	var item T
	err := c.db.WithContext(ctx).Where(query, args...).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(c.noun + " not found")
	}
	if err != nil {
		return nil, unavailable(c.noun, err)
	}
	return &item, nil
}

func (c *Collection[T]) Create(ctx context.Context, item *T) error {
	if err := c.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create %s: %w", c.noun, err)
	}
	return nil
}

// Replace overwrites every column of the row with id except its identity and
// creation time. An id carried by item that differs from id matches nothing.
func (c *Collection[T]) Replace(ctx context.Context, id uuid.UUID, item *T) (*T, error) {
	res := c.db.WithContext(ctx).Model(item).
		Where("id = ?", id).
		Select("*").
		Omit("id", "created_at").
		Updates(item)
	if res.Error != nil {
		return nil, fmt.Errorf("update %s: %w", c.noun, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound(c.noun + " not found")
	}
	return c.Get(ctx, id)
}

func (c *Collection[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := c.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", c.noun, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(c.noun + " not found")
	}
	return nil
}

func (c *Collection[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.WithContext(ctx).Model(new(T)).Count(&n).Error; err != nil {
		return 0, unavailable(c.noun, err)
	}
	return n, nil
}

func unavailable(noun string, err error) error {
	return apperrors.Wrap(apperrors.CodeDependency, err, "could not load "+noun)
}

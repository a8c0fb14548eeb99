package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/models"
)

// Service persists one cart per user.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// WithTx returns a Service bound to tx.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	if tx == nil {
		return s
	}
	return &Service{db: tx}
}

// Get returns the user's cart items. A user without a cart has an empty one.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	items := cart.Items.Data()
	if items == nil {
		items = []models.CartItem{}
	}
	return items, nil
}

// Add puts item in the cart, merging quantity when the product is already present.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, item models.CartItem) ([]models.CartItem, error) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if err := s.priceFromCatalog(ctx, &item); err != nil {
		return nil, err
	}
	if _, err := UnitPrice(item.Price); err != nil {
		return nil, apperrors.Validation("invalid item", map[string]string{"price": err.Error()})
	}
	return s.mutate(ctx, userID, func(items []models.CartItem) []models.CartItem {
		for i := range items {
			if items[i].ID == item.ID {
				items[i].Quantity += item.Quantity
				items[i].Price = item.Price
				return items
			}
		}
		return append(items, item)
	})
}

// priceFromCatalog replaces the client-supplied price with the catalog price
// when item refers to a known product.
func (s *Service) priceFromCatalog(ctx context.Context, item *models.CartItem) error {
	id, err := uuid.Parse(item.ID)
	if err != nil {
		return nil
	}
	var product models.Product
	err = s.db.WithContext(ctx).Select("id", "title", "price", "thumbnail").Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	item.Price = product.Price
	if item.Title == "" {
		item.Title = product.Title
	}
	if item.Thumbnail == "" {
		item.Thumbnail = product.Thumbnail
	}
	return nil
}

// UpdateQuantity sets the quantity for productID; zero or less removes it.
func (s *Service) UpdateQuantity(ctx context.Context, userID uuid.UUID, productID string, quantity int) ([]models.CartItem, error) {
	return s.mutate(ctx, userID, func(items []models.CartItem) []models.CartItem {
		out := items[:0]
		for _, it := range items {
			if it.ID == productID {
				if quantity <= 0 {
					continue
				}
				it.Quantity = quantity
			}
			out = append(out, it)
		}
		return out
	})
}

func (s *Service) Remove(ctx context.Context, userID uuid.UUID, productID string) ([]models.CartItem, error) {
	return s.UpdateQuantity(ctx, userID, productID, 0)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := s.mutate(ctx, userID, func([]models.CartItem) []models.CartItem {
		return []models.CartItem{}
	})
	return err
}

func (s *Service) mutate(ctx context.Context, userID uuid.UUID, fn func([]models.CartItem) []models.CartItem) ([]models.CartItem, error) {
	var result []models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Where("user_id = ?", userID).First(&cart).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		items := append([]models.CartItem{}, cart.Items.Data()...)
		result = fn(items)
		if result == nil {
			result = []models.CartItem{}
		}
		if cart.ID == uuid.Nil {
			cart = models.Cart{UserID: userID, Items: datatypes.NewJSONType(result)}
			return tx.Create(&cart).Error
		}
		return tx.Model(&cart).Update("items", datatypes.NewJSONType(result)).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return result, nil
}

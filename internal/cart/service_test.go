package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/database/dbtest"
	"github.com/example/sunik/internal/models"
)

func TestServiceAddMergesQuantities(t *testing.T) {
	svc := NewService(dbtest.Open(t))
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.Add(ctx, user, models.CartItem{ID: "p1", Title: "Taro", Price: "Rp 20.000", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.Add(ctx, user, models.CartItem{ID: "p2", Title: "Matcha", Price: "Rp 22.000", Quantity: 1})
	require.NoError(t, err)
	items, err := svc.Add(ctx, user, models.CartItem{ID: "p1", Title: "Taro", Price: "Rp 20.000", Quantity: 2})
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)

	stored, err := svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, items, stored)
}

func TestServiceGetWithoutCartIsEmpty(t *testing.T) {
	svc := NewService(dbtest.Open(t))

	items, err := svc.Get(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestServiceUpdateQuantityAndRemove(t *testing.T) {
	svc := NewService(dbtest.Open(t))
	ctx := context.Background()
	user := uuid.New()
	_, err := svc.Add(ctx, user, models.CartItem{ID: "p1", Title: "Taro", Price: "10", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.Add(ctx, user, models.CartItem{ID: "p2", Title: "Thai", Price: "12", Quantity: 1})
	require.NoError(t, err)

	items, err := svc.UpdateQuantity(ctx, user, "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, items[0].Quantity)

	items, err = svc.Remove(ctx, user, "p1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ID)
}

func TestServiceClear(t *testing.T) {
	svc := NewService(dbtest.Open(t))
	ctx := context.Background()
	user := uuid.New()
	_, err := svc.Add(ctx, user, models.CartItem{ID: "p1", Title: "Taro", Price: "10", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, user))

	items, err := svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestServiceAddRejectsUnparseablePrice(t *testing.T) {
	svc := NewService(dbtest.Open(t))

	_, err := svc.Add(context.Background(), uuid.New(), models.CartItem{ID: "p1", Price: "ask us", Quantity: 1})

	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestServiceAddRejectsNonPositivePrice(t *testing.T) {
	svc := NewService(dbtest.Open(t))
	ctx := context.Background()
	user := uuid.New()
	_, err := svc.Add(ctx, user, models.CartItem{ID: "p1", Title: "Taro", Price: "Rp 20.000", Quantity: 1})
	require.NoError(t, err)

	for _, price := range []string{"-Rp 19.999", "Rp 0"} {
		_, err = svc.Add(ctx, user, models.CartItem{ID: "discount", Title: "Discount", Price: price, Quantity: 1})
		require.Error(t, err, price)
		assert.Equal(t, apperrors.CodeValidation, apperrors.As(err).Code())
	}

	items, err := svc.Get(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 1)
	total, err := CalculateTotal(items)
	require.NoError(t, err)
	assert.Equal(t, "20000", total.String())
}

func TestServiceAddUsesCatalogPrice(t *testing.T) {
	db := dbtest.Open(t)
	svc := NewService(db)
	ctx := context.Background()
	product := models.Product{Title: "Taro", Slug: "taro", Price: "Rp 25.000", Thumbnail: "/taro.png", Stock: 3, Version: 1}
	require.NoError(t, db.Create(&product).Error)

	items, err := svc.Add(ctx, uuid.New(), models.CartItem{ID: product.ID.String(), Price: "Rp 1", Quantity: 2})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Rp 25.000", items[0].Price)
	assert.Equal(t, "Taro", items[0].Title)
	assert.Equal(t, "/taro.png", items[0].Thumbnail)
}

package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CartItem is one product line in a cart or transaction.
type CartItem struct {
	ID        string `json:"id" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Price     string `json:"price" validate:"required"`
	Thumbnail string `json:"thumbnail"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// Cart is the per-user shopping cart.
type Cart struct {
	BaseModel
	UserID uuid.UUID                      `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Items  datatypes.JSONType[[]CartItem] `json:"items"`
}

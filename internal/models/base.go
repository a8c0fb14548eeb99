package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides shared columns for all tables.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures UUIDs are generated for new records.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// SetID pins the primary key, e.g. to the id taken from a request path.
func (b *BaseModel) SetID(id uuid.UUID) {
	b.ID = id
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&SavedAddress{},
		&Category{},
		&Size{},
		&Product{},
		&Cart{},
		&Transaction{},
		&HomeContent{},
		&AboutContent{},
		&AppContent{},
		&ServiceItem{},
		&BlogPost{},
		&GalleryItem{},
		&Banner{},
	}
}

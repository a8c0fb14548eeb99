package models

import (
	"gorm.io/gorm"

	"github.com/example/sunik/internal/utils"
)

// Category groups products on the storefront.
type Category struct {
	BaseModel
	Name string `json:"name" validate:"required"`
	Slug string `gorm:"uniqueIndex" json:"slug"`
}

func (c *Category) BeforeSave(*gorm.DB) error {
	c.Slug = utils.Slugify(c.Name)
	return nil
}

// Size is a selectable cup/portion size.
type Size struct {
	BaseModel
	Name string `json:"name" validate:"required"`
	Slug string `gorm:"uniqueIndex" json:"slug"`
}

func (s *Size) BeforeSave(*gorm.DB) error {
	s.Slug = utils.Slugify(s.Name)
	return nil
}

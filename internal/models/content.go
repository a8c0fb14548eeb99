package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/sunik/internal/navigation"
	"github.com/example/sunik/internal/utils"
)

// Button is a call-to-action attached to a content block.
type Button struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// HomeContent is a hero block on the landing page.
type HomeContent struct {
	BaseModel
	Title       string                     `json:"title" validate:"required"`
	Description string                     `json:"description"`
	ImageURL    string                     `json:"image_url"`
	Button      datatypes.JSONType[Button] `json:"button"`
}

// AboutContent is a block on the about page.
type AboutContent struct {
	BaseModel
	Title       string                     `json:"title" validate:"required"`
	Description string                     `json:"description"`
	ImageURL    string                     `json:"image_url"`
	Button      datatypes.JSONType[Button] `json:"button"`
}

// AppContent promotes the mobile ordering apps.
type AppContent struct {
	BaseModel
	Title       string                     `json:"title" validate:"required"`
	Text        string                     `json:"text"`
	Description string                     `json:"description"`
	ImageURL    string                     `json:"image_url"`
	Button      datatypes.JSONType[Button] `json:"button"`
}

type ServiceItem struct {
	BaseModel
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	Icon        navigation.IconID `gorm:"size:40" json:"icon" validate:"omitempty,icon"`
	ImageURL    string            `json:"image_url"`
}

type BlogPost struct {
	BaseModel
	Slug        string `gorm:"uniqueIndex" json:"slug"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Thumbnail   string `json:"thumbnail"`
	Category    string `json:"category"`
	Author      string `json:"author"`
}

// BeforeSave derives a missing slug from the title.
func (p *BlogPost) BeforeSave(*gorm.DB) error {
	p.Slug = utils.Slugify(p.Slug)
	if p.Slug == "" {
		p.Slug = utils.Slugify(p.Title)
	}
	return nil
}

type GalleryItem struct {
	BaseModel
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url" validate:"required"`
}

type Banner struct {
	BaseModel
	Title    string `json:"title"`
	ImageURL string `json:"image_url" validate:"required"`
	URL      string `json:"url"`
}

package models

// Product is a sellable menu item. Price is kept as the display string the
// storefront shows (e.g. "Rp 25.000"); totals parse it on demand.
type Product struct {
	BaseModel
	Title       string  `json:"title"`
	Slug        string  `gorm:"uniqueIndex" json:"slug"`
	Price       string  `json:"price"`
	ShopeeURL   string  `json:"shopee_url,omitempty"`
	Description string  `json:"description"`
	Thumbnail   string  `json:"thumbnail"`
	Size        *string `json:"size,omitempty"`
	Category    string  `gorm:"index" json:"category"`
	Content     string  `json:"content"`
	Stock       int     `gorm:"not null;default:0" json:"stock"`
	Sold        int     `gorm:"not null;default:0" json:"sold"`
	Version     int     `gorm:"not null;default:1" json:"-"`
}

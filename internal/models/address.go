package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AddressType string

const (
	AddressHome   AddressType = "home"
	AddressOffice AddressType = "office"
)

// Location is the map pin chosen for a saved address.
type Location struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Address    string  `json:"address"`
	Province   string  `json:"province"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
}

// SavedAddress is a shipping address kept on a user's profile.
type SavedAddress struct {
	BaseModel
	UserID      uuid.UUID                    `gorm:"type:uuid;index" json:"user_id"`
	FullName    string                       `json:"full_name"`
	Phone       string                       `json:"phone"`
	StreetName  string                       `json:"street_name"`
	Landmark    string                       `json:"landmark"`
	AddressType AddressType                  `gorm:"size:20" json:"address_type"`
	Province    string                       `json:"province"`
	City        string                       `json:"city"`
	PostalCode  string                       `json:"postal_code"`
	Location    datatypes.JSONType[Location] `json:"location"`
	IsPrimary   bool                         `gorm:"index" json:"is_primary"`
}

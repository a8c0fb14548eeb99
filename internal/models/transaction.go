package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/example/sunik/internal/delivery"
)

type PaymentMethod string

const (
	PaymentQRIS      PaymentMethod = "qris"
	PaymentBCA       PaymentMethod = "bca"
	PaymentShopeePay PaymentMethod = "shopeepay"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentQRIS, PaymentBCA, PaymentShopeePay:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentAccepted PaymentStatus = "accepted"
	PaymentRejected PaymentStatus = "rejected"
	PaymentSuccess  PaymentStatus = "success"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentAccepted, PaymentRejected, PaymentSuccess:
		return true
	}
	return false
}

// Paid reports whether the status means money was received.
func (s PaymentStatus) Paid() bool {
	return s == PaymentAccepted || s == PaymentSuccess
}

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionSuccess   TransactionStatus = "success"
	TransactionCancelled TransactionStatus = "cancelled"
	TransactionExpired   TransactionStatus = "expired"
)

// UserInfo is the buyer snapshot captured at checkout.
type UserInfo struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// ShippingInfo is the delivery address snapshot captured at checkout.
type ShippingInfo struct {
	FirstName   string      `json:"first_name"`
	Email       string      `json:"email"`
	StreetName  string      `json:"street_name"`
	Landmark    string      `json:"landmark"`
	Province    string      `json:"province"`
	City        string      `json:"city"`
	PostalCode  string      `json:"postal_code"`
	Phone       string      `json:"phone"`
	District    string      `json:"district,omitempty"`
	RT          string      `json:"rt,omitempty"`
	RW          string      `json:"rw,omitempty"`
	AddressType AddressType `json:"address_type,omitempty"`
}

type PaymentInfo struct {
	Method PaymentMethod `gorm:"size:20" json:"method"`
	Proof  string        `json:"proof"`
	Status PaymentStatus `gorm:"size:20;index" json:"status"`
}

// DeliveryState is the persisted form of a delivery.Tracker.
type DeliveryState struct {
	Status            delivery.Stage                       `gorm:"size:20;index" json:"status"`
	History           datatypes.JSONType[[]delivery.Event] `json:"history"`
	EstimatedDelivery time.Time                            `json:"estimated_delivery"`
}

func (d DeliveryState) Tracker() delivery.Tracker {
	return delivery.Tracker{
		Status:            d.Status,
		History:           append([]delivery.Event(nil), d.History.Data()...),
		EstimatedDelivery: d.EstimatedDelivery,
	}
}

func NewDeliveryState(t delivery.Tracker) DeliveryState {
	return DeliveryState{
		Status:            t.Status,
		History:           datatypes.NewJSONType(t.History),
		EstimatedDelivery: t.EstimatedDelivery,
	}
}

// Transaction is a persisted order.
type Transaction struct {
	BaseModel
	TransactionID   string                           `gorm:"uniqueIndex;size:40" json:"transaction_id"`
	UserID          uuid.UUID                        `gorm:"type:uuid;index" json:"user_id"`
	UserInfo        datatypes.JSONType[UserInfo]     `json:"user_info"`
	Items           datatypes.JSONType[[]CartItem]   `json:"items"`
	TotalAmount     decimal.Decimal                  `gorm:"type:numeric(14,2)" json:"total_amount"`
	ShippingCost    decimal.Decimal                  `gorm:"type:numeric(14,2)" json:"shipping_cost"`
	ShippingInfo    datatypes.JSONType[ShippingInfo] `json:"shipping_info"`
	Payment         PaymentInfo                      `gorm:"embedded;embeddedPrefix:payment_" json:"payment_info"`
	Message         string                           `json:"message,omitempty"`
	OrderDate       time.Time                        `gorm:"index" json:"order_date"`
	ExpirationTime  time.Time                        `gorm:"index" json:"expiration_time"`
	Status          TransactionStatus                `gorm:"size:20;index" json:"status"`
	Delivery        DeliveryState                    `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_status"`
	StockAdjustedAt *time.Time                       `json:"-"`
	Version         int                              `gorm:"not null;default:1" json:"-"`
}

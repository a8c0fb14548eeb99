// Package checkout runs the server-side order wizard: shipping address,
// payment method, proof of payment and submission.
package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/models"
	"github.com/example/sunik/internal/validation"
)

type Step string

const (
	StepAddress Step = "address"
	StepPayment Step = "payment"
)

// AddressForm is the shipping form of the first wizard step.
type AddressForm struct {
	FirstName   string             `json:"first_name" validate:"required,min=2"`
	Email       string             `json:"email" validate:"required,email"`
	StreetName  string             `json:"street_name" validate:"required,min=5"`
	Landmark    string             `json:"landmark" validate:"required,min=3"`
	Province    string             `json:"province" validate:"required"`
	City        string             `json:"city" validate:"required"`
	PostalCode  string             `json:"postal_code" validate:"required,min=5"`
	Phone       string             `json:"phone" validate:"required,min=10"`
	District    string             `json:"district,omitempty"`
	RT          string             `json:"rt,omitempty"`
	RW          string             `json:"rw,omitempty"`
	AddressType models.AddressType `json:"address_type,omitempty" validate:"omitempty,oneof=home office"`
	Message     string             `json:"message,omitempty"`
}

func (f AddressForm) shippingInfo() models.ShippingInfo {
	return models.ShippingInfo{
		FirstName:   f.FirstName,
		Email:       f.Email,
		StreetName:  f.StreetName,
		Landmark:    f.Landmark,
		Province:    f.Province,
		City:        f.City,
		PostalCode:  f.PostalCode,
		Phone:       f.Phone,
		District:    f.District,
		RT:          f.RT,
		RW:          f.RW,
		AddressType: f.AddressType,
	}
}

// Customer is the signed-in buyer driving the wizard.
type Customer struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
}

// Wizard is one checkout session.
type Wizard struct {
	ID              string               `json:"id"`
	Customer        Customer             `json:"customer"`
	Step            Step                 `json:"step"`
	Address         AddressForm          `json:"address"`
	PaymentMethod   models.PaymentMethod `json:"payment_method,omitempty"`
	ProofURL        string               `json:"proof_url,omitempty"`
	HasSavedAddress bool                 `json:"has_saved_address"`
	TransactionID   string               `json:"transaction_id,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func newWizard(c Customer, now time.Time) *Wizard {
	return &Wizard{
		ID:        uuid.NewString(),
		Customer:  c,
		Step:      StepAddress,
		Address:   AddressForm{Email: c.Email, AddressType: models.AddressHome},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Prefill copies a saved address into the form.
func (w *Wizard) Prefill(addr *models.SavedAddress) {
	if addr == nil {
		w.HasSavedAddress = false
		return
	}
	loc := addr.Location.Data()
	w.HasSavedAddress = true
	w.Address.FirstName = addr.FullName
	w.Address.StreetName = addr.StreetName
	w.Address.Landmark = addr.Landmark
	w.Address.Province = addr.Province
	w.Address.City = addr.City
	w.Address.PostalCode = addr.PostalCode
	w.Address.Phone = addr.Phone
	w.Address.AddressType = addr.AddressType
	if loc.Lat != 0 || loc.Lng != 0 {
		w.Address.District = fmt.Sprintf("%g,%g", loc.Lat, loc.Lng)
	}
}

// SubmitAddress stores form and, when it validates, moves to the payment
// step. The returned map lists invalid fields.
func (w *Wizard) SubmitAddress(form AddressForm) map[string]string {
	w.Address = form
	if w.Address.AddressType == "" {
		w.Address.AddressType = models.AddressHome
	}
	if fields := validation.Fields(&w.Address); fields != nil {
		return fields
	}
	if w.Step == StepAddress {
		w.Step = StepPayment
	}
	return nil
}

// Back returns to the address step keeping every value.
func (w *Wizard) Back() error {
	if w.TransactionID != "" {
		return errSubmitted
	}
	w.Step = StepAddress
	return nil
}

// SelectPaymentMethod picks qris or bca while on the payment step.
func (w *Wizard) SelectPaymentMethod(method models.PaymentMethod) error {
	if err := w.requirePayment(); err != nil {
		return err
	}
	method = models.PaymentMethod(strings.ToLower(strings.TrimSpace(string(method))))
	if method != models.PaymentQRIS && method != models.PaymentBCA {
		return apperrors.Validation("unsupported payment method", map[string]string{
			"payment_method": "must be one of: qris bca",
		})
	}
	w.PaymentMethod = method
	return nil
}

// AttachProof sets the proof of payment, replacing any earlier one.
func (w *Wizard) AttachProof(url string) error {
	if err := w.requirePayment(); err != nil {
		return err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return apperrors.Validation("proof of payment is required", map[string]string{"proof": "is required"})
	}
	w.ProofURL = url
	return nil
}

// CheckSubmittable reports why the wizard cannot be submitted with a cart
// worth subtotal, or nil when it can.
func (w *Wizard) CheckSubmittable(subtotal decimal.Decimal) error {
	if err := w.requirePayment(); err != nil {
		return err
	}
	fields := map[string]string{}
	if ff := validation.Fields(&w.Address); ff != nil {
		for k, v := range ff {
			fields["address."+k] = v
		}
	}
	if w.PaymentMethod == "" {
		fields["payment_method"] = "is required"
	}
	if w.ProofURL == "" {
		fields["proof"] = "is required"
	}
	if !subtotal.IsPositive() {
		fields["cart"] = "is empty"
	}
	if len(fields) > 0 {
		return apperrors.Validation("checkout is incomplete", fields)
	}
	return nil
}

// CanSubmit is CheckSubmittable as a boolean.
func (w *Wizard) CanSubmit(subtotal decimal.Decimal) bool {
	return w.CheckSubmittable(subtotal) == nil
}

func (w *Wizard) requirePayment() error {
	if w.TransactionID != "" {
		return errSubmitted
	}
	if w.Step != StepPayment {
		return apperrors.New(apperrors.CodeStateConflict, "complete the shipping address first").
			WithDetails(map[string]string{"step": string(w.Step)})
	}
	return nil
}

var errSubmitted = apperrors.New(apperrors.CodeStateConflict, "checkout already submitted")

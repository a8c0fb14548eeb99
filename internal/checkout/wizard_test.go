package checkout

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/models"
)

func validForm() AddressForm {
	return AddressForm{
		FirstName:  "Sari",
		Email:      "sari@example.com",
		StreetName: "Jl. Merdeka 10",
		Landmark:   "Near the mosque",
		Province:   "Jawa Barat",
		City:       "Bandung",
		PostalCode: "40111",
		Phone:      "081234567890",
	}
}

func paymentWizard(t *testing.T) *Wizard {
	t.Helper()
	w := newWizard(Customer{ID: uuid.New(), Email: "sari@example.com"}, time.Now())
	require.Nil(t, w.SubmitAddress(validForm()))
	return w
}

func TestNewWizardStartsAtAddress(t *testing.T) {
	w := newWizard(Customer{ID: uuid.New(), Email: "sari@example.com"}, time.Now())

	assert.Equal(t, StepAddress, w.Step)
	assert.Equal(t, "sari@example.com", w.Address.Email)
	assert.NotEmpty(t, w.ID)
}

func TestPrefillFromSavedAddress(t *testing.T) {
	w := newWizard(Customer{ID: uuid.New()}, time.Now())
	addr := &models.SavedAddress{
		FullName:    "Sari Dewi",
		Phone:       "081234567890",
		StreetName:  "Jl. Merdeka 10",
		Landmark:    "Blue gate",
		AddressType: models.AddressOffice,
		Province:    "Jawa Barat",
		City:        "Bandung",
		PostalCode:  "40111",
		Location:    datatypes.NewJSONType(models.Location{Lat: -6.9, Lng: 107.6}),
	}

	w.Prefill(addr)

	assert.True(t, w.HasSavedAddress)
	assert.Equal(t, "Sari Dewi", w.Address.FirstName)
	assert.Equal(t, "-6.9,107.6", w.Address.District)
	assert.Equal(t, models.AddressOffice, w.Address.AddressType)
}

func TestPrefillWithoutAddress(t *testing.T) {
	w := newWizard(Customer{ID: uuid.New()}, time.Now())
	w.Prefill(nil)
	assert.False(t, w.HasSavedAddress)
}

func TestSubmitAddressInvalidKeepsStepAndValues(t *testing.T) {
	w := newWizard(Customer{ID: uuid.New()}, time.Now())
	form := validForm()
	form.FirstName = "S"
	form.Email = "not-an-email"
	form.Phone = "0812"

	fields := w.SubmitAddress(form)

	assert.Equal(t, StepAddress, w.Step)
	assert.Equal(t, "S", w.Address.FirstName)
	assert.Contains(t, fields, "first_name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "phone")
	assert.NotContains(t, fields, "city")
}

func TestSubmitAddressAdvancesOnce(t *testing.T) {
	w := paymentWizard(t)
	assert.Equal(t, StepPayment, w.Step)

	assert.Nil(t, w.SubmitAddress(validForm()))
	assert.Equal(t, StepPayment, w.Step)
}

func TestBackRetainsValues(t *testing.T) {
	w := paymentWizard(t)
	require.NoError(t, w.SelectPaymentMethod(models.PaymentBCA))

	require.NoError(t, w.Back())

	assert.Equal(t, StepAddress, w.Step)
	assert.Equal(t, "Sari", w.Address.FirstName)
	assert.Equal(t, models.PaymentBCA, w.PaymentMethod)
}

func TestSelectPaymentMethod(t *testing.T) {
	w := newWizard(Customer{ID: uuid.New()}, time.Now())
	err := w.SelectPaymentMethod(models.PaymentQRIS)
	assert.True(t, apperrors.Is(err, apperrors.CodeStateConflict))

	w = paymentWizard(t)
	assert.True(t, apperrors.Is(w.SelectPaymentMethod(models.PaymentShopeePay), apperrors.CodeValidation))
	require.NoError(t, w.SelectPaymentMethod(" QRIS "))
	assert.Equal(t, models.PaymentQRIS, w.PaymentMethod)
}

func TestAttachProofReplaces(t *testing.T) {
	w := paymentWizard(t)

	require.NoError(t, w.AttachProof("https://cdn/a.jpg"))
	require.NoError(t, w.AttachProof("https://cdn/b.jpg"))
	assert.Equal(t, "https://cdn/b.jpg", w.ProofURL)

	assert.True(t, apperrors.Is(w.AttachProof("  "), apperrors.CodeValidation))
}

func TestCheckSubmittable(t *testing.T) {
	w := paymentWizard(t)
	require.NoError(t, w.SelectPaymentMethod(models.PaymentQRIS))

	err := w.CheckSubmittable(decimal.NewFromInt(20000))
	typed := apperrors.As(err)
	require.NotNil(t, typed)
	assert.Contains(t, typed.Details(), "proof")

	require.NoError(t, w.AttachProof("https://cdn/proof.jpg"))
	assert.False(t, w.CanSubmit(decimal.Zero))
	assert.True(t, w.CanSubmit(decimal.NewFromInt(20000)))
}

func TestSubmittedWizardIsFrozen(t *testing.T) {
	w := paymentWizard(t)
	w.TransactionID = "TRX-1"

	assert.True(t, apperrors.Is(w.Back(), apperrors.CodeStateConflict))
	assert.True(t, apperrors.Is(w.AttachProof("x"), apperrors.CodeStateConflict))
}

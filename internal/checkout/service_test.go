package checkout

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sunik/internal/addresses"
	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/cart"
	"github.com/example/sunik/internal/database/dbtest"
	"github.com/example/sunik/internal/models"
	"github.com/example/sunik/internal/transactions"
)

type fakeUploader struct {
	keys []string
	err  error
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	u.keys = append(u.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type harness struct {
	svc       *Service
	cart      *cart.Service
	addresses *addresses.Service
	store     *transactions.Store
	uploader  *fakeUploader
	customer  Customer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := dbtest.Open(t)
	h := &harness{
		cart:      cart.NewService(db),
		addresses: addresses.NewService(db),
		store:     transactions.NewStore(transactions.Params{DB: db}),
		uploader:  &fakeUploader{},
		customer:  Customer{ID: uuid.New(), Email: "sari@example.com", DisplayName: "Sari"},
	}
	h.svc = NewService(Params{
		Addresses:    h.addresses,
		Cart:         h.cart,
		Transactions: h.store,
		Uploader:     h.uploader,
		Options: Options{
			ShippingCost:     decimal.NewFromInt(10000),
			QRISImageURL:     "/images/qris.png",
			BankName:         "BCA",
			BankAccount:      "1234567890",
			BankAccountOwner: "Sunik",
		},
	})
	return h
}

func (h *harness) fillCart(t *testing.T) {
	t.Helper()
	_, err := h.cart.Add(context.Background(), h.customer.ID, models.CartItem{
		ID: uuid.NewString(), Title: "Taro", Price: "Rp 20.000", Quantity: 2,
	})
	require.NoError(t, err)
}

func (h *harness) readyWizard(t *testing.T) *Wizard {
	t.Helper()
	ctx := context.Background()
	w, err := h.svc.Start(ctx, h.customer)
	require.NoError(t, err)
	_, err = h.svc.SubmitAddress(ctx, h.customer.ID, w.ID, validForm())
	require.NoError(t, err)
	_, err = h.svc.SelectPaymentMethod(ctx, h.customer.ID, w.ID, models.PaymentQRIS)
	require.NoError(t, err)
	w, err = h.svc.AttachProof(ctx, h.customer.ID, w.ID, "https://cdn.example.com/proof.jpg")
	require.NoError(t, err)
	return w
}

func TestStartPrefillsPrimaryAddress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.addresses.Add(ctx, h.customer.ID, addresses.Input{
		FullName:    "Sari Dewi",
		Phone:       "081234567890",
		StreetName:  "Jl. Merdeka No. 10",
		Landmark:    "Blue gate",
		AddressType: models.AddressHome,
		Province:    "Jawa Barat",
		City:        "Bandung",
		PostalCode:  "40111",
		Location:    addresses.LocationInput{Lat: -6.9, Lng: 107.6},
	})
	require.NoError(t, err)

	w, err := h.svc.Start(ctx, h.customer)
	require.NoError(t, err)

	assert.True(t, w.HasSavedAddress)
	assert.Equal(t, "Sari Dewi", w.Address.FirstName)
	assert.Equal(t, "sari@example.com", w.Address.Email)
}

func TestStartWithoutAddress(t *testing.T) {
	h := newHarness(t)

	w, err := h.svc.Start(context.Background(), h.customer)

	require.NoError(t, err)
	assert.False(t, w.HasSavedAddress)
	assert.Equal(t, StepAddress, w.Step)
}

func TestStartRequiresUser(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Start(context.Background(), Customer{})
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))
}

func TestWizardIsPrivateToOwner(t *testing.T) {
	h := newHarness(t)
	w, err := h.svc.Start(context.Background(), h.customer)
	require.NoError(t, err)

	_, err = h.svc.Get(context.Background(), uuid.New(), w.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestSubmitAddressPersistsInvalidValues(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	w, err := h.svc.Start(ctx, h.customer)
	require.NoError(t, err)
	form := validForm()
	form.PostalCode = "1"

	_, err = h.svc.SubmitAddress(ctx, h.customer.ID, w.ID, form)
	require.True(t, apperrors.Is(err, apperrors.CodeValidation))

	stored, err := h.svc.Get(ctx, h.customer.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", stored.Address.PostalCode)
	assert.Equal(t, StepAddress, stored.Step)
}

func TestPaymentInstructions(t *testing.T) {
	h := newHarness(t)
	h.fillCart(t)
	ctx := context.Background()
	w := h.readyWizard(t)

	ins, err := h.svc.PaymentInstructions(ctx, h.customer.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "/images/qris.png", ins.QRImageURL)
	assert.Equal(t, "50000", ins.Totals.Total.String())
	assert.Equal(t, ProofHint, ins.ProofHint)

	_, err = h.svc.SelectPaymentMethod(ctx, h.customer.ID, w.ID, models.PaymentBCA)
	require.NoError(t, err)
	ins, err = h.svc.PaymentInstructions(ctx, h.customer.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "1234567890", ins.AccountNumber)
	assert.Empty(t, ins.QRImageURL)
}

func TestUploadProof(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	w := h.readyWizard(t)

	_, err := h.svc.UploadProof(ctx, h.customer.ID, w.ID, Proof{Filename: "a.pdf", ContentType: "application/pdf", Body: bytes.NewReader(nil)})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	got, err := h.svc.UploadProof(ctx, h.customer.ID, w.ID, Proof{
		Filename: "Transfer.PNG", ContentType: "image/png", Size: 3, Body: bytes.NewReader([]byte("png")),
	})
	require.NoError(t, err)
	require.Len(t, h.uploader.keys, 1)
	assert.Contains(t, h.uploader.keys[0], "proofs/"+h.customer.ID.String()+"/"+w.ID+"/")
	assert.True(t, len(got.ProofURL) > 0 && got.ProofURL[len(got.ProofURL)-4:] == ".png")

	h.uploader.err = errors.New("s3 down")
	_, err = h.svc.UploadProof(ctx, h.customer.ID, w.ID, Proof{Filename: "b.jpg", ContentType: "image/jpeg", Body: bytes.NewReader(nil)})
	assert.True(t, apperrors.Is(err, apperrors.CodeDependency))
}

func TestSubmitRejectsEmptyCart(t *testing.T) {
	h := newHarness(t)
	w := h.readyWizard(t)

	_, err := h.svc.Submit(context.Background(), h.customer.ID, w.ID)

	typed := apperrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, apperrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Details(), "cart")
}

func TestSubmitCreatesTransactionAndClearsCart(t *testing.T) {
	h := newHarness(t)
	h.fillCart(t)
	ctx := context.Background()
	w := h.readyWizard(t)

	ok, err := h.svc.CanSubmit(ctx, h.customer.ID, w.ID)
	require.NoError(t, err)
	require.True(t, ok)

	rec, err := h.svc.Submit(ctx, h.customer.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "50000", rec.TotalAmount.String())
	assert.Equal(t, models.PaymentQRIS, rec.Payment.Method)
	assert.Equal(t, "Bandung", rec.ShippingInfo.Data().City)
	assert.Equal(t, "Sari", rec.UserInfo.Data().DisplayName)

	items, err := h.cart.Get(ctx, h.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	again, err := h.svc.Submit(ctx, h.customer.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.TransactionID, again.TransactionID)

	all, total, err := h.store.List(ctx, transactions.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, all, 1)
}

func TestSubmitWhileLockedConflicts(t *testing.T) {
	h := newHarness(t)
	h.fillCart(t)
	w := h.readyWizard(t)
	_, ok, err := h.svc.locker.Acquire(context.Background(), "checkout:submit:"+w.ID, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = h.svc.Submit(context.Background(), h.customer.ID, w.ID)

	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))
	items, err := h.cart.Get(context.Background(), h.customer.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	w := newWizard(Customer{ID: uuid.New()}, now)
	require.NoError(t, store.Save(context.Background(), w, time.Minute))

	_, err := store.Get(context.Background(), w.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(context.Background(), w.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

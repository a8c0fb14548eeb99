package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/sunik/internal/addresses"
	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/cart"
	"github.com/example/sunik/internal/locks"
	"github.com/example/sunik/internal/logger"
	"github.com/example/sunik/internal/metrics"
	"github.com/example/sunik/internal/models"
	"github.com/example/sunik/internal/transactions"
)

// ProofHint is shown next to the proof upload field. The limit is not enforced.
const ProofHint = "JPG or PNG, max 2MB"

// ProofUploader stores a proof-of-payment image and returns its public URL.
type ProofUploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// Options carry the checkout settings from configuration.
type Options struct {
	ShippingCost     decimal.Decimal
	WizardTTL        time.Duration
	SubmitTimeout    time.Duration
	QRISImageURL     string
	BankName         string
	BankAccount      string
	BankAccountOwner string
}

type Params struct {
	Store        Store
	Addresses    *addresses.Service
	Cart         *cart.Service
	Transactions *transactions.Store
	Uploader     ProofUploader
	Locker       locks.Locker
	Metrics      *metrics.Store
	Logger       *logger.Logger
	Options      Options
}

// Service drives wizard sessions.
type Service struct {
	store        Store
	addresses    *addresses.Service
	cart         *cart.Service
	transactions *transactions.Store
	uploader     ProofUploader
	locker       locks.Locker
	metrics      *metrics.Store
	logg         *logger.Logger
	opts         Options
	now          func() time.Time
}

func NewService(p Params) *Service {
	if p.Store == nil {
		p.Store = NewMemoryStore()
	}
	if p.Locker == nil {
		p.Locker = locks.NewMemoryLocker()
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Options.WizardTTL <= 0 {
		p.Options.WizardTTL = 2 * time.Hour
	}
	if p.Options.SubmitTimeout <= 0 {
		p.Options.SubmitTimeout = 10 * time.Second
	}
	return &Service{
		store:        p.Store,
		addresses:    p.Addresses,
		cart:         p.Cart,
		transactions: p.Transactions,
		uploader:     p.Uploader,
		locker:       p.Locker,
		metrics:      p.Metrics,
		logg:         p.Logger,
		opts:         p.Options,
		now:          time.Now,
	}
}

// Start opens a wizard for c, prefilled from the primary saved address.
func (s *Service) Start(ctx context.Context, c Customer) (*Wizard, error) {
	if c.ID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "sign in to check out")
	}
	w := newWizard(c, s.now().UTC())

	primary, err := s.addresses.Primary(ctx, c.ID)
	switch {
	case apperrors.Is(err, apperrors.CodeNotFound):
		w.Prefill(nil)
	case err != nil:
		return nil, err
	default:
		w.Prefill(primary)
	}
	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Get loads a wizard owned by userID.
func (s *Service) Get(ctx context.Context, userID uuid.UUID, id string) (*Wizard, error) {
	w, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Customer.ID != userID {
		return nil, errWizardNotFound
	}
	return w, nil
}

func (s *Service) save(ctx context.Context, w *Wizard) error {
	w.UpdatedAt = s.now().UTC()
	return s.store.Save(ctx, w, s.opts.WizardTTL)
}

func (s *Service) update(ctx context.Context, userID uuid.UUID, id string, fn func(w *Wizard) error) (*Wizard, error) {
	w, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return nil, err
	}
	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// SubmitAddress stores the form even when it is invalid; the step only
// advances for a valid form.
func (s *Service) SubmitAddress(ctx context.Context, userID uuid.UUID, id string, form AddressForm) (*Wizard, error) {
	w, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if w.TransactionID != "" {
		return nil, errSubmitted
	}
	fields := w.SubmitAddress(form)
	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	if fields != nil {
		return w, apperrors.Validation("shipping address is invalid", fields)
	}
	return w, nil
}

func (s *Service) Back(ctx context.Context, userID uuid.UUID, id string) (*Wizard, error) {
	return s.update(ctx, userID, id, func(w *Wizard) error { return w.Back() })
}

func (s *Service) SelectPaymentMethod(ctx context.Context, userID uuid.UUID, id string, method models.PaymentMethod) (*Wizard, error) {
	return s.update(ctx, userID, id, func(w *Wizard) error { return w.SelectPaymentMethod(method) })
}

func (s *Service) AttachProof(ctx context.Context, userID uuid.UUID, id, url string) (*Wizard, error) {
	return s.update(ctx, userID, id, func(w *Wizard) error { return w.AttachProof(url) })
}

// Proof is an uploaded proof-of-payment file.
type Proof struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadProof stores file and attaches its URL to the wizard.
func (s *Service) UploadProof(ctx context.Context, userID uuid.UUID, id string, file Proof) (*Wizard, error) {
	if s.uploader == nil {
		return nil, apperrors.New(apperrors.CodeDependency, "proof upload is not configured")
	}
	w, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := w.requirePayment(); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(file.ContentType, "image/") {
		return nil, apperrors.Validation("proof must be an image", map[string]string{"proof": "must be an image"})
	}

	key := path.Join("proofs", userID.String(), w.ID, uuid.NewString()+strings.ToLower(path.Ext(file.Filename)))
	url, err := s.uploader.Upload(ctx, key, file.ContentType, file.Body, file.Size)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "proof upload failed")
	}
	if err := w.AttachProof(url); err != nil {
		return nil, err
	}
	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Totals is the running order total.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

func (s *Service) totals(ctx context.Context, userID uuid.UUID) ([]models.CartItem, Totals, error) {
	items, err := s.cart.Get(ctx, userID)
	if err != nil {
		return nil, Totals{}, err
	}
	subtotal, err := cart.CalculateTotal(items)
	if err != nil {
		return nil, Totals{}, apperrors.Validation("cart contains an invalid price", map[string]string{"cart": err.Error()})
	}
	return items, Totals{
		Subtotal: subtotal,
		Shipping: s.opts.ShippingCost,
		Total:    subtotal.Add(s.opts.ShippingCost),
	}, nil
}

// Totals returns the order total for the user's current cart.
func (s *Service) Totals(ctx context.Context, userID uuid.UUID) (Totals, error) {
	_, totals, err := s.totals(ctx, userID)
	return totals, err
}

// Instructions tell the buyer where to send money for the chosen method.
type Instructions struct {
	Method        models.PaymentMethod `json:"method"`
	QRImageURL    string               `json:"qr_image_url,omitempty"`
	Bank          string               `json:"bank,omitempty"`
	AccountNumber string               `json:"account_number,omitempty"`
	AccountHolder string               `json:"account_holder,omitempty"`
	Totals        Totals               `json:"totals"`
	ProofHint     string               `json:"proof_hint"`
}

func (s *Service) PaymentInstructions(ctx context.Context, userID uuid.UUID, id string) (*Instructions, error) {
	w, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := w.requirePayment(); err != nil {
		return nil, err
	}
	if w.PaymentMethod == "" {
		return nil, apperrors.Validation("choose a payment method first", map[string]string{"payment_method": "is required"})
	}
	_, totals, err := s.totals(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &Instructions{Method: w.PaymentMethod, Totals: totals, ProofHint: ProofHint}
	switch w.PaymentMethod {
	case models.PaymentQRIS:
		out.QRImageURL = s.opts.QRISImageURL
	case models.PaymentBCA:
		out.Bank = s.opts.BankName
		out.AccountNumber = s.opts.BankAccount
		out.AccountHolder = s.opts.BankAccountOwner
	}
	return out, nil
}

// CanSubmit reports whether Submit would be attempted.
func (s *Service) CanSubmit(ctx context.Context, userID uuid.UUID, id string) (bool, error) {
	w, err := s.Get(ctx, userID, id)
	if err != nil {
		return false, err
	}
	_, totals, err := s.totals(ctx, userID)
	if err != nil {
		return false, err
	}
	return w.CanSubmit(totals.Subtotal), nil
}

// Submit persists the order and empties the cart in one database
// transaction. Resubmitting a submitted wizard returns the same transaction.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, id string) (rec *models.Transaction, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.SubmitTimeout)
	defer cancel()
	ctx = s.logg.WithUserID(ctx, userID.String())

	defer func() {
		switch {
		case err == nil:
			s.metrics.IncCheckout("success")
		case apperrors.Is(err, apperrors.CodeValidation), apperrors.Is(err, apperrors.CodeStateConflict):
			s.metrics.IncCheckout("rejected")
		default:
			s.metrics.IncCheckout("failed")
		}
	}()

	lockKey := "checkout:submit:" + id
	token, ok, err := s.locker.Acquire(ctx, lockKey, s.opts.SubmitTimeout)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "checkout lock unavailable")
	}
	if !ok {
		return nil, apperrors.New(apperrors.CodeConflict, "checkout is already being submitted")
	}
	defer func() {
		if relErr := s.locker.Release(context.WithoutCancel(ctx), lockKey, token); relErr != nil && !errors.Is(relErr, locks.ErrNotHeld) {
			s.logg.Warn(s.logg.WithField(ctx, "error", relErr.Error()), "checkout lock release failed")
		}
	}()

	w, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if w.TransactionID != "" {
		return s.transactions.GetByID(ctx, w.TransactionID)
	}

	items, totals, err := s.totals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := w.CheckSubmittable(totals.Subtotal); err != nil {
		return nil, err
	}

	rec, err = s.transactions.Create(ctx, transactions.NewTransaction{
		UserID: userID,
		UserInfo: models.UserInfo{
			DisplayName: w.Customer.DisplayName,
			Email:       w.Customer.Email,
			PhotoURL:    w.Customer.PhotoURL,
		},
		Items:         items,
		ShippingCost:  totals.Shipping,
		ShippingInfo:  w.Address.shippingInfo(),
		PaymentMethod: w.PaymentMethod,
		PaymentProof:  w.ProofURL,
		Message:       w.Address.Message,
		ClaimedTotal:  &totals.Total,
	}, func(tx *gorm.DB) error {
		if err := s.cart.WithTx(tx).Clear(ctx, userID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.TransactionID = rec.TransactionID
	if err := s.save(ctx, w); err != nil {
		// The order exists; a lost wizard update only weakens resubmit detection.
		s.logg.Error(s.logg.WithTransactionID(ctx, rec.TransactionID), "saving submitted wizard failed", err)
	}
	return rec, nil
}

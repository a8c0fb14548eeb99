// Package transactions persists orders and drives their payment and delivery
// status changes.
package transactions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/cart"
	"github.com/example/sunik/internal/delivery"
	"github.com/example/sunik/internal/events"
	"github.com/example/sunik/internal/logger"
	"github.com/example/sunik/internal/metrics"
	"github.com/example/sunik/internal/models"
)

// Notifier is told about transactions worth an admin's attention.
type Notifier interface {
	TransactionCreated(ctx context.Context, tx models.Transaction) error
	PaymentAccepted(ctx context.Context, tx models.Transaction) error
}

// Options tune the store's time windows.
type Options struct {
	PaymentWindow    time.Duration
	DeliveryEstimate time.Duration
}

// Params wires the store's collaborators. Only DB is required.
type Params struct {
	DB       *gorm.DB
	Feed     ChangeFeed
	Events   events.Publisher
	Notifier Notifier
	Metrics  *metrics.Store
	Logger   *logger.Logger
	Options  Options
}

// Store is the transaction record store.
type Store struct {
	db       *gorm.DB
	feed     ChangeFeed
	events   events.Publisher
	notifier Notifier
	metrics  *metrics.Store
	logg     *logger.Logger
	opts     Options
	now      func() time.Time
}

func NewStore(p Params) *Store {
	if p.Feed == nil {
		p.Feed = NewMemoryFeed()
	}
	if p.Events == nil {
		p.Events = events.Nop{}
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Options.PaymentWindow <= 0 {
		p.Options.PaymentWindow = 24 * time.Hour
	}
	if p.Options.DeliveryEstimate <= 0 {
		p.Options.DeliveryEstimate = 72 * time.Hour
	}
	return &Store{
		db:       p.DB,
		feed:     p.Feed,
		events:   p.Events,
		notifier: p.Notifier,
		metrics:  p.Metrics,
		logg:     p.Logger,
		opts:     p.Options,
		now:      time.Now,
	}
}

// NewTransaction is the input for Create.
type NewTransaction struct {
	UserID        uuid.UUID
	UserInfo      models.UserInfo
	Items         []models.CartItem
	ShippingCost  decimal.Decimal
	ShippingInfo  models.ShippingInfo
	PaymentMethod models.PaymentMethod
	PaymentProof  string
	Message       string
	// ClaimedTotal is the total the client displayed. When set it must match
	// the total computed from the items.
	ClaimedTotal *decimal.Decimal
}

// Create persists a new transaction. Each step in inTx runs inside the same
// database transaction, so a failing step rolls the insert back.
func (s *Store) Create(ctx context.Context, in NewTransaction, inTx ...func(tx *gorm.DB) error) (*models.Transaction, error) {
	rec, err := s.build(in)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		for _, step := range inTx {
			if err := step(tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithTransactionID(ctx, rec.TransactionID)
	s.logg.Info(ctx, "transaction created")
	s.afterCommit(ctx, events.TransactionCreated, *rec)
	if s.notifier != nil {
		if err := s.notifier.TransactionCreated(ctx, *rec); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "new transaction notification failed")
		}
	}
	return rec, nil
}

func (s *Store) build(in NewTransaction) (*models.Transaction, error) {
	fields := map[string]string{}
	if in.UserID == uuid.Nil {
		fields["user_id"] = "is required"
	}
	if len(in.Items) == 0 {
		fields["items"] = "cart is empty"
	}
	for i, item := range in.Items {
		if item.Quantity <= 0 {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "must be greater than 0"
		}
		if _, err := cart.UnitPrice(item.Price); err != nil {
			fields[fmt.Sprintf("items[%d].price", i)] = err.Error()
		}
	}
	if !in.PaymentMethod.Valid() {
		fields["payment_info.method"] = "is invalid"
	}
	if strings.TrimSpace(in.PaymentProof) == "" {
		fields["payment_info.proof"] = "is required"
	}
	if in.ShippingCost.IsNegative() {
		fields["shipping_cost"] = "must not be negative"
	}

	subtotal, err := cart.CalculateTotal(in.Items)
	if err != nil && len(fields) == 0 {
		fields["items"] = err.Error()
	}
	total := subtotal.Add(in.ShippingCost)
	if err == nil && len(in.Items) > 0 && !subtotal.IsPositive() {
		fields["total_amount"] = "must be greater than 0"
	}
	if in.ClaimedTotal != nil && err == nil && !in.ClaimedTotal.Equal(total) {
		fields["total_amount"] = fmt.Sprintf("does not match items (expected %s)", total.String())
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("invalid transaction", fields)
	}

	now := s.now().UTC()
	return &models.Transaction{
		TransactionID: newTransactionID(now),
		UserID:        in.UserID,
		UserInfo:      datatypes.NewJSONType(in.UserInfo),
		Items:         datatypes.NewJSONType(append([]models.CartItem(nil), in.Items...)),
		TotalAmount:   total,
		ShippingCost:  in.ShippingCost,
		ShippingInfo:  datatypes.NewJSONType(in.ShippingInfo),
		Payment: models.PaymentInfo{
			Method: in.PaymentMethod,
			Proof:  in.PaymentProof,
			Status: models.PaymentPending,
		},
		Message:        in.Message,
		OrderDate:      now,
		ExpirationTime: now.Add(s.opts.PaymentWindow),
		Status:         models.TransactionPending,
		Delivery:       models.NewDeliveryState(delivery.NewTracker(now, s.opts.DeliveryEstimate)),
		Version:        1,
	}, nil
}

func newTransactionID(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return fmt.Sprintf("TRX-%s-%s", at.Format("20060102"), suffix)
}

// GetByID looks a transaction up by its public transaction id or row id.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	return s.find(s.db.WithContext(ctx), id)
}

func (s *Store) find(db *gorm.DB, id string) (*models.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NotFound("transaction not found")
	}
	query := db.Where("transaction_id = ?", id)
	if rowID, err := uuid.Parse(id); err == nil {
		query = db.Where("id = ?", rowID)
	}
	var rec models.Transaction
	err := query.First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("transaction not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load transaction: %w", err)
	}
	return &rec, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Filter narrows List and Subscribe results.
type Filter struct {
	UserID         *uuid.UUID
	Status         models.TransactionStatus
	PaymentStatus  models.PaymentStatus
	DeliveryStatus delivery.Stage
	Search         string
	Limit          int
	Offset         int
	// Match is applied after the query for predicates SQL cannot express.
	// List counts and pages the rows that pass it.
	Match func(models.Transaction) bool
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.DeliveryStatus != "" {
		q = q.Where("delivery_status = ?", f.DeliveryStatus)
	}
	if f.Search != "" {
		q = q.Where(`transaction_id LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(f.Search)+"%")
	}
	return q
}

// List returns matching transactions newest first and the total match count.
// With a Match predicate the rows are filtered before counting and paging.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Transaction, int64, error) {
	if f.Match != nil {
		return s.listMatching(ctx, f)
	}

	var total int64
	if err := f.apply(s.db.WithContext(ctx).Model(&models.Transaction{})).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	q := f.apply(s.db.WithContext(ctx)).Order("order_date desc")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var items []models.Transaction
	if err := q.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return items, total, nil
}

func (s *Store) listMatching(ctx context.Context, f Filter) ([]models.Transaction, int64, error) {
	var all []models.Transaction
	if err := f.apply(s.db.WithContext(ctx)).Order("order_date desc").Find(&all).Error; err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	kept := all[:0]
	for _, it := range all {
		if f.Match(it) {
			kept = append(kept, it)
		}
	}
	total := int64(len(kept))

	start := min(max(f.Offset, 0), len(kept))
	end := len(kept)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(kept))
	}
	return kept[start:end], total, nil
}

// Subscribe streams full snapshots of the matching collection: one right away
// and one after every committed change. Only the newest unread snapshot is
// kept for slow readers. The channel closes when ctx ends.
func (s *Store) Subscribe(ctx context.Context, f Filter) <-chan []models.Transaction {
	out := make(chan []models.Transaction, 1)
	changes := s.feed.Listen(ctx)

	push := func() {
		items, _, err := s.List(ctx, f)
		if err != nil {
			if ctx.Err() == nil {
				s.logg.Error(ctx, "transaction snapshot failed", err)
			}
			return
		}
		select {
		case out <- items:
		default:
			select {
			case <-out:
			default:
			}
			out <- items
		}
	}

	go func() {
		defer close(out)
		push()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				push()
			}
		}
	}()
	return out
}

// Patch is an admin status change. Nil fields are left alone.
type Patch struct {
	PaymentStatus  *models.PaymentStatus
	DeliveryStatus *delivery.Stage
	Description    string
}

// UpdateStatus applies patch atomically. The first move into a paid payment
// status decrements stock (floored at zero) and increments sold for every item,
// in the same database transaction; a concurrent change to any touched row
// aborts the whole update with CONFLICT.
func (s *Store) UpdateStatus(ctx context.Context, id string, patch Patch) (*models.Transaction, error) {
	if patch.PaymentStatus == nil && patch.DeliveryStatus == nil {
		return nil, apperrors.Validation("nothing to update", map[string]string{"status": "is required"})
	}
	if patch.PaymentStatus != nil && !patch.PaymentStatus.Valid() {
		return nil, apperrors.Validation("invalid payment status", map[string]string{"payment_status": "is invalid"})
	}
	if patch.DeliveryStatus != nil && !patch.DeliveryStatus.Valid() {
		return nil, apperrors.Validation("invalid delivery status", map[string]string{"delivery_status": "is invalid"})
	}

	var (
		rec          *models.Transaction
		nowAccepted  bool
		previousPaid models.PaymentStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = s.find(tx, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		updates := map[string]any{}
		previousPaid = rec.Payment.Status

		if patch.PaymentStatus != nil {
			next := *patch.PaymentStatus
			rec.Payment.Status = next
			rec.Status = statusForPayment(next)
			updates["payment_status"] = next
			updates["status"] = rec.Status

			if next.Paid() && rec.StockAdjustedAt == nil {
				if err := adjustStock(tx, rec.Items.Data()); err != nil {
					return err
				}
				rec.StockAdjustedAt = &now
				updates["stock_adjusted_at"] = now
				nowAccepted = true
			}
		}

		if patch.DeliveryStatus != nil {
			tracker := rec.Delivery.Tracker()
			if err := tracker.Advance(*patch.DeliveryStatus, now, patch.Description); err != nil {
				return apperrors.Wrap(apperrors.CodeStateConflict, err, "delivery status cannot move there").
					WithDetails(map[string]string{
						"current":   string(tracker.Status),
						"requested": string(*patch.DeliveryStatus),
					})
			}
			rec.Delivery = models.NewDeliveryState(tracker)
			updates["delivery_status"] = rec.Delivery.Status
			updates["delivery_history"] = rec.Delivery.History
		}

		updates["version"] = rec.Version + 1
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND version = ?", rec.ID, rec.Version).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update transaction: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.CodeConflict, "transaction was modified concurrently")
		}
		rec.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithTransactionID(ctx, rec.TransactionID)
	if patch.PaymentStatus != nil {
		s.metrics.IncStatusUpdate("payment", string(*patch.PaymentStatus))
		logCtx := s.logg.WithFields(ctx, map[string]any{"from": previousPaid, "to": *patch.PaymentStatus})
		s.logg.Info(logCtx, "payment status updated")
		s.afterCommit(ctx, events.PaymentStatusChanged, *rec)
	}
	if patch.DeliveryStatus != nil {
		s.metrics.IncStatusUpdate("delivery", string(*patch.DeliveryStatus))
		s.afterCommit(ctx, events.DeliveryAdvanced, *rec)
	}
	if nowAccepted && s.notifier != nil {
		if err := s.notifier.PaymentAccepted(ctx, *rec); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "payment notification failed")
		}
	}
	return rec, nil
}

func statusForPayment(p models.PaymentStatus) models.TransactionStatus {
	switch {
	case p.Paid():
		return models.TransactionSuccess
	case p == models.PaymentRejected:
		return models.TransactionCancelled
	default:
		return models.TransactionPending
	}
}

// adjustStock applies the sale of items to product stock. Items referencing
// products that no longer exist are skipped.
func adjustStock(tx *gorm.DB, items []models.CartItem) error {
	quantities := map[uuid.UUID]int{}
	for _, item := range items {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			continue
		}
		quantities[id] += item.Quantity
	}

	ids := make([]uuid.UUID, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		qty := quantities[id]
		var product models.Product
		err := tx.Where("id = ?", id).First(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load product %s: %w", id, err)
		}

		stock := product.Stock - qty
		if stock < 0 {
			stock = 0
		}
		res := tx.Model(&models.Product{}).
			Where("id = ? AND version = ?", product.ID, product.Version).
			Updates(map[string]any{
				"stock":   stock,
				"sold":    product.Sold + qty,
				"version": product.Version + 1,
			})
		if res.Error != nil {
			return fmt.Errorf("update product %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.New(apperrors.CodeConflict, "product stock changed concurrently").
				WithDetails(map[string]string{"product_id": id.String()})
		}
	}
	return nil
}

// ExpireStale marks pending, unpaid transactions whose payment window has
// closed as expired and returns how many changed.
func (s *Store) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("status = ? AND payment_status = ? AND expiration_time < ?",
			models.TransactionPending, models.PaymentPending, now.UTC()).
		Updates(map[string]any{
			"status":  models.TransactionExpired,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("expire transactions: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.metrics.AddExpired(res.RowsAffected)
		s.afterCommit(ctx, events.TransactionsExpired, map[string]any{"count": res.RowsAffected, "before": now.UTC()})
	}
	return res.RowsAffected, nil
}

func (s *Store) afterCommit(ctx context.Context, typ events.Type, data any) {
	if err := s.feed.Notify(ctx); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "change feed notify failed")
	}
	key := ""
	if rec, ok := data.(models.Transaction); ok {
		key = rec.TransactionID
	}
	if err := s.events.Publish(ctx, events.Event{Type: typ, Key: key, OccurredAt: s.now().UTC(), Data: data}); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "event publish failed")
	}
}

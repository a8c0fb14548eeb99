package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/delivery"
	"github.com/example/sunik/internal/logger"
	"github.com/example/sunik/internal/models"
	"github.com/example/sunik/internal/services"
	"github.com/example/sunik/internal/transactions"
	"github.com/example/sunik/internal/utils"
	"github.com/example/sunik/internal/validation"
)

const streamHeartbeat = 25 * time.Second

// TransactionHandler serves orders to their buyers and to admins.
type TransactionHandler struct {
	store    *transactions.Store
	whatsapp *services.WhatsApp
	logg     *logger.Logger
}

func NewTransactionHandler(store *transactions.Store, whatsapp *services.WhatsApp, logg *logger.Logger) *TransactionHandler {
	return &TransactionHandler{store: store, whatsapp: whatsapp, logg: logg}
}

func filterFromQuery(c *fiber.Ctx) transactions.Filter {
	return transactions.Filter{
		Status:         models.TransactionStatus(c.Query("status")),
		PaymentStatus:  models.PaymentStatus(c.Query("payment_status")),
		DeliveryStatus: delivery.Stage(c.Query("delivery_status")),
		Search:         c.Query("search"),
	}
}

func (h *TransactionHandler) list(c *fiber.Ctx, f transactions.Filter) error {
	pg := utils.ParsePagination(c)
	f.Limit, f.Offset = pg.Limit, pg.Offset

	items, total, err := h.store.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	if items == nil {
		items = []models.Transaction{}
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       items,
		"pagination": pg.Meta(total),
	})
}

// ListMine returns the caller's transactions, newest first.
func (h *TransactionHandler) ListMine(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	f := filterFromQuery(c)
	f.UserID = &userID
	return h.list(c, f)
}

// owned loads a transaction the caller may see: their own, or any for admins.
// Other users' transactions read as missing.
func (h *TransactionHandler) owned(c *fiber.Ctx) (*models.Transaction, error) {
	identity, err := currentIdentity(c)
	if err != nil {
		return nil, err
	}
	rec, err := h.store.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if !identity.IsAdmin() && rec.UserID != identity.UserID {
		return nil, apperrors.NotFound("transaction not found")
	}
	return rec, nil
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	rec, err := h.owned(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": rec})
}

// WhatsApp returns the wa.me hand-off link for a transaction.
func (h *TransactionHandler) WhatsApp(c *fiber.Ctx) error {
	rec, err := h.owned(c)
	if err != nil {
		return err
	}
	link, err := h.whatsapp.Link(*rec)
	if err != nil {
		return err
	}
	if c.QueryBool("redirect") {
		return c.Redirect(link, fiber.StatusFound)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"url": link}})
}

// Admin

func (h *TransactionHandler) ListAll(c *fiber.Ctx) error {
	return h.list(c, filterFromQuery(c))
}

type statusRequest struct {
	PaymentStatus  *models.PaymentStatus `json:"payment_status"`
	DeliveryStatus *delivery.Stage       `json:"delivery_status"`
	Description    string                `json:"description"`
}

// UpdateStatus changes payment and/or delivery status.
func (h *TransactionHandler) UpdateStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	ctx := h.logg.WithTransactionID(c.UserContext(), c.Params("id"))
	rec, err := h.store.UpdateStatus(ctx, c.Params("id"), transactions.Patch{
		PaymentStatus:  req.PaymentStatus,
		DeliveryStatus: req.DeliveryStatus,
		Description:    req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": rec})
}

type stageInfo struct {
	Status      delivery.Stage `json:"status"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
}

// DeliveryStages lists the delivery progression for the admin UI.
func (h *TransactionHandler) DeliveryStages(c *fiber.Ctx) error {
	stages := delivery.Stages()
	out := make([]stageInfo, 0, len(stages))
	for _, s := range stages {
		out = append(out, stageInfo{Status: s, Label: s.Label(), Description: s.Description()})
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

// Stream pushes the whole filtered collection as server-sent events: one
// "snapshot" event on connect and another after every change.
func (h *TransactionHandler) Stream(c *fiber.Ctx) error {
	f := filterFromQuery(c)
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.UserContext()))
	snapshots := h.store.Subscribe(ctx, f)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	logg := h.logg
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(streamHeartbeat)
		defer ticker.Stop()

		for {
			select {
			case items, ok := <-snapshots:
				if !ok {
					return
				}
				if items == nil {
					items = []models.Transaction{}
				}
				if err := writeEvent(w, "snapshot", items); err != nil {
					logg.Debug(ctx, "transaction stream closed")
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

func writeEvent(w *bufio.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return w.Flush()
}

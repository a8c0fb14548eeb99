package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/auth"
	"github.com/example/sunik/internal/checkout"
	"github.com/example/sunik/internal/models"
	"github.com/example/sunik/internal/validation"
)

// CheckoutHandler drives the order wizard.
type CheckoutHandler struct {
	checkout *checkout.Service
	auth     *auth.Service
}

func NewCheckoutHandler(svc *checkout.Service, authSvc *auth.Service) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, auth: authSvc}
}

// Start opens a wizard prefilled from the caller's primary address.
func (h *CheckoutHandler) Start(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.auth.User(c.UserContext(), userID)
	if err != nil {
		return err
	}
	w, err := h.checkout.Start(c.UserContext(), checkout.Customer{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": w})
}

// Get returns the wizard with the current cart totals.
func (h *CheckoutHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	w, err := h.checkout.Get(ctx, userID, c.Params("id"))
	if err != nil {
		return err
	}
	totals, err := h.checkout.Totals(ctx, userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"wizard":     w,
			"totals":     totals,
			"can_submit": w.CanSubmit(totals.Subtotal),
		},
	})
}

func (h *CheckoutHandler) SubmitAddress(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var form checkout.AddressForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	w, err := h.checkout.SubmitAddress(c.UserContext(), userID, c.Params("id"), form)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": w})
}

func (h *CheckoutHandler) Back(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	w, err := h.checkout.Back(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": w})
}

type paymentMethodRequest struct {
	Method models.PaymentMethod `json:"method" validate:"required"`
}

func (h *CheckoutHandler) SelectPaymentMethod(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req paymentMethodRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	w, err := h.checkout.SelectPaymentMethod(c.UserContext(), userID, c.Params("id"), req.Method)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": w})
}

func (h *CheckoutHandler) PaymentInstructions(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	out, err := h.checkout.PaymentInstructions(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

type proofURLRequest struct {
	ProofURL string `json:"proof_url" validate:"required,url"`
}

// AttachProof records a proof URL uploaded elsewhere.
func (h *CheckoutHandler) AttachProof(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req proofURLRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	w, err := h.checkout.AttachProof(c.UserContext(), userID, c.Params("id"), req.ProofURL)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": w})
}

// UploadProof accepts a multipart "proof" image and stores it.
func (h *CheckoutHandler) UploadProof(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("proof")
	if err != nil {
		return apperrors.Validation("proof of payment is required", map[string]string{"proof": checkout.ProofHint})
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	w, err := h.checkout.UploadProof(c.UserContext(), userID, c.Params("id"), checkout.Proof{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": w})
}

// Submit places the order. A wizard that was already submitted returns the
// same transaction.
func (h *CheckoutHandler) Submit(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	rec, err := h.checkout.Submit(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": rec})
}

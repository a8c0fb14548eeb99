package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/sunik/internal/auth"
	"github.com/example/sunik/internal/middleware"
	"github.com/example/sunik/internal/validation"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	auth   *auth.Service
	secure bool
}

// NewAuthHandler constructs an AuthHandler. secure marks the session cookie
// Secure, which production requires.
func NewAuthHandler(svc *auth.Service, secure bool) *AuthHandler {
	return &AuthHandler{auth: svc, secure: secure}
}

// Register creates a new account and returns an ID token for it.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req auth.RegisterInput
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	user, token, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"user": user, "id_token": token},
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	user, token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"user": user, "id_token": token},
	})
}

type sessionRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// CreateSession exchanges an ID token for the session cookie.
func (h *AuthHandler) CreateSession(c *fiber.Ctx) error {
	var req sessionRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	token, identity, err := h.auth.CreateSession(c.UserContext(), req.IDToken)
	if err != nil {
		return err
	}

	ttl := h.auth.SessionTTL()
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"uid": identity.UserID, "role": identity.Role}})
}

// GetSession reports whether the session cookie is valid.
func (h *AuthHandler) GetSession(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Cookies(middleware.SessionCookie))
	if token == "" {
		return c.JSON(fiber.Map{"success": true, "authenticated": false})
	}
	identity, err := h.auth.VerifySession(token)
	if err != nil {
		return c.JSON(fiber.Map{"success": true, "authenticated": false})
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"authenticated": true,
		"uid":           identity.UserID,
		"role":          identity.Role,
	})
}

// DeleteSession signs the caller out.
func (h *AuthHandler) DeleteSession(c *fiber.Ctx) error {
	h.clearSession(c)
	return c.JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

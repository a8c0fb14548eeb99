package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/auth"
	"github.com/example/sunik/internal/logger"
	"github.com/example/sunik/internal/models"
	"github.com/example/sunik/internal/ratelimit"
)

type stubVerifier map[string]auth.Identity

func (s stubVerifier) VerifySession(token string) (auth.Identity, error) {
	identity, ok := s[token]
	if !ok {
		return auth.Identity{}, errors.New("bad token")
	}
	return identity, nil
}

var (
	customer = auth.Identity{UserID: uuid.New(), Role: models.RoleCustomer}
	admin    = auth.Identity{UserID: uuid.New(), Role: models.RoleAdmin}
	verifier = stubVerifier{"customer": customer, "admin": admin}
)

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: apperrors.FiberErrorHandler(logger.Nop())})
}

func withCookie(req *http.Request, value string) *http.Request {
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: value})
	return req
}

func TestRequireUserAndAdmin(t *testing.T) {
	app := newApp()
	app.Use(Session(verifier, logger.Nop()))
	app.Get("/me", RequireUser(), func(c *fiber.Ctx) error {
		id, ok := GetCurrentUserID(c)
		require.True(t, ok)
		return c.SendString(id.String())
	})
	app.Get("/admin", RequireAdmin(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	cases := []struct {
		path, token string
		want        int
	}{
		{"/me", "", fiber.StatusUnauthorized},
		{"/me", "forged", fiber.StatusUnauthorized},
		{"/me", "customer", fiber.StatusOK},
		{"/admin", "customer", fiber.StatusForbidden},
		{"/admin", "admin", fiber.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.token != "" {
			withCookie(req, tc.token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.StatusCode, "%s as %q", tc.path, tc.token)
	}
}

func TestSessionAcceptsBearerToken(t *testing.T) {
	app := newApp()
	app.Use(Session(verifier, logger.Nop()))
	app.Get("/me", RequireUser(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer customer")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPageGuard(t *testing.T) {
	app := newApp()
	app.Use(PageGuard(verifier))
	app.Get("/*", func(c *fiber.Ctx) error { return c.SendString("page") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/profile/alamat", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/signin", resp.Header.Get("Location"))
	var redirect *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == RedirectCookie {
			redirect = ck
		}
	}
	require.NotNil(t, redirect)
	assert.Equal(t, "/profile/alamat", redirect.Value)

	for _, open := range []string{"/", "/about", "/signin", "/api/products", "/logo.png", "/_next/static/app.js"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, open, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, open)
	}

	resp, err = app.Test(withCookie(httptest.NewRequest(http.MethodGet, "/profile", nil), "customer"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(withCookie(httptest.NewRequest(http.MethodGet, "/signup", nil), "customer"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, err = app.Test(withCookie(httptest.NewRequest(http.MethodGet, "/signin", nil), "expired"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSecurityHeaders(t *testing.T) {
	app := newApp()
	app.Use(SecurityHeaders())
	app.Get("/api/ping", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", resp.Header.Get("Referrer-Policy"))
	assert.Equal(t, "camera=(), microphone=(), geolocation=()", resp.Header.Get("Permissions-Policy"))
}

func TestRateLimitPerClientIP(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Policy{Name: "api", Max: 2, Window: 10 * time.Second}, ratelimit.NewMemoryStore())
	app := newApp()
	app.Use(RateLimit(limiter, nil, logger.Nop()))
	app.Get("/api/ping", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	call := func(ip string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, fiber.StatusOK, call("1.1.1.1").StatusCode)
	second := call("1.1.1.1")
	assert.Equal(t, fiber.StatusOK, second.StatusCode)
	assert.Equal(t, "0", second.Header.Get("X-RateLimit-Remaining"))

	blocked := call("1.1.1.1")
	assert.Equal(t, fiber.StatusTooManyRequests, blocked.StatusCode)
	assert.Equal(t, "2", blocked.Header.Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, blocked.Header.Get("X-RateLimit-Reset"))

	assert.Equal(t, fiber.StatusOK, call("2.2.2.2").StatusCode)
}

func TestClientIPFallbacks(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(ClientIP(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "9.9.9.9")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body := make([]byte, 16)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, "9.9.9.9", string(body[:n]))
}

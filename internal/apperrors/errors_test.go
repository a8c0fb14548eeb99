package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsFindsWrappedError(t *testing.T) {
	base := New(CodeNotFound, "transaction not found")
	wrapped := fmt.Errorf("lookup: %w", base)

	got := As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeNotFound, got.Code())
	assert.True(t, Is(wrapped, CodeNotFound))
	assert.False(t, Is(wrapped, CodeConflict))
	assert.Nil(t, As(errors.New("plain")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeDependency, cause, "fetch products")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "DEPENDENCY_ERROR")
}

func TestMetadataForUnknownFallsBackToInternal(t *testing.T) {
	assert.Equal(t, 500, MetadataFor(Code("nope")).HTTPStatus)
}

func runHandler(t *testing.T, handlerErr error) (int, map[string]any) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: FiberErrorHandler(nil)})
	app.Get("/", func(c *fiber.Ctx) error { return handlerErr })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestFiberErrorHandlerRendersValidationDetails(t *testing.T) {
	status, body := runHandler(t, Validation("validation failed", map[string]string{"email": "must be a valid email"}))

	assert.Equal(t, 400, status)
	assert.Equal(t, false, body["success"])
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errBody["code"])
	assert.Equal(t, "must be a valid email", errBody["details"].(map[string]any)["email"])
}

func TestFiberErrorHandlerHidesInternalMessages(t *testing.T) {
	status, body := runHandler(t, Wrap(CodeInternal, errors.New("pq: secret"), "insert failed"))

	assert.Equal(t, 500, status)
	assert.Equal(t, "internal server error", body["error"].(map[string]any)["message"])
}

func TestFiberErrorHandlerMapsFiberErrors(t *testing.T) {
	status, body := runHandler(t, fiber.NewError(fiber.StatusUnauthorized, "invalid token"))

	assert.Equal(t, 401, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "UNAUTHORIZED", errBody["code"])
	assert.Equal(t, "invalid token", errBody["message"])
}

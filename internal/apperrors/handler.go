package apperrors

import (
	stdErrors "errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/sunik/internal/logger"
)

type errorBody struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// FiberErrorHandler renders every error returned by a handler as the
// {"success": false, "error": {...}} envelope.
func FiberErrorHandler(logg *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := resolve(err)
		if status >= fiber.StatusInternalServerError && logg != nil {
			logg.Error(c.UserContext(), "request failed", err)
		}
		return c.Status(status).JSON(fiber.Map{"success": false, "error": body})
	}
}

func resolve(err error) (int, errorBody) {
	if typed := As(err); typed != nil {
		meta := MetadataFor(typed.Code())
		body := errorBody{Code: typed.Code(), Message: typed.Message()}
		if body.Message == "" || meta.HTTPStatus >= fiber.StatusInternalServerError {
			body.Message = meta.PublicMessage
		}
		if meta.DetailsAllowed {
			body.Details = typed.Details()
		}
		return meta.HTTPStatus, body
	}

	var fe *fiber.Error
	if stdErrors.As(err, &fe) {
		return fe.Code, errorBody{Code: codeForStatus(fe.Code), Message: fe.Message}
	}

	meta := MetadataFor(CodeInternal)
	return meta.HTTPStatus, errorBody{Code: CodeInternal, Message: meta.PublicMessage}
}

func codeForStatus(status int) Code {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnsupportedMediaType, fiber.StatusRequestEntityTooLarge:
		return CodeValidation
	case fiber.StatusUnauthorized:
		return CodeUnauthorized
	case fiber.StatusForbidden:
		return CodeForbidden
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return CodeNotFound
	case fiber.StatusConflict:
		return CodeConflict
	case fiber.StatusUnprocessableEntity:
		return CodeStateConflict
	case fiber.StatusTooManyRequests:
		return CodeRateLimit
	case fiber.StatusServiceUnavailable:
		return CodeDependency
	}
	return CodeInternal
}

package handler

import (
	"errors"

	autherror "github.com/AnthoniusHendriyanto/backoffice-auth/internal/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const internalErrorMessage = "Internal server error"

type errorResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Errors  []autherror.FieldError `json:"errors,omitempty"`
}

// ErrorHandler maps service errors onto HTTP responses. Anything it does not
// recognise is logged in full and returned as a generic 500; outside
// production the 500 carries the error text.
func ErrorHandler(logger zerolog.Logger, production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := classify(err)
		if status == fiber.StatusInternalServerError {
			logger.Error().Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Interface("request_id", c.Locals("requestid")).
				Msg("unhandled error")
			if !production {
				body.Message = err.Error()
			}
		}
		return c.Status(status).JSON(body)
	}
}

func classify(err error) (int, errorResponse) {
	var vErr *autherror.ValidationError
	if errors.As(err, &vErr) {
		return fiber.StatusBadRequest, errorResponse{Message: "Validation failed", Errors: vErr.Fields}
	}

	var fErr *fiber.Error
	if errors.As(err, &fErr) {
		return fErr.Code, errorResponse{Message: fErr.Message}
	}

	switch {
	case errors.Is(err, autherror.ErrConflict):
		return fiber.StatusBadRequest, errorResponse{Message: conflictMessage(err)}
	case errors.Is(err, autherror.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, errorResponse{Message: "Invalid credentials"}
	case errors.Is(err, autherror.ErrAccountDisabled):
		return fiber.StatusForbidden, errorResponse{Message: "Account is disabled"}
	case errors.Is(err, autherror.ErrTooManyLoginAttempts):
		return fiber.StatusTooManyRequests, errorResponse{Message: "Too many login attempts, try again later"}
	case errors.Is(err, autherror.ErrUnauthorized):
		return fiber.StatusUnauthorized, errorResponse{Message: "Not authorized"}
	case errors.Is(err, autherror.ErrInvalidToken):
		return fiber.StatusBadRequest, errorResponse{Message: "Invalid or expired token"}
	case errors.Is(err, autherror.ErrForbidden):
		return fiber.StatusForbidden, errorResponse{Message: "Admin access required"}
	case errors.Is(err, autherror.ErrNotFound):
		return fiber.StatusNotFound, errorResponse{Message: "User not found"}
	case errors.Is(err, autherror.ErrValidation):
		return fiber.StatusBadRequest, errorResponse{Message: "Validation failed"}
	default:
		return fiber.StatusInternalServerError, errorResponse{Message: internalErrorMessage}
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, autherror.ErrEmailAlreadyInUse):
		return "Email already in use"
	case errors.Is(err, autherror.ErrUsernameTaken):
		return "Username already taken"
	default:
		return "Resource already exists"
	}
}

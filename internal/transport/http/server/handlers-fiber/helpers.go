package handlers_fiber

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"taskhub/internal/entities"
	"taskhub/internal/transport/http/dto"
)

func writeError(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	code := dto.CodeInternal
	msg := "internal error"

	switch {
	case errors.Is(err, entities.ErrInvalidArgument):
		status = http.StatusBadRequest
		code = dto.CodeInvalidArgument
		msg = err.Error()
	case errors.Is(err, entities.ErrUserNotFound),
		errors.Is(err, entities.ErrTaskNotFound),
		errors.Is(err, entities.ErrJobNotFound):
		status = http.StatusNotFound
		code = dto.CodeNotFound
		msg = "resource not found"
	case errors.Is(err, entities.ErrEmailTaken):
		status = http.StatusConflict
		code = dto.CodeEmailTaken
		msg = "email already registered"
	case errors.Is(err, entities.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		code = dto.CodeUnauthorized
		msg = "invalid credentials"
	case errors.Is(err, entities.ErrTokenRevoked):
		status = http.StatusUnauthorized
		code = dto.CodeTokenRevoked
		msg = "refresh token revoked"
	case errors.Is(err, entities.ErrTokenInvalid):
		status = http.StatusUnauthorized
		code = dto.CodeUnauthorized
		msg = "invalid or expired token"
	case errors.Is(err, entities.ErrUserInactive):
		status = http.StatusForbidden
		code = dto.CodeUserInactive
		msg = "account is deactivated"
	case errors.Is(err, entities.ErrForbidden):
		status = http.StatusForbidden
		code = dto.CodeForbidden
		msg = "operation not allowed"
	case errors.Is(err, entities.ErrTaskDone):
		status = http.StatusConflict
		code = dto.CodeTaskDone
		msg = "cannot modify a completed task"
	case errors.Is(err, entities.ErrJobNotRetryable):
		status = http.StatusConflict
		code = dto.CodeNotRetryable
		msg = "job is not retryable"
	}

	return c.Status(status).JSON(errorResponse(code, msg))
}

func errorResponse(code dto.ErrorCode, msg string) dto.ErrorResponse {
	return dto.ErrorResponse{Error: dto.ErrorBody{Code: code, Message: msg}}
}

// writeUnauthorized covers the unreachable case of a protected route
// running without Authn having stored a principal.
func writeUnauthorized(c *fiber.Ctx) error {
	return c.Status(http.StatusUnauthorized).JSON(errorResponse(dto.CodeUnauthorized, "missing bearer token"))
}

package handlers_fiber

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"taskhub/internal/entities"
	"taskhub/internal/transport/http/dto"
)

func TestWriteErrorEmailTaken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return writeError(c, entities.ErrEmailTaken)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, dto.CodeEmailTaken, body.Error.Code)
	require.Equal(t, "email already registered", body.Error.Message)
}

func TestWriteErrorNotFoundMessage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return writeError(c, entities.ErrTaskNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, dto.CodeNotFound, body.Error.Code)
	require.Equal(t, "resource not found", body.Error.Message)
}

func TestWriteErrorInvalidArgumentKeepsMessage(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return writeError(c, fmt.Errorf("%w: title is required", entities.ErrInvalidArgument))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, dto.CodeInvalidArgument, body.Error.Code)
	require.Contains(t, body.Error.Message, "title is required")
}

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{name: "credentials", err: entities.ErrInvalidCredentials, status: http.StatusUnauthorized, code: dto.CodeUnauthorized},
		{name: "revoked", err: entities.ErrTokenRevoked, status: http.StatusUnauthorized, code: dto.CodeTokenRevoked},
		{name: "inactive", err: entities.ErrUserInactive, status: http.StatusForbidden, code: dto.CodeUserInactive},
		{name: "forbidden", err: entities.ErrForbidden, status: http.StatusForbidden, code: dto.CodeForbidden},
		{name: "task_done", err: entities.ErrTaskDone, status: http.StatusConflict, code: dto.CodeTaskDone},
		{name: "not_retryable", err: entities.ErrJobNotRetryable, status: http.StatusConflict, code: dto.CodeNotRetryable},
		{name: "unknown", err: fmt.Errorf("connection reset"), status: http.StatusInternalServerError, code: dto.CodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return writeError(c, tc.err)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, tc.status, resp.StatusCode)

			var body dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tc.code, body.Error.Code)
		})
	}
}

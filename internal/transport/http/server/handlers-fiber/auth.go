package handlers_fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"taskhub/internal/mapper"
	"taskhub/internal/transport/http/dto"
)

// Register creates a MEMBER account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var body dto.RegisterRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorResponse(dto.CodeInvalidArgument, "invalid body"))
	}

	user, err := h.uc.Register(c.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		h.log.Errorw("failed to register", "error", err.Error())
		return writeError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(dto.UserResponse{User: mapper.ToDTOUser(*user)})
}

// Login exchanges credentials for a token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body dto.LoginRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorResponse(dto.CodeInvalidArgument, "invalid body"))
	}

	user, pair, err := h.uc.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		h.log.Errorw("failed to login", "error", err.Error())
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.LoginResponse{
		User:   mapper.ToDTOUser(*user),
		Tokens: mapper.ToDTOTokenPair(pair),
	})
}

// Refresh rotates a refresh token into a fresh pair.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var body dto.RefreshRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorResponse(dto.CodeInvalidArgument, "invalid body"))
	}

	pair, err := h.uc.Refresh(c.Context(), body.RefreshToken)
	if err != nil {
		h.log.Errorw("failed to refresh", "error", err.Error())
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.TokensResponse{Tokens: mapper.ToDTOTokenPair(pair)})
}

// Logout revokes the presented refresh token.
func (h *Handler) Logout(c *fiber.Ctx) error {
	var body dto.RefreshRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorResponse(dto.CodeInvalidArgument, "invalid body"))
	}

	if err := h.uc.Logout(c.Context(), body.RefreshToken); err != nil {
		h.log.Errorw("failed to logout", "error", err.Error())
		return writeError(c, err)
	}

	return c.SendStatus(http.StatusNoContent)
}

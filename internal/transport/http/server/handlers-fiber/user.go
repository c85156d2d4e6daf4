package handlers_fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"taskhub/internal/mapper"
	"taskhub/internal/transport/http/dto"
	"taskhub/internal/transport/http/middleware"
)

// Me returns the caller's own account.
func (h *Handler) Me(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	user, err := h.uc.User(c.Context(), p, p.UserID)
	if err != nil {
		h.log.Errorw("failed to get own account", "error", err.Error())
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.UserResponse{User: mapper.ToDTOUser(*user)})
}

// GetUser returns an account by id.
func (h *Handler) GetUser(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	user, err := h.uc.User(c.Context(), p, c.Params("id"))
	if err != nil {
		h.log.Errorw("failed to get user", "error", err.Error(), "user_id", c.Params("id"))
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.UserResponse{User: mapper.ToDTOUser(*user)})
}

// UpdateUser patches an account's name or password.
func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	var body dto.UpdateUserRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorResponse(dto.CodeInvalidArgument, "invalid body"))
	}

	user, err := h.uc.UpdateUser(c.Context(), p, c.Params("id"), body.Name, body.Password)
	if err != nil {
		h.log.Errorw("failed to update user", "error", err.Error(), "user_id", c.Params("id"))
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.UserResponse{User: mapper.ToDTOUser(*user)})
}

// ListUsers returns accounts newest first.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.uc.Users(c.Context(), c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		h.log.Errorw("failed to list users", "error", err.Error())
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.UsersResponse{Users: mapper.ToDTOUserList(users)})
}

// SetUserActive toggles an account's active flag.
func (h *Handler) SetUserActive(c *fiber.Ctx) error {
	var body dto.SetActiveRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(http.StatusBadRequest).JSON(errorResponse(dto.CodeInvalidArgument, "invalid body"))
	}

	user, err := h.uc.SetActiveUser(c.Context(), c.Params("id"), body.IsActive)
	if err != nil {
		h.log.Errorw("failed to set is_active for user", "error", err.Error(), "user_id", c.Params("id"))
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(dto.UserResponse{User: mapper.ToDTOUser(*user)})
}

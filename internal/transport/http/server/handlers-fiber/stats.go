package handlers_fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"taskhub/internal/transport/http/middleware"
)

// Stats returns the service-wide aggregation.
func (h *Handler) Stats(c *fiber.Ctx) error {
	statsRes, err := h.uc.Stats(c.Context())
	if err != nil {
		h.log.Errorw("failed to get stats", "error", err.Error())
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(statsRes)
}

// UserStats returns activity counters for one user.
func (h *Handler) UserStats(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFromCtx(c)
	if !ok {
		return writeUnauthorized(c)
	}

	res, err := h.uc.UserStats(c.Context(), p, c.Params("id"), c.QueryInt("limit"))
	if err != nil {
		h.log.Errorw("failed to get user stats", "error", err.Error(), "user_id", c.Params("id"))
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(res)
}

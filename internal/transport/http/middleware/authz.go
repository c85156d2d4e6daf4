package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"taskhub/internal/transport/http/dto"
)

// RequireAdmin rejects requests whose principal is not an ADMIN. It must
// run behind Authn.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFromCtx(c)
		if !ok {
			return unauthorized(c, "missing bearer token")
		}
		if !p.IsAdmin() {
			return c.Status(http.StatusForbidden).JSON(dto.ErrorResponse{
				Error: dto.ErrorBody{Code: dto.CodeForbidden, Message: "admin role required"},
			})
		}
		return c.Next()
	}
}

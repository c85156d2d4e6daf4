package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskhub/internal/auth"
	"taskhub/internal/entities"
	"taskhub/internal/transport/http/dto"
)

const principalKey = "principal"

// Authn verifies the Bearer access token and stores the principal in
// request locals. Refresh tokens are rejected here.
func Authn(log *zap.SugaredLogger, tokens *auth.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || raw == "" {
			return unauthorized(c, "missing bearer token")
		}

		claims, err := tokens.ParseAccess(raw)
		if err != nil {
			log.Infow("access token rejected", "error", err, "path", c.Path())
			return unauthorized(c, "invalid or expired token")
		}

		c.Locals(principalKey, claims.Principal())
		return c.Next()
	}
}

// PrincipalFromCtx returns the principal stored by Authn.
func PrincipalFromCtx(c *fiber.Ctx) (entities.Principal, bool) {
	p, ok := c.Locals(principalKey).(entities.Principal)
	return p, ok
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(http.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: dto.ErrorBody{Code: dto.CodeUnauthorized, Message: msg},
	})
}

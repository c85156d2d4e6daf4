package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"taskhub/internal/ratelimit"
	"taskhub/internal/transport/http/dto"
)

// KeyFunc derives the bucket key for a request.
type KeyFunc func(c *fiber.Ctx) string

// ClientIP keys buckets by the client address. This is the default.
func ClientIP(c *fiber.Ctx) string {
	return c.IP()
}

// RateLimit rejects requests exceeding the per-key token bucket with 429
// and a Retry-After hint in whole seconds, rounded up.
func RateLimit(limiter *ratelimit.Limiter, key KeyFunc) fiber.Handler {
	if key == nil {
		key = ClientIP
	}
	return func(c *fiber.Ctx) error {
		ok, retryAfter := limiter.Allow(key(c))
		if ok {
			return c.Next()
		}

		secs := int((retryAfter + time.Second - 1) / time.Second)
		if secs < 1 {
			secs = 1
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
		return c.Status(http.StatusTooManyRequests).JSON(dto.ErrorResponse{
			Error: dto.ErrorBody{Code: dto.CodeRateLimited, Message: "rate limit exceeded"},
		})
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskhub/config"
	"taskhub/internal/auth"
	"taskhub/internal/entities"
	"taskhub/internal/ratelimit"
)

func testTokens() *auth.Manager {
	return auth.New(config.JWTConfig{
		Secret:     "unit-test-secret-unit-test-secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Issuer:     "taskhub",
		Audience:   "taskhub-clients",
	})
}

func echoPrincipal(c *fiber.Ctx) error {
	p, ok := PrincipalFromCtx(c)
	if !ok {
		return c.SendStatus(http.StatusInternalServerError)
	}
	return c.SendString(p.UserID)
}

func TestAuthn_AllowsValidAccessToken(t *testing.T) {
	tokens := testTokens()
	app := fiber.New()
	app.Get("/", Authn(zap.NewNop().Sugar(), tokens), echoPrincipal)

	access, err := tokens.SignAccess(entities.User{ID: "u1", Email: "ada@example.com", Role: entities.RoleMember})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+access)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthn_RejectsBadTokens(t *testing.T) {
	tokens := testTokens()
	app := fiber.New()
	app.Get("/", Authn(zap.NewNop().Sugar(), tokens), echoPrincipal)

	refresh, _, err := tokens.SignRefresh(entities.User{ID: "u1", Email: "ada@example.com"})
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":       "",
		"not_bearer":    "Basic dXNlcjpwYXNz",
		"garbage":       "Bearer not.a.token",
		"refresh_token": "Bearer " + refresh,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, name)
		resp.Body.Close()
	}
}

func TestRequireAdmin(t *testing.T) {
	tokens := testTokens()
	app := fiber.New()
	app.Get("/", Authn(zap.NewNop().Sugar(), tokens), RequireAdmin(), echoPrincipal)

	memberTok, err := tokens.SignAccess(entities.User{ID: "u1", Email: "ada@example.com", Role: entities.RoleMember})
	require.NoError(t, err)
	adminTok, err := tokens.SignAccess(entities.User{ID: "u2", Email: "root@example.com", Role: entities.RoleAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+memberTok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+adminTok)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestRequireAdmin_WithoutAuthn(t *testing.T) {
	app := fiber.New()
	app.Get("/", RequireAdmin(), echoPrincipal)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRateLimit_PerKeyBuckets(t *testing.T) {
	limiter := ratelimit.New(config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillInterval: time.Minute,
		IdleTTL:        time.Minute,
	})
	byHeader := func(c *fiber.Ctx) string { return c.Get("X-Client") }

	app := fiber.New()
	app.Use(RateLimit(limiter, byHeader))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	send := func(client string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", client)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	for i := 0; i < 2; i++ {
		resp := send("ada")
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d should pass", i)
		resp.Body.Close()
	}

	resp := send("ada")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
	resp.Body.Close()

	resp = send("bob")
	require.Equal(t, http.StatusOK, resp.StatusCode, "other clients keep their own bucket")
	resp.Body.Close()
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskhub/config"
	"taskhub/internal/entities"
)

func testManager() *Manager {
	return New(config.JWTConfig{
		Secret:     "unit-test-secret-unit-test-secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Issuer:     "taskhub",
		Audience:   "taskhub-clients",
	})
}

func testUser() entities.User {
	return entities.User{
		ID:    "u1",
		Email: "ada@example.com",
		Role:  entities.RoleMember,
	}
}

func TestManager_AccessRoundTrip(t *testing.T) {
	m := testManager()

	token, err := m.SignAccess(testUser())
	require.NoError(t, err)

	claims, err := m.ParseAccess(token)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, "ada@example.com", claims.Email)
	require.Equal(t, AccessToken, claims.TokenType)

	p := claims.Principal()
	require.Equal(t, "u1", p.UserID)
	require.Equal(t, entities.RoleMember, p.Role)
	require.False(t, p.IsAdmin())
}

func TestManager_RefreshCarriesPersistedJTI(t *testing.T) {
	m := testManager()

	token, rec, err := m.SignRefresh(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, rec.JTI)
	require.Equal(t, "u1", rec.UserID)
	require.WithinDuration(t, time.Now().Add(time.Hour), rec.ExpiresAt, 5*time.Second)

	claims, err := m.ParseRefresh(token)
	require.NoError(t, err)
	require.Equal(t, rec.JTI, claims.ID)
}

func TestManager_RejectsWrongTokenType(t *testing.T) {
	m := testManager()

	access, err := m.SignAccess(testUser())
	require.NoError(t, err)
	refresh, _, err := m.SignRefresh(testUser())
	require.NoError(t, err)

	_, err = m.ParseRefresh(access)
	require.ErrorIs(t, err, entities.ErrTokenInvalid)
	_, err = m.ParseAccess(refresh)
	require.ErrorIs(t, err, entities.ErrTokenInvalid)
}

func TestManager_RejectsExpiredToken(t *testing.T) {
	m := New(config.JWTConfig{
		Secret:     "unit-test-secret-unit-test-secret",
		AccessTTL:  -time.Minute,
		RefreshTTL: time.Hour,
		Issuer:     "taskhub",
		Audience:   "taskhub-clients",
	})

	token, err := m.SignAccess(testUser())
	require.NoError(t, err)

	_, err = m.ParseAccess(token)
	require.ErrorIs(t, err, entities.ErrTokenInvalid)
}

func TestManager_RejectsForeignSignature(t *testing.T) {
	m := testManager()
	other := New(config.JWTConfig{
		Secret:     "another-secret-another-secret-yes",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		Issuer:     "taskhub",
		Audience:   "taskhub-clients",
	})

	token, err := other.SignAccess(testUser())
	require.NoError(t, err)

	_, err = m.ParseAccess(token)
	require.ErrorIs(t, err, entities.ErrTokenInvalid)
}

func TestManager_RejectsGarbage(t *testing.T) {
	m := testManager()

	_, err := m.ParseAccess("not.a.token")
	require.ErrorIs(t, err, entities.ErrTokenInvalid)
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", hash)

	require.True(t, CheckPassword(hash, "correct horse battery"))
	require.False(t, CheckPassword(hash, "wrong horse"))
}

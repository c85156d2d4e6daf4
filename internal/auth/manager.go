// Package auth issues and verifies the service's JWT tokens and password hashes.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskhub/config"
	"taskhub/internal/entities"
)

// TokenType discriminates access tokens from refresh tokens. A token of one
// type is never accepted where the other is expected.
type TokenType string

const (
	// AccessToken authorizes API calls.
	AccessToken TokenType = "access"
	// RefreshToken mints new token pairs; tracked server-side by JTI.
	RefreshToken TokenType = "refresh"
)

// Claims is the token payload: registered claims plus the principal fields.
type Claims struct {
	UserID    string    `json:"uid"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the domain principal.
func (c *Claims) Principal() entities.Principal {
	return entities.Principal{
		UserID: c.UserID,
		Email:  c.Email,
		Role:   entities.Role(c.Role),
	}
}

// Manager signs and verifies HS256 token pairs.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   string
}

// New constructs a Manager from the JWT configuration section.
func New(cfg config.JWTConfig) *Manager {
	return &Manager{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
	}
}

func (m *Manager) sign(u entities.User, typ TokenType, ttl time.Duration, jti string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// SignAccess issues a short-lived access token for the user.
func (m *Manager) SignAccess(u entities.User) (string, error) {
	return m.sign(u, AccessToken, m.accessTTL, uuid.NewString())
}

// SignRefresh issues a refresh token and the server-side record to persist.
func (m *Manager) SignRefresh(u entities.User) (string, entities.RefreshTokenRecord, error) {
	jti := uuid.NewString()
	token, err := m.sign(u, RefreshToken, m.refreshTTL, jti)
	if err != nil {
		return "", entities.RefreshTokenRecord{}, err
	}

	rec := entities.RefreshTokenRecord{
		JTI:       jti,
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(m.refreshTTL),
	}
	return token, rec, nil
}

func (m *Manager) parse(raw string, typ TokenType) (*Claims, error) {
	t, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("%w: %v", entities.ErrTokenInvalid, err)
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || claims.TokenType != typ {
		return nil, fmt.Errorf("%w: not a %s token", entities.ErrTokenInvalid, typ)
	}

	return claims, nil
}

// ParseAccess verifies an access token and returns its claims.
func (m *Manager) ParseAccess(raw string) (*Claims, error) {
	return m.parse(raw, AccessToken)
}

// ParseRefresh verifies a refresh token and returns its claims.
func (m *Manager) ParseRefresh(raw string) (*Claims, error) {
	return m.parse(raw, RefreshToken)
}

// HashPassword returns the bcrypt hash to persist for a password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

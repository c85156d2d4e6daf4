// Package domain contains application Usecases orchestrating domain logic by account.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taskhub/internal/auth"
	"taskhub/internal/entities"
)

// Register creates a MEMBER account with a hashed password.
func (u *Usecase) Register(ctx context.Context, name, email, password string) (*entities.User, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	email = normalizeEmail(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", entities.ErrInvalidArgument)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email", entities.ErrInvalidArgument)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := u.repo.CreateUser(ctx, entities.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         entities.RoleMember,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}

	u.log.Infow("account registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a token pair. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (u *Usecase) Login(ctx context.Context, email, password string) (*entities.User, entities.TokenPair, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, entities.TokenPair{}, fmt.Errorf("%w: email and password are required", entities.ErrInvalidArgument)
	}

	user, err := u.repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, entities.TokenPair{}, entities.ErrInvalidCredentials
		}
		return nil, entities.TokenPair{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, entities.TokenPair{}, entities.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, entities.TokenPair{}, entities.ErrUserInactive
	}

	pair, err := u.issuePair(ctx, *user)
	if err != nil {
		return nil, entities.TokenPair{}, err
	}

	u.log.Infow("login", "user_id", user.ID)
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. A token presented twice revokes the whole session family.
func (u *Usecase) Refresh(ctx context.Context, refreshToken string) (entities.TokenPair, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	claims, err := u.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return entities.TokenPair{}, err
	}

	rec, err := u.repo.RefreshTokenByJTI(ctx, claims.ID)
	if err != nil {
		return entities.TokenPair{}, err
	}
	if rec.Revoked() {
		revoked, revokeErr := u.repo.RevokeUserRefreshTokens(ctx, rec.UserID)
		if revokeErr != nil {
			return entities.TokenPair{}, revokeErr
		}
		u.log.Warnw("refresh token reuse detected", "user_id", rec.UserID, "revoked", revoked)
		return entities.TokenPair{}, entities.ErrTokenRevoked
	}

	user, err := u.repo.UserByID(ctx, rec.UserID)
	if err != nil {
		return entities.TokenPair{}, err
	}
	if !user.IsActive {
		return entities.TokenPair{}, entities.ErrUserInactive
	}

	if err := u.repo.RevokeRefreshToken(ctx, claims.ID); err != nil {
		return entities.TokenPair{}, err
	}

	pair, err := u.issuePair(ctx, *user)
	if err != nil {
		return entities.TokenPair{}, err
	}

	u.log.Infow("refresh token rotated", "user_id", user.ID)
	return pair, nil
}

// Logout revokes the presented refresh token. Revoking twice is a no-op.
func (u *Usecase) Logout(ctx context.Context, refreshToken string) error {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	claims, err := u.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return err
	}
	return u.repo.RevokeRefreshToken(ctx, claims.ID)
}

// EnsureAdmin creates the bootstrap ADMIN account unless it already exists.
// Empty email disables bootstrapping.
func (u *Usecase) EnsureAdmin(ctx context.Context, email, password string) error {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	if _, err := u.repo.UserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, entities.ErrUserNotFound) {
		return err
	}

	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin, err := u.repo.CreateUser(ctx, entities.User{
		ID:           uuid.NewString(),
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         entities.RoleAdmin,
		IsActive:     true,
	})
	if err != nil {
		return err
	}

	u.log.Infow("bootstrap admin created", "user_id", admin.ID)
	return nil
}

func (u *Usecase) issuePair(ctx context.Context, user entities.User) (entities.TokenPair, error) {
	access, err := u.tokens.SignAccess(user)
	if err != nil {
		return entities.TokenPair{}, fmt.Errorf("sign access: %w", err)
	}
	refresh, rec, err := u.tokens.SignRefresh(user)
	if err != nil {
		return entities.TokenPair{}, fmt.Errorf("sign refresh: %w", err)
	}
	if err := u.repo.SaveRefreshToken(ctx, rec); err != nil {
		return entities.TokenPair{}, err
	}
	return entities.TokenPair{Access: access, Refresh: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", entities.ErrInvalidArgument)
	}
	if len(password) > 72 {
		return fmt.Errorf("%w: password must be at most 72 characters", entities.ErrInvalidArgument)
	}
	return nil
}

// Package domain contains application Usecases orchestrating domain logic by user.
package domain

import (
	"context"
	"fmt"

	"taskhub/internal/auth"
	"taskhub/internal/entities"
)

// User returns an account. Members may only read themselves.
func (u *Usecase) User(ctx context.Context, principal entities.Principal, userID string) (*entities.User, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", entities.ErrInvalidArgument)
	}
	if !principal.IsAdmin() && principal.UserID != userID {
		return nil, entities.ErrForbidden
	}

	return u.repo.UserByID(ctx, userID)
}

// Users lists accounts newest first.
func (u *Usecase) Users(ctx context.Context, limit, offset int) ([]entities.User, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	return u.repo.ListUsers(ctx, limit, offset)
}

// UpdateUser changes name or password. Members may only change themselves;
// a password change revokes the user's refresh tokens.
func (u *Usecase) UpdateUser(ctx context.Context, principal entities.Principal, userID string, name, password *string) (*entities.User, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", entities.ErrInvalidArgument)
	}
	if !principal.IsAdmin() && principal.UserID != userID {
		return nil, entities.ErrForbidden
	}

	patch := entities.UserPatch{}
	if name != nil {
		if *name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", entities.ErrInvalidArgument)
		}
		patch.Name = name
	}
	if password != nil {
		if err := validatePassword(*password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		patch.PasswordHash = &hash
	}
	if patch.IsZero() {
		return nil, fmt.Errorf("%w: nothing to update", entities.ErrInvalidArgument)
	}

	user, err := u.repo.UpdateUser(ctx, userID, patch)
	if err != nil {
		return nil, err
	}

	if patch.PasswordHash != nil {
		if _, err := u.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
			return nil, err
		}
		u.log.Infow("password changed, sessions revoked", "user_id", userID)
	}
	return user, nil
}

// SetActiveUser toggles the account flag. Deactivating revokes the user's
// refresh tokens so open sessions die with the account.
func (u *Usecase) SetActiveUser(ctx context.Context, userID string, isActive bool) (*entities.User, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", entities.ErrInvalidArgument)
	}

	user, err := u.repo.SetUserActive(ctx, userID, isActive)
	if err != nil {
		return nil, err
	}

	if !isActive {
		if _, err := u.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}

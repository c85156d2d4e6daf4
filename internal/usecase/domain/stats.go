// Package domain contains application services orchestrating domain logic by statistics.
package domain

import (
	"context"
	"fmt"

	"taskhub/internal/entities"
)

// Stats returns aggregated service-wide stats.
func (u *Usecase) Stats(ctx context.Context) (entities.Stats, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	return u.repo.Stats(ctx)
}

// UserStats returns stats for a specific user. Members may only read their own.
func (u *Usecase) UserStats(ctx context.Context, principal entities.Principal, userID string, limit int) (entities.UserStats, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if userID == "" {
		return entities.UserStats{}, fmt.Errorf("%w: user_id is required", entities.ErrInvalidArgument)
	}
	if !principal.IsAdmin() && principal.UserID != userID {
		return entities.UserStats{}, entities.ErrForbidden
	}
	if limit <= 0 {
		limit = 10
	}
	return u.repo.UserStats(ctx, userID, limit)
}

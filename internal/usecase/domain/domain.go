package domain

import (
	"context"
	"time"

	"go.uber.org/zap"

	"taskhub/internal/auth"
	"taskhub/internal/repository"
)

// Usecase struct implements all usecase interfaces.
type Usecase struct {
	ctx         context.Context
	log         *zap.SugaredLogger
	repo        repository.Repository
	tokens      *auth.Manager
	timeout     time.Duration
	jobAttempts int
}

// New constructs a new usecase layer with its dependencies.
func New(
	log *zap.SugaredLogger,
	ctx context.Context,
	repo repository.Repository,
	tokens *auth.Manager,
	timeout time.Duration,
	jobAttempts int,
) *Usecase {
	return &Usecase{
		ctx:         ctx,
		log:         log,
		repo:        repo,
		tokens:      tokens,
		timeout:     timeout,
		jobAttempts: jobAttempts,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"taskhub/internal/auth"
	"taskhub/internal/repository"
	"taskhub/internal/usecase/domain"
)

// InterfaceUsecase aggregates all usecase interfaces.
type InterfaceUsecase interface {
	AuthUsecaseInterface
	UserUsecaseInterface
	TaskUsecaseInterface
	ExportUsecaseInterface
	StatsUsecaseInterface
}

// New constructs a new usecase layer with its dependencies.
func New(log *zap.SugaredLogger, ctx context.Context, repo repository.Repository, tokens *auth.Manager, timeout time.Duration, jobAttempts int) InterfaceUsecase {
	return domain.New(log, ctx, repo, tokens, timeout, jobAttempts)
}

package usecase

import (
	"context"

	"taskhub/internal/entities"
)

// AuthUsecaseInterface abstracts account and session operations for the delivery layer.
type AuthUsecaseInterface interface {
	Register(ctx context.Context, name, email, password string) (*entities.User, error)
	Login(ctx context.Context, email, password string) (*entities.User, entities.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (entities.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	EnsureAdmin(ctx context.Context, email, password string) error
}

// UserUsecaseInterface abstracts user-related operations.
type UserUsecaseInterface interface {
	User(ctx context.Context, principal entities.Principal, userID string) (*entities.User, error)
	Users(ctx context.Context, limit, offset int) ([]entities.User, error)
	UpdateUser(ctx context.Context, principal entities.Principal, userID string, name, password *string) (*entities.User, error)
	SetActiveUser(ctx context.Context, userID string, isActive bool) (*entities.User, error)
}

// TaskUsecaseInterface abstracts task-related operations.
type TaskUsecaseInterface interface {
	CreateTask(ctx context.Context, principal entities.Principal, task entities.Task) (*entities.Task, error)
	Task(ctx context.Context, principal entities.Principal, taskID string) (*entities.Task, error)
	Tasks(ctx context.Context, principal entities.Principal, filter entities.TaskFilter) ([]entities.Task, error)
	UpdateTask(ctx context.Context, principal entities.Principal, taskID string, patch entities.TaskPatch) (*entities.Task, error)
	CompleteTask(ctx context.Context, principal entities.Principal, taskID string) (*entities.Task, error)
	DeleteTask(ctx context.Context, principal entities.Principal, taskID string) error
}

// ExportUsecaseInterface abstracts export job operations.
type ExportUsecaseInterface interface {
	CreateExport(ctx context.Context, principal entities.Principal, kind entities.JobKind) (*entities.ExportJob, error)
	Export(ctx context.Context, principal entities.Principal, jobID string) (*entities.ExportJob, error)
	Exports(ctx context.Context, principal entities.Principal, limit, offset int) ([]entities.ExportJob, error)
	RetryExport(ctx context.Context, principal entities.Principal, jobID string) (*entities.ExportJob, error)
}

// StatsUsecaseInterface abstracts statistics operations.
type StatsUsecaseInterface interface {
	Stats(ctx context.Context) (entities.Stats, error)
	UserStats(ctx context.Context, principal entities.Principal, userID string, limit int) (entities.UserStats, error)
}

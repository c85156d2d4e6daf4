// Package repository contains repository interfaces for persistence layers.
package repository

import (
	"context"
	"time"

	"taskhub/internal/entities"
)

// LifecycleInterface describes storage startup/shutdown hooks.
type LifecycleInterface interface {
	OnStart(_ context.Context) error
	OnStop(_ context.Context) error
}

// UserInterface exposes account operations.
type UserInterface interface {
	// CreateUser inserts a user; ErrEmailTaken on duplicate email.
	CreateUser(ctx context.Context, user entities.User) (*entities.User, error)
	// UserByEmail returns the user including password hash.
	UserByEmail(ctx context.Context, email string) (*entities.User, error)
	UserByID(ctx context.Context, id string) (*entities.User, error)
	// ListUsers returns accounts newest first.
	ListUsers(ctx context.Context, limit, offset int) ([]entities.User, error)
	UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error)
	SetUserActive(ctx context.Context, id string, isActive bool) (*entities.User, error)
}

// TokenInterface exposes refresh-token bookkeeping.
type TokenInterface interface {
	SaveRefreshToken(ctx context.Context, rec entities.RefreshTokenRecord) error
	// RefreshTokenByJTI returns ErrTokenInvalid for unknown JTIs.
	RefreshTokenByJTI(ctx context.Context, jti string) (*entities.RefreshTokenRecord, error)
	// RevokeRefreshToken is idempotent; revoking twice keeps the first RevokedAt.
	RevokeRefreshToken(ctx context.Context, jti string) error
	// RevokeUserRefreshTokens revokes every live token of the user and
	// returns how many were revoked.
	RevokeUserRefreshTokens(ctx context.Context, userID string) (int, error)
	// PurgeExpiredTokens deletes records expired before now.
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int, error)
}

// TaskInterface exposes task operations.
type TaskInterface interface {
	CreateTask(ctx context.Context, task entities.Task) (*entities.Task, error)
	TaskByID(ctx context.Context, id string) (*entities.Task, error)
	ListTasks(ctx context.Context, filter entities.TaskFilter) ([]entities.Task, error)
	// UpdateTask rejects DONE tasks with ErrTaskDone.
	UpdateTask(ctx context.Context, id string, patch entities.TaskPatch) (*entities.Task, error)
	// CompleteTask is idempotent; repeat calls keep the first CompletedAt.
	CompleteTask(ctx context.Context, id string) (*entities.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// JobInterface exposes the export job queue.
type JobInterface interface {
	CreateJob(ctx context.Context, job entities.ExportJob) (*entities.ExportJob, error)
	JobByID(ctx context.Context, id string) (*entities.ExportJob, error)
	// ListJobs returns the owner's jobs newest first.
	ListJobs(ctx context.Context, ownerID string, limit, offset int) ([]entities.ExportJob, error)
	// ClaimPendingJob atomically claims the oldest PENDING job, flipping it
	// to RUNNING and spending an attempt. (nil, nil) when the queue is empty.
	ClaimPendingJob(ctx context.Context) (*entities.ExportJob, error)
	CompleteJob(ctx context.Context, id, artifactURL string) (*entities.ExportJob, error)
	FailJob(ctx context.Context, id, message string) (*entities.ExportJob, error)
	// RetryJob requeues a FAILED job with attempts remaining; ErrJobNotRetryable otherwise.
	RetryJob(ctx context.Context, id string) (*entities.ExportJob, error)
	// RequeueStaleJobs rescues jobs stuck RUNNING longer than staleAfter:
	// requeued while attempts remain, failed otherwise.
	RequeueStaleJobs(ctx context.Context, staleAfter time.Duration) (requeued, failed int, err error)
}

// StatsInterface exposes aggregated statistics operations.
type StatsInterface interface {
	Stats(ctx context.Context) (entities.Stats, error)
	UserStats(ctx context.Context, userID string, recentLimit int) (entities.UserStats, error)
}

// Package domain contains application Usecases orchestrating domain logic by export.
package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"taskhub/internal/entities"
)

// CreateExport enqueues an export job for the caller's tasks.
func (u *Usecase) CreateExport(ctx context.Context, principal entities.Principal, kind entities.JobKind) (*entities.ExportJob, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if kind == "" {
		kind = entities.KindTaskCSV
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown export kind %q", entities.ErrInvalidArgument, kind)
	}

	job, err := u.repo.CreateJob(ctx, entities.ExportJob{
		ID:          uuid.NewString(),
		OwnerID:     principal.UserID,
		Kind:        kind,
		Status:      entities.JobPending,
		MaxAttempts: u.jobAttempts,
	})
	if err != nil {
		return nil, err
	}
	u.log.Infow("export enqueued", "job_id", job.ID, "owner_id", job.OwnerID)
	return job, nil
}

// Export returns an export job. Foreign jobs read by members look nonexistent.
func (u *Usecase) Export(ctx context.Context, principal entities.Principal, jobID string) (*entities.ExportJob, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	return u.ownedJob(ctx, principal, jobID)
}

// Exports lists the caller's export jobs newest first.
func (u *Usecase) Exports(ctx context.Context, principal entities.Principal, limit, offset int) ([]entities.ExportJob, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	return u.repo.ListJobs(ctx, principal.UserID, limit, offset)
}

// RetryExport requeues a FAILED job of the caller while attempts remain.
func (u *Usecase) RetryExport(ctx context.Context, principal entities.Principal, jobID string) (*entities.ExportJob, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.ownedJob(ctx, principal, jobID); err != nil {
		return nil, err
	}
	return u.repo.RetryJob(ctx, jobID)
}

func (u *Usecase) ownedJob(ctx context.Context, principal entities.Principal, jobID string) (*entities.ExportJob, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job_id is required", entities.ErrInvalidArgument)
	}
	job, err := u.repo.JobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && job.OwnerID != principal.UserID {
		return nil, entities.ErrJobNotFound
	}
	return job, nil
}

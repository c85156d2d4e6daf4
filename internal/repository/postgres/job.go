package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"taskhub/internal/entities"
)

const (
	insertJobQuery = `INSERT INTO export_jobs(id, owner_id, kind, status, max_attempts)
VALUES ($1,$2,$3,$4,$5)
RETURNING created_at, updated_at`
	selectJobQuery = `SELECT id, owner_id, kind, status, attempts, max_attempts, error, artifact_url,
       created_at, updated_at, started_at, finished_at
FROM export_jobs WHERE id=$1`
	selectJobForUpdateQuery = `SELECT id, owner_id, kind, status, attempts, max_attempts, error, artifact_url,
       created_at, updated_at, started_at, finished_at
FROM export_jobs WHERE id=$1 FOR UPDATE`
	selectJobsQuery = `SELECT id, owner_id, kind, status, attempts, max_attempts, error, artifact_url,
       created_at, updated_at, started_at, finished_at
FROM export_jobs WHERE owner_id=$1
ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`
	claimJobQuery = `WITH next AS (
    SELECT id FROM export_jobs
    WHERE status='PENDING'
    ORDER BY created_at
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
UPDATE export_jobs j
SET status='RUNNING', attempts=j.attempts+1, started_at=NOW(), finished_at=NULL, updated_at=NOW()
FROM next
WHERE j.id = next.id
RETURNING j.id, j.owner_id, j.kind, j.status, j.attempts, j.max_attempts, j.error, j.artifact_url,
          j.created_at, j.updated_at, j.started_at, j.finished_at`
	completeJobQuery = `UPDATE export_jobs
SET status='DONE', artifact_url=$2, error=NULL, finished_at=NOW(), updated_at=NOW()
WHERE id=$1
RETURNING id, owner_id, kind, status, attempts, max_attempts, error, artifact_url,
          created_at, updated_at, started_at, finished_at`
	failJobQuery = `UPDATE export_jobs
SET status='FAILED', error=$2, finished_at=NOW(), updated_at=NOW()
WHERE id=$1
RETURNING id, owner_id, kind, status, attempts, max_attempts, error, artifact_url,
          created_at, updated_at, started_at, finished_at`
	retryJobQuery = `UPDATE export_jobs
SET status='PENDING', error=NULL, started_at=NULL, finished_at=NULL, updated_at=NOW()
WHERE id=$1
RETURNING updated_at`
	requeueStaleQuery = `UPDATE export_jobs
SET status='PENDING', started_at=NULL, updated_at=NOW()
WHERE status='RUNNING' AND started_at < $1 AND attempts < max_attempts`
	failStaleQuery = `UPDATE export_jobs
SET status='FAILED', error='worker timed out', finished_at=NOW(), updated_at=NOW()
WHERE status='RUNNING' AND started_at < $1 AND attempts >= max_attempts`
)

// CreateJob enqueues a new export job.
func (p *Postgres) CreateJob(ctx context.Context, job entities.ExportJob) (*entities.ExportJob, error) {
	err := p.db.QueryRow(ctx, insertJobQuery,
		job.ID, job.OwnerID, job.Kind, job.Status, job.MaxAttempts).
		Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		p.log.Errorw("failed to insert export job", "error", err, "owner_id", job.OwnerID)
		return nil, fmt.Errorf("insert job: %w", err)
	}

	p.log.Infow("export job enqueued", "job_id", job.ID, "owner_id", job.OwnerID, "kind", job.Kind)
	return &job, nil
}

// JobByID returns the export job with the given id.
func (p *Postgres) JobByID(ctx context.Context, id string) (*entities.ExportJob, error) {
	var j entities.ExportJob
	err := p.db.QueryRow(ctx, selectJobQuery, id).
		Scan(&j.ID, &j.OwnerID, &j.Kind, &j.Status, &j.Attempts, &j.MaxAttempts, &j.Error, &j.ArtifactURL,
			&j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrJobNotFound
		}
		p.log.Errorw("failed to query export job", "error", err, "job_id", id)
		return nil, fmt.Errorf("job by id: %w", err)
	}

	return &j, nil
}

// ListJobs returns the owner's jobs newest first.
func (p *Postgres) ListJobs(ctx context.Context, ownerID string, limit, offset int) ([]entities.ExportJob, error) {
	rows, err := p.db.Query(ctx, selectJobsQuery, ownerID, limit, offset)
	if err != nil {
		p.log.Errorw("failed to select export jobs", "error", err, "owner_id", ownerID)
		return nil, fmt.Errorf("select jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]entities.ExportJob, 0)
	for rows.Next() {
		var j entities.ExportJob
		if err := rows.Scan(&j.ID, &j.OwnerID, &j.Kind, &j.Status, &j.Attempts, &j.MaxAttempts, &j.Error, &j.ArtifactURL,
			&j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.FinishedAt); err != nil {
			p.log.Errorw("failed to scan export job", "error", err)
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		p.log.Errorw("failed to iterate export jobs", "error", err)
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}

	return jobs, nil
}

// ClaimPendingJob atomically claims the oldest PENDING job. Concurrent
// claimers skip rows locked by each other, so every job is handed to
// exactly one worker.
func (p *Postgres) ClaimPendingJob(ctx context.Context) (*entities.ExportJob, error) {
	var j entities.ExportJob
	err := p.db.QueryRow(ctx, claimJobQuery).
		Scan(&j.ID, &j.OwnerID, &j.Kind, &j.Status, &j.Attempts, &j.MaxAttempts, &j.Error, &j.ArtifactURL,
			&j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		p.log.Errorw("failed to claim pending job", "error", err)
		return nil, fmt.Errorf("claim job: %w", err)
	}

	p.log.Infow("export job claimed", "job_id", j.ID, "attempt", j.Attempts)
	return &j, nil
}

// CompleteJob marks the job DONE and stores the artifact location.
func (p *Postgres) CompleteJob(ctx context.Context, id, artifactURL string) (*entities.ExportJob, error) {
	var j entities.ExportJob
	err := p.db.QueryRow(ctx, completeJobQuery, id, artifactURL).
		Scan(&j.ID, &j.OwnerID, &j.Kind, &j.Status, &j.Attempts, &j.MaxAttempts, &j.Error, &j.ArtifactURL,
			&j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.FinishedAt)
	if err != nil {
		p.log.Errorw("failed to complete export job", "error", err, "job_id", id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrJobNotFound
		}
		return nil, fmt.Errorf("complete job: %w", err)
	}

	p.log.Infow("export job done", "job_id", id, "artifact_url", artifactURL)
	return &j, nil
}

// FailJob marks the job FAILED with the worker's error message.
func (p *Postgres) FailJob(ctx context.Context, id, message string) (*entities.ExportJob, error) {
	var j entities.ExportJob
	err := p.db.QueryRow(ctx, failJobQuery, id, message).
		Scan(&j.ID, &j.OwnerID, &j.Kind, &j.Status, &j.Attempts, &j.MaxAttempts, &j.Error, &j.ArtifactURL,
			&j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.FinishedAt)
	if err != nil {
		p.log.Errorw("failed to fail export job", "error", err, "job_id", id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrJobNotFound
		}
		return nil, fmt.Errorf("fail job: %w", err)
	}

	p.log.Infow("export job failed", "job_id", id, "attempt", j.Attempts, "message", message)
	return &j, nil
}

// RetryJob requeues a FAILED job that still has attempts left.
func (p *Postgres) RetryJob(ctx context.Context, id string) (res *entities.ExportJob, err error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var j entities.ExportJob
	if err := tx.QueryRow(ctx, selectJobForUpdateQuery, id).
		Scan(&j.ID, &j.OwnerID, &j.Kind, &j.Status, &j.Attempts, &j.MaxAttempts, &j.Error, &j.ArtifactURL,
			&j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.FinishedAt); err != nil {
		p.log.Errorw("failed to select job for update", "error", err, "job_id", id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}

	if !j.Retryable() {
		return nil, entities.ErrJobNotRetryable
	}

	if err := tx.QueryRow(ctx, retryJobQuery, id).Scan(&j.UpdatedAt); err != nil {
		p.log.Errorw("failed to retry export job", "error", err, "job_id", id)
		return nil, fmt.Errorf("retry job: %w", err)
	}
	j.Status = entities.JobPending
	j.Error = nil
	j.StartedAt = nil
	j.FinishedAt = nil

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	p.log.Infow("export job requeued", "job_id", id, "attempt", j.Attempts)
	return &j, nil
}

// RequeueStaleJobs rescues jobs whose worker died mid-run. Jobs with
// attempts left go back to PENDING, exhausted ones are failed.
func (p *Postgres) RequeueStaleJobs(ctx context.Context, staleAfter time.Duration) (requeued, failed int, err error) {
	cutoff := time.Now().Add(-staleAfter)

	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	requeuedTag, err := tx.Exec(ctx, requeueStaleQuery, cutoff)
	if err != nil {
		p.log.Errorw("failed to requeue stale jobs", "error", err)
		return 0, 0, fmt.Errorf("requeue stale jobs: %w", err)
	}
	failedTag, err := tx.Exec(ctx, failStaleQuery, cutoff)
	if err != nil {
		p.log.Errorw("failed to fail stale jobs", "error", err)
		return 0, 0, fmt.Errorf("fail stale jobs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}

	requeued = int(requeuedTag.RowsAffected())
	failed = int(failedTag.RowsAffected())
	if requeued > 0 || failed > 0 {
		p.log.Infow("stale jobs rescued", "requeued", requeued, "failed", failed)
	}
	return requeued, failed, nil
}

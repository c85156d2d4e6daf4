// Package entities contains core business entities.
package entities

import "time"

// JobStatus enumerates export job lifecycle states.
type JobStatus string

const (
	// JobPending marks a job waiting to be claimed by a worker.
	JobPending JobStatus = "PENDING"
	// JobRunning marks a job claimed by a worker.
	JobRunning JobStatus = "RUNNING"
	// JobDone marks a job with a published artifact.
	JobDone JobStatus = "DONE"
	// JobFailed marks a job whose last attempt errored.
	JobFailed JobStatus = "FAILED"
)

// JobKind enumerates export artifact types.
type JobKind string

// KindTaskCSV exports the owner's tasks as a CSV document.
const KindTaskCSV JobKind = "TASK_CSV"

// Valid reports whether the kind is a known export type.
func (k JobKind) Valid() bool {
	return k == KindTaskCSV
}

// ExportJob is a queued background export. Lifecycle:
// PENDING -> RUNNING -> DONE | FAILED, and FAILED -> PENDING via retry while
// attempts remain. A job stuck RUNNING past the stale window is requeued by
// the janitor, counting as a spent attempt.
type ExportJob struct {
	ID          string
	OwnerID     string
	Kind        JobKind
	Status      JobStatus
	Attempts    int
	MaxAttempts int
	Error       *string
	ArtifactURL *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
}

// Retryable reports whether a retry request may requeue the job.
func (j ExportJob) Retryable() bool {
	return j.Status == JobFailed && j.Attempts < j.MaxAttempts
}

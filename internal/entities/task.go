// Package entities contains core business entities.
package entities

import "time"

// TaskStatus enumerates task lifecycle states.
type TaskStatus string

const (
	// TaskOpen marks a task as not yet completed.
	TaskOpen TaskStatus = "OPEN"
	// TaskDone marks a task as completed.
	TaskDone TaskStatus = "DONE"
)

// Valid reports whether the status is a known lifecycle state.
func (s TaskStatus) Valid() bool {
	return s == TaskOpen || s == TaskDone
}

// TaskPriority enumerates task urgency levels.
type TaskPriority string

const (
	// PriorityLow is for tasks without urgency.
	PriorityLow TaskPriority = "LOW"
	// PriorityMedium is the default urgency.
	PriorityMedium TaskPriority = "MEDIUM"
	// PriorityHigh is for urgent tasks.
	PriorityHigh TaskPriority = "HIGH"
)

// Valid reports whether the priority is a known level.
func (p TaskPriority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task is a domain model of a tracked task. Completion is one-way: a DONE
// task keeps its first CompletedAt on repeated completes and rejects updates.
type Task struct {
	ID          string
	OwnerID     string
	Title       string
	Notes       string
	Priority    TaskPriority
	Status      TaskStatus
	DueAt       *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// TaskPatch carries mutable task fields; nil means keep current value.
type TaskPatch struct {
	Title    *string
	Notes    *string
	Priority *TaskPriority
	DueAt    *time.Time
	ClearDue bool
}

// IsZero reports whether the patch would change nothing.
func (p TaskPatch) IsZero() bool {
	return p.Title == nil && p.Notes == nil && p.Priority == nil && p.DueAt == nil && !p.ClearDue
}

// TaskFilter limits task listings; nil fields match everything. Limit <= 0
// means no limit; repositories only apply ordering (newest first) in that case.
type TaskFilter struct {
	OwnerID  *string
	Status   *TaskStatus
	Priority *TaskPriority
	Limit    int
	Offset   int
}

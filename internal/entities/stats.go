// Package entities contains core business entities.
package entities

import "time"

// Stats aggregates service-wide counters for the admin overview.
type Stats struct {
	Users           UserTotals      `json:"users"`
	TasksByStatus   []TaskStatusCnt `json:"tasks_by_status"`
	TasksByPriority []PriorityCnt   `json:"tasks_by_priority"`
	JobsByStatus    []JobStatusCnt  `json:"jobs_by_status"`
	TopOwners       []OwnerStat     `json:"top_owners"`
}

// UserTotals counts registered and active accounts.
type UserTotals struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

// TaskStatusCnt describes task counts grouped by status.
type TaskStatusCnt struct {
	Status    TaskStatus `json:"status"`
	TaskCount int64      `json:"task_count"`
}

// PriorityCnt describes task counts grouped by priority.
type PriorityCnt struct {
	Priority  TaskPriority `json:"priority"`
	TaskCount int64        `json:"task_count"`
}

// JobStatusCnt describes export job counts grouped by status.
type JobStatusCnt struct {
	Status   JobStatus `json:"status"`
	JobCount int64     `json:"job_count"`
}

// OwnerStat aggregates task counts for one owner.
type OwnerStat struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	OpenTasks int64  `json:"open_tasks"`
	DoneTasks int64  `json:"done_tasks"`
}

// UserStats contains aggregated activity for a single user.
type UserStats struct {
	UserID       string         `json:"user_id"`
	OpenTasks    int64          `json:"open_tasks"`
	DoneTasks    int64          `json:"done_tasks"`
	OverdueTasks int64          `json:"overdue_tasks"`
	JobsByStatus []JobStatusCnt `json:"jobs_by_status"`
	RecentTasks  []TaskSummary  `json:"recent_tasks"`
}

// TaskSummary is a compact projection for stats listings.
type TaskSummary struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Status   TaskStatus   `json:"status"`
	Priority TaskPriority `json:"priority"`
	DueAt    *time.Time   `json:"due_at,omitempty"`
}

// Package dto defines the JSON request and response bodies of the HTTP API.
package dto

import "time"

// ErrorCode is the machine-readable error discriminator.
type ErrorCode string

const (
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeEmailTaken      ErrorCode = "EMAIL_TAKEN"
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeForbidden       ErrorCode = "FORBIDDEN"
	CodeUserInactive    ErrorCode = "USER_INACTIVE"
	CodeTokenRevoked    ErrorCode = "TOKEN_REVOKED"
	CodeTaskDone        ErrorCode = "TASK_DONE"
	CodeNotRetryable    ErrorCode = "JOB_NOT_RETRYABLE"
	CodeRateLimited     ErrorCode = "RATE_LIMITED"
	CodeInternal        ErrorCode = "INTERNAL"
)

// ErrorResponse is the envelope every non-2xx body uses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the error code and a human-readable message.
type ErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// RegisterRequest creates a MEMBER account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest exchanges credentials for a token pair.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest rotates or revokes a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenPair carries one issued access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// LoginResponse returns the account and its first token pair.
type LoginResponse struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// TokensResponse wraps a rotated token pair.
type TokensResponse struct {
	Tokens TokenPair `json:"tokens"`
}

// User is the public account projection; it never carries the hash.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserResponse wraps a single account.
type UserResponse struct {
	User User `json:"user"`
}

// UsersResponse wraps an account listing.
type UsersResponse struct {
	Users []User `json:"users"`
}

// UpdateUserRequest patches an account; absent fields stay unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
}

// SetActiveRequest toggles the account flag.
type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// Task is the transport projection of a task.
type Task struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CreateTaskRequest creates a task owned by the caller.
type CreateTaskRequest struct {
	Title    string     `json:"title"`
	Notes    string     `json:"notes"`
	Priority string     `json:"priority"`
	DueAt    *time.Time `json:"due_at"`
}

// UpdateTaskRequest patches an OPEN task; absent fields stay unchanged.
// ClearDue removes the due date and excludes DueAt.
type UpdateTaskRequest struct {
	Title    *string    `json:"title,omitempty"`
	Notes    *string    `json:"notes,omitempty"`
	Priority *string    `json:"priority,omitempty"`
	DueAt    *time.Time `json:"due_at,omitempty"`
	ClearDue bool       `json:"clear_due,omitempty"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task Task `json:"task"`
}

// TasksResponse wraps a task listing.
type TasksResponse struct {
	Tasks []Task `json:"tasks"`
}

// ExportJob is the transport projection of an export job.
type ExportJob struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	Error       *string    `json:"error,omitempty"`
	ArtifactURL *string    `json:"artifact_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// CreateExportRequest enqueues an export; empty kind means TASK_CSV.
type CreateExportRequest struct {
	Kind string `json:"kind"`
}

// ExportResponse wraps a single export job.
type ExportResponse struct {
	Job ExportJob `json:"job"`
}

// ExportsResponse wraps an export job listing.
type ExportsResponse struct {
	Jobs []ExportJob `json:"jobs"`
}

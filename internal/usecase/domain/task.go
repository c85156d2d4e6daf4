// Package domain contains application Usecases orchestrating domain logic by task.
package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"taskhub/internal/entities"
)

// CreateTask creates a task owned by the caller.
func (u *Usecase) CreateTask(ctx context.Context, principal entities.Principal, task entities.Task) (*entities.Task, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if task.Title == "" {
		return nil, fmt.Errorf("%w: title is required", entities.ErrInvalidArgument)
	}
	if task.Priority == "" {
		task.Priority = entities.PriorityMedium
	}
	if !task.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", entities.ErrInvalidArgument, task.Priority)
	}

	task.ID = uuid.NewString()
	task.OwnerID = principal.UserID
	task.Status = entities.TaskOpen
	task.CompletedAt = nil

	res, err := u.repo.CreateTask(ctx, task)
	if err != nil {
		return nil, err
	}
	u.log.Infow("task create", "task_id", res.ID, "owner_id", res.OwnerID)
	return res, nil
}

// Task returns a task. Foreign tasks read by members look nonexistent.
func (u *Usecase) Task(ctx context.Context, principal entities.Principal, taskID string) (*entities.Task, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	return u.ownedTask(ctx, principal, taskID)
}

// Tasks lists tasks matching the filter. Members always see only their own;
// admins may filter by any owner or none.
func (u *Usecase) Tasks(ctx context.Context, principal entities.Principal, filter entities.TaskFilter) ([]entities.Task, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if !principal.IsAdmin() {
		owner := principal.UserID
		filter.OwnerID = &owner
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", entities.ErrInvalidArgument, *filter.Status)
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", entities.ErrInvalidArgument, *filter.Priority)
	}
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return u.repo.ListTasks(ctx, filter)
}

// UpdateTask patches an OPEN task owned by the caller.
func (u *Usecase) UpdateTask(ctx context.Context, principal entities.Principal, taskID string, patch entities.TaskPatch) (*entities.Task, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if patch.IsZero() {
		return nil, fmt.Errorf("%w: nothing to update", entities.ErrInvalidArgument)
	}
	if patch.Title != nil && *patch.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", entities.ErrInvalidArgument)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", entities.ErrInvalidArgument, *patch.Priority)
	}
	if patch.ClearDue && patch.DueAt != nil {
		return nil, fmt.Errorf("%w: due_at and clear_due are mutually exclusive", entities.ErrInvalidArgument)
	}

	if _, err := u.ownedTask(ctx, principal, taskID); err != nil {
		return nil, err
	}
	return u.repo.UpdateTask(ctx, taskID, patch)
}

// CompleteTask marks a task DONE. Completing a DONE task returns it unchanged.
func (u *Usecase) CompleteTask(ctx context.Context, principal entities.Principal, taskID string) (*entities.Task, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.ownedTask(ctx, principal, taskID); err != nil {
		return nil, err
	}
	return u.repo.CompleteTask(ctx, taskID)
}

// DeleteTask removes a task owned by the caller.
func (u *Usecase) DeleteTask(ctx context.Context, principal entities.Principal, taskID string) error {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := u.ownedTask(ctx, principal, taskID); err != nil {
		return err
	}
	return u.repo.DeleteTask(ctx, taskID)
}

// ownedTask loads the task and hides foreign tasks from members behind
// ErrTaskNotFound, so ids cannot be probed.
func (u *Usecase) ownedTask(ctx context.Context, principal entities.Principal, taskID string) (*entities.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("%w: task_id is required", entities.ErrInvalidArgument)
	}
	task, err := u.repo.TaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !principal.IsAdmin() && task.OwnerID != principal.UserID {
		return nil, entities.ErrTaskNotFound
	}
	return task, nil
}

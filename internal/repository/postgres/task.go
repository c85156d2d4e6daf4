package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"taskhub/internal/entities"
)

const (
	insertTaskQuery = `INSERT INTO tasks(id, owner_id, title, notes, priority, status, due_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING created_at, updated_at`
	selectTaskQuery = `SELECT id, owner_id, title, notes, priority, status, due_at, created_at, updated_at, completed_at
FROM tasks WHERE id=$1`
	selectTaskForUpdateQuery = `SELECT id, owner_id, title, notes, priority, status, due_at, created_at, updated_at, completed_at
FROM tasks WHERE id=$1 FOR UPDATE`
	selectTasksQuery = `SELECT id, owner_id, title, notes, priority, status, due_at, created_at, updated_at, completed_at
FROM tasks
WHERE ($1::uuid IS NULL OR owner_id = $1::uuid)
  AND ($2::text IS NULL OR status = $2::text)
  AND ($3::text IS NULL OR priority = $3::text)
ORDER BY created_at DESC, id
LIMIT NULLIF($4::int, 0) OFFSET $5`
	updateTaskQuery = `UPDATE tasks
SET title      = COALESCE($2, title),
    notes      = COALESCE($3, notes),
    priority   = COALESCE($4, priority),
    due_at     = CASE WHEN $6 THEN NULL ELSE COALESCE($5, due_at) END,
    updated_at = NOW()
WHERE id=$1
RETURNING title, notes, priority, due_at, updated_at`
	completeTaskQuery = `UPDATE tasks SET status='DONE', completed_at=NOW(), updated_at=NOW()
WHERE id=$1
RETURNING completed_at, updated_at`
	deleteTaskQuery = `DELETE FROM tasks WHERE id=$1`
)

// CreateTask inserts a new task row.
func (p *Postgres) CreateTask(ctx context.Context, task entities.Task) (*entities.Task, error) {
	err := p.db.QueryRow(ctx, insertTaskQuery,
		task.ID, task.OwnerID, task.Title, task.Notes, task.Priority, task.Status, task.DueAt).
		Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		p.log.Errorw("failed to insert task", "error", err, "owner_id", task.OwnerID)
		return nil, fmt.Errorf("insert task: %w", err)
	}

	p.log.Infow("task created", "task_id", task.ID, "owner_id", task.OwnerID)
	return &task, nil
}

// TaskByID returns the task with the given id.
func (p *Postgres) TaskByID(ctx context.Context, id string) (*entities.Task, error) {
	var t entities.Task
	err := p.db.QueryRow(ctx, selectTaskQuery, id).
		Scan(&t.ID, &t.OwnerID, &t.Title, &t.Notes, &t.Priority, &t.Status,
			&t.DueAt, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		p.log.Errorw("failed to query task", "error", err, "task_id", id)
		return nil, fmt.Errorf("task by id: %w", err)
	}

	return &t, nil
}

// ListTasks returns tasks matching the filter, newest first.
func (p *Postgres) ListTasks(ctx context.Context, filter entities.TaskFilter) ([]entities.Task, error) {
	rows, err := p.db.Query(ctx, selectTasksQuery,
		filter.OwnerID, filter.Status, filter.Priority, filter.Limit, filter.Offset)
	if err != nil {
		p.log.Errorw("failed to select tasks", "error", err)
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]entities.Task, 0)
	for rows.Next() {
		var t entities.Task
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Notes, &t.Priority, &t.Status,
			&t.DueAt, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt); err != nil {
			p.log.Errorw("failed to scan task", "error", err)
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		p.log.Errorw("failed to iterate tasks", "error", err)
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// UpdateTask applies the patch to an OPEN task. DONE tasks are immutable.
func (p *Postgres) UpdateTask(ctx context.Context, id string, patch entities.TaskPatch) (res *entities.Task, err error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var t entities.Task
	if err := tx.QueryRow(ctx, selectTaskForUpdateQuery, id).
		Scan(&t.ID, &t.OwnerID, &t.Title, &t.Notes, &t.Priority, &t.Status,
			&t.DueAt, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt); err != nil {
		p.log.Errorw("failed to select task for update", "error", err, "task_id", id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	if t.Status == entities.TaskDone {
		return nil, entities.ErrTaskDone
	}

	if err := tx.QueryRow(ctx, updateTaskQuery,
		id, patch.Title, patch.Notes, patch.Priority, patch.DueAt, patch.ClearDue).
		Scan(&t.Title, &t.Notes, &t.Priority, &t.DueAt, &t.UpdatedAt); err != nil {
		p.log.Errorw("failed to update task", "error", err, "task_id", id)
		return nil, fmt.Errorf("update task: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	p.log.Infow("task updated", "task_id", id)
	return &t, nil
}

// CompleteTask marks the task DONE idempotently.
func (p *Postgres) CompleteTask(ctx context.Context, id string) (res *entities.Task, err error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var t entities.Task
	if err := tx.QueryRow(ctx, selectTaskForUpdateQuery, id).
		Scan(&t.ID, &t.OwnerID, &t.Title, &t.Notes, &t.Priority, &t.Status,
			&t.DueAt, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt); err != nil {
		p.log.Errorw("failed to select task for update", "error", err, "task_id", id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	if t.Status != entities.TaskDone {
		if err := tx.QueryRow(ctx, completeTaskQuery, id).
			Scan(&t.CompletedAt, &t.UpdatedAt); err != nil {
			p.log.Errorw("failed to complete task", "error", err, "task_id", id)
			return nil, fmt.Errorf("complete task: %w", err)
		}
		t.Status = entities.TaskDone
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	p.log.Infow("task completed", "task_id", id)
	return &t, nil
}

// DeleteTask removes the task row.
func (p *Postgres) DeleteTask(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, deleteTaskQuery, id)
	if err != nil {
		p.log.Errorw("failed to delete task", "error", err, "task_id", id)
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrTaskNotFound
	}

	p.log.Infow("task deleted", "task_id", id)
	return nil
}

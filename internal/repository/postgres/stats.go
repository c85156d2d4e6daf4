package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"taskhub/internal/entities"
)

const (
	statsUsersQuery      = `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM users`
	statsByStatusQuery   = `SELECT status, COUNT(*) FROM tasks GROUP BY status`
	statsByPriorityQuery = `SELECT priority, COUNT(*) FROM tasks GROUP BY priority`
	statsByJobQuery      = `SELECT status, COUNT(*) FROM export_jobs GROUP BY status`
	statsTopOwnersQuery  = `
SELECT u.id, u.name,
       COUNT(*) FILTER (WHERE t.status='OPEN') AS open_cnt,
       COUNT(*) FILTER (WHERE t.status='DONE') AS done_cnt
FROM tasks t
JOIN users u ON u.id = t.owner_id
GROUP BY u.id, u.name
ORDER BY COUNT(*) DESC, u.id
LIMIT 10`
	userExistsQuery     = `SELECT true FROM users WHERE id=$1`
	userTaskStatusQuery = `SELECT status, COUNT(*) FROM tasks WHERE owner_id=$1 GROUP BY status`
	userOverdueQuery    = `SELECT COUNT(*) FROM tasks
WHERE owner_id=$1 AND status='OPEN' AND due_at IS NOT NULL AND due_at < NOW()`
	userJobStatusQuery = `SELECT status, COUNT(*) FROM export_jobs WHERE owner_id=$1 GROUP BY status`
	userRecentQuery    = `SELECT id, title, status, priority, due_at
FROM tasks WHERE owner_id=$1
ORDER BY created_at DESC
LIMIT $2`
)

// Stats returns service-wide counters for the admin overview.
func (p *Postgres) Stats(ctx context.Context) (entities.Stats, error) {
	res := entities.Stats{}

	if err := p.db.QueryRow(ctx, statsUsersQuery).
		Scan(&res.Users.Total, &res.Users.Active); err != nil {
		return res, fmt.Errorf("stats users: %w", err)
	}

	rows, err := p.db.Query(ctx, statsByStatusQuery)
	if err != nil {
		return res, fmt.Errorf("stats by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s entities.TaskStatusCnt
		if err := rows.Scan(&s.Status, &s.TaskCount); err != nil {
			return res, fmt.Errorf("scan status stat: %w", err)
		}
		res.TasksByStatus = append(res.TasksByStatus, s)
	}
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("iterate status stat: %w", err)
	}

	rows2, err := p.db.Query(ctx, statsByPriorityQuery)
	if err != nil {
		return res, fmt.Errorf("stats by priority: %w", err)
	}
	defer rows2.Close()
	for rows2.Next() {
		var s entities.PriorityCnt
		if err := rows2.Scan(&s.Priority, &s.TaskCount); err != nil {
			return res, fmt.Errorf("scan priority stat: %w", err)
		}
		res.TasksByPriority = append(res.TasksByPriority, s)
	}
	if err := rows2.Err(); err != nil {
		return res, fmt.Errorf("iterate priority stat: %w", err)
	}

	rows3, err := p.db.Query(ctx, statsByJobQuery)
	if err != nil {
		return res, fmt.Errorf("stats by job: %w", err)
	}
	defer rows3.Close()
	for rows3.Next() {
		var s entities.JobStatusCnt
		if err := rows3.Scan(&s.Status, &s.JobCount); err != nil {
			return res, fmt.Errorf("scan job stat: %w", err)
		}
		res.JobsByStatus = append(res.JobsByStatus, s)
	}
	if err := rows3.Err(); err != nil {
		return res, fmt.Errorf("iterate job stat: %w", err)
	}

	rows4, err := p.db.Query(ctx, statsTopOwnersQuery)
	if err != nil {
		return res, fmt.Errorf("stats top owners: %w", err)
	}
	defer rows4.Close()
	for rows4.Next() {
		var s entities.OwnerStat
		if err := rows4.Scan(&s.UserID, &s.Name, &s.OpenTasks, &s.DoneTasks); err != nil {
			return res, fmt.Errorf("scan owner stat: %w", err)
		}
		res.TopOwners = append(res.TopOwners, s)
	}
	if err := rows4.Err(); err != nil {
		return res, fmt.Errorf("iterate owner stat: %w", err)
	}

	return res, nil
}

// UserStats returns per-user activity counters.
func (p *Postgres) UserStats(ctx context.Context, userID string, recentLimit int) (entities.UserStats, error) {
	res := entities.UserStats{UserID: userID}

	var exists bool
	if err := p.db.QueryRow(ctx, userExistsQuery, userID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return res, entities.ErrUserNotFound
		}
		return res, fmt.Errorf("check user: %w", err)
	}

	statusRows, err := p.db.Query(ctx, userTaskStatusQuery, userID)
	if err != nil {
		return res, fmt.Errorf("user task counts: %w", err)
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var status entities.TaskStatus
		var cnt int64
		if err := statusRows.Scan(&status, &cnt); err != nil {
			return res, fmt.Errorf("scan user task count: %w", err)
		}
		switch status {
		case entities.TaskOpen:
			res.OpenTasks = cnt
		case entities.TaskDone:
			res.DoneTasks = cnt
		}
	}
	if err := statusRows.Err(); err != nil {
		return res, fmt.Errorf("iterate user task counts: %w", err)
	}

	if err := p.db.QueryRow(ctx, userOverdueQuery, userID).Scan(&res.OverdueTasks); err != nil {
		return res, fmt.Errorf("count overdue: %w", err)
	}

	jobRows, err := p.db.Query(ctx, userJobStatusQuery, userID)
	if err != nil {
		return res, fmt.Errorf("user job counts: %w", err)
	}
	defer jobRows.Close()
	for jobRows.Next() {
		var s entities.JobStatusCnt
		if err := jobRows.Scan(&s.Status, &s.JobCount); err != nil {
			return res, fmt.Errorf("scan user job count: %w", err)
		}
		res.JobsByStatus = append(res.JobsByStatus, s)
	}
	if err := jobRows.Err(); err != nil {
		return res, fmt.Errorf("iterate user job counts: %w", err)
	}

	recentRows, err := p.db.Query(ctx, userRecentQuery, userID, recentLimit)
	if err != nil {
		return res, fmt.Errorf("user recent tasks: %w", err)
	}
	defer recentRows.Close()
	for recentRows.Next() {
		var t entities.TaskSummary
		if err := recentRows.Scan(&t.ID, &t.Title, &t.Status, &t.Priority, &t.DueAt); err != nil {
			return res, fmt.Errorf("scan recent task: %w", err)
		}
		res.RecentTasks = append(res.RecentTasks, t)
	}
	if err := recentRows.Err(); err != nil {
		return res, fmt.Errorf("iterate recent tasks: %w", err)
	}

	return res, nil
}

// Package memory implements the repository on plain maps. It backs local
// runs without PostgreSQL and the worker pool tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskhub/internal/entities"
)

// Memory is a mutex-guarded map store with the same error contract as the
// PostgreSQL repository.
type Memory struct {
	log *zap.SugaredLogger

	mu     sync.Mutex
	users  map[string]entities.User
	tokens map[string]entities.RefreshTokenRecord
	tasks  map[string]entities.Task
	jobs   map[string]entities.ExportJob
}

// New creates an empty in-memory repository.
func New(log *zap.SugaredLogger) *Memory {
	return &Memory{
		log:    log.Named("repo.memory"),
		users:  make(map[string]entities.User),
		tokens: make(map[string]entities.RefreshTokenRecord),
		tasks:  make(map[string]entities.Task),
		jobs:   make(map[string]entities.ExportJob),
	}
}

// OnStart is a no-op; maps need no connections.
func (m *Memory) OnStart(_ context.Context) error {
	m.log.Infow("memory store ready")
	return nil
}

// OnStop is a no-op.
func (m *Memory) OnStop(_ context.Context) error { return nil }

// CreateUser inserts a user; ErrEmailTaken on duplicate email.
func (m *Memory) CreateUser(_ context.Context, user entities.User) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, entities.ErrEmailTaken
		}
	}
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return &user, nil
}

// UserByEmail returns the user including password hash.
func (m *Memory) UserByEmail(_ context.Context, email string) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			res := u
			return &res, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

// UserByID returns the user with the given id.
func (m *Memory) UserByID(_ context.Context, id string) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	res := u
	return &res, nil
}

// ListUsers returns accounts newest first.
func (m *Memory) ListUsers(_ context.Context, limit, offset int) ([]entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]entities.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return page(users, limit, offset), nil
}

// UpdateUser applies the non-nil patch fields.
func (m *Memory) UpdateUser(_ context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	m.users[id] = u
	res := u
	return &res, nil
}

// SetUserActive updates the is_active flag.
func (m *Memory) SetUserActive(_ context.Context, id string, isActive bool) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	u.IsActive = isActive
	m.users[id] = u
	res := u
	return &res, nil
}

// SaveRefreshToken persists a refresh token record.
func (m *Memory) SaveRefreshToken(_ context.Context, rec entities.RefreshTokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.CreatedAt = time.Now()
	m.tokens[rec.JTI] = rec
	return nil
}

// RefreshTokenByJTI returns ErrTokenInvalid for unknown JTIs.
func (m *Memory) RefreshTokenByJTI(_ context.Context, jti string) (*entities.RefreshTokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.tokens[jti]
	if !ok {
		return nil, entities.ErrTokenInvalid
	}
	res := rec
	return &res, nil
}

// RevokeRefreshToken marks one token revoked, keeping the first RevokedAt.
func (m *Memory) RevokeRefreshToken(_ context.Context, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.tokens[jti]
	if !ok || rec.RevokedAt != nil {
		return nil
	}
	now := time.Now()
	rec.RevokedAt = &now
	m.tokens[jti] = rec
	return nil
}

// RevokeUserRefreshTokens revokes every live token of the user.
func (m *Memory) RevokeUserRefreshTokens(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	n := 0
	for jti, rec := range m.tokens {
		if rec.UserID == userID && rec.RevokedAt == nil && rec.ExpiresAt.After(now) {
			rec.RevokedAt = &now
			m.tokens[jti] = rec
			n++
		}
	}
	return n, nil
}

// PurgeExpiredTokens deletes records expired before now.
func (m *Memory) PurgeExpiredTokens(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for jti, rec := range m.tokens {
		if rec.ExpiresAt.Before(now) {
			delete(m.tokens, jti)
			n++
		}
	}
	return n, nil
}

// CreateTask inserts a new task.
func (m *Memory) CreateTask(_ context.Context, task entities.Task) (*entities.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	m.tasks[task.ID] = task
	res := task
	return &res, nil
}

// TaskByID returns the task with the given id.
func (m *Memory) TaskByID(_ context.Context, id string) (*entities.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	res := t
	return &res, nil
}

// ListTasks returns tasks matching the filter, newest first.
func (m *Memory) ListTasks(_ context.Context, filter entities.TaskFilter) ([]entities.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks := make([]entities.Task, 0)
	for _, t := range m.tasks {
		if filter.OwnerID != nil && t.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	if filter.Offset > 0 || filter.Limit > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = len(tasks)
		}
		return page(tasks, limit, filter.Offset), nil
	}
	return tasks, nil
}

// UpdateTask applies the patch to an OPEN task.
func (m *Memory) UpdateTask(_ context.Context, id string, patch entities.TaskPatch) (*entities.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	if t.Status == entities.TaskDone {
		return nil, entities.ErrTaskDone
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Notes != nil {
		t.Notes = *patch.Notes
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.ClearDue {
		t.DueAt = nil
	} else if patch.DueAt != nil {
		due := *patch.DueAt
		t.DueAt = &due
	}
	t.UpdatedAt = time.Now()
	m.tasks[id] = t
	res := t
	return &res, nil
}

// CompleteTask marks the task DONE idempotently.
func (m *Memory) CompleteTask(_ context.Context, id string) (*entities.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	if t.Status != entities.TaskDone {
		now := time.Now()
		t.Status = entities.TaskDone
		t.CompletedAt = &now
		t.UpdatedAt = now
		m.tasks[id] = t
	}
	res := t
	return &res, nil
}

// DeleteTask removes the task.
func (m *Memory) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return entities.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

// CreateJob enqueues a new export job.
func (m *Memory) CreateJob(_ context.Context, job entities.ExportJob) (*entities.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	m.jobs[job.ID] = job
	res := job
	return &res, nil
}

// JobByID returns the export job with the given id.
func (m *Memory) JobByID(_ context.Context, id string) (*entities.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, entities.ErrJobNotFound
	}
	res := j
	return &res, nil
}

// ListJobs returns the owner's jobs newest first.
func (m *Memory) ListJobs(_ context.Context, ownerID string, limit, offset int) ([]entities.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs := make([]entities.ExportJob, 0)
	for _, j := range m.jobs {
		if j.OwnerID == ownerID {
			jobs = append(jobs, j)
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return page(jobs, limit, offset), nil
}

// ClaimPendingJob claims the oldest PENDING job, (nil, nil) when empty.
func (m *Memory) ClaimPendingJob(_ context.Context) (*entities.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var oldest *entities.ExportJob
	for id := range m.jobs {
		j := m.jobs[id]
		if j.Status != entities.JobPending {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) ||
			(j.CreatedAt.Equal(oldest.CreatedAt) && j.ID < oldest.ID) {
			oldest = &j
		}
	}
	if oldest == nil {
		return nil, nil
	}

	now := time.Now()
	oldest.Status = entities.JobRunning
	oldest.Attempts++
	oldest.StartedAt = &now
	oldest.FinishedAt = nil
	oldest.UpdatedAt = now
	m.jobs[oldest.ID] = *oldest
	res := *oldest
	return &res, nil
}

// CompleteJob marks the job DONE and stores the artifact location.
func (m *Memory) CompleteJob(_ context.Context, id, artifactURL string) (*entities.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, entities.ErrJobNotFound
	}
	now := time.Now()
	j.Status = entities.JobDone
	j.ArtifactURL = &artifactURL
	j.Error = nil
	j.FinishedAt = &now
	j.UpdatedAt = now
	m.jobs[id] = j
	res := j
	return &res, nil
}

// FailJob marks the job FAILED with the worker's error message.
func (m *Memory) FailJob(_ context.Context, id, message string) (*entities.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, entities.ErrJobNotFound
	}
	now := time.Now()
	j.Status = entities.JobFailed
	j.Error = &message
	j.FinishedAt = &now
	j.UpdatedAt = now
	m.jobs[id] = j
	res := j
	return &res, nil
}

// RetryJob requeues a FAILED job that still has attempts left.
func (m *Memory) RetryJob(_ context.Context, id string) (*entities.ExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, entities.ErrJobNotFound
	}
	if !j.Retryable() {
		return nil, entities.ErrJobNotRetryable
	}
	j.Status = entities.JobPending
	j.Error = nil
	j.StartedAt = nil
	j.FinishedAt = nil
	j.UpdatedAt = time.Now()
	m.jobs[id] = j
	res := j
	return &res, nil
}

// RequeueStaleJobs rescues jobs stuck RUNNING longer than staleAfter.
func (m *Memory) RequeueStaleJobs(_ context.Context, staleAfter time.Duration) (requeued, failed int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-staleAfter)
	for id, j := range m.jobs {
		if j.Status != entities.JobRunning || j.StartedAt == nil || !j.StartedAt.Before(cutoff) {
			continue
		}
		if j.Attempts < j.MaxAttempts {
			j.Status = entities.JobPending
			j.StartedAt = nil
			requeued++
		} else {
			msg := "worker timed out"
			j.Status = entities.JobFailed
			j.Error = &msg
			j.FinishedAt = &now
			failed++
		}
		j.UpdatedAt = now
		m.jobs[id] = j
	}
	return requeued, failed, nil
}

// Stats returns service-wide counters.
func (m *Memory) Stats(_ context.Context) (entities.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := entities.Stats{}
	for _, u := range m.users {
		res.Users.Total++
		if u.IsActive {
			res.Users.Active++
		}
	}

	statusCnt := make(map[entities.TaskStatus]int64)
	priorityCnt := make(map[entities.TaskPriority]int64)
	type ownerAgg struct {
		name       string
		open, done int64
	}
	owners := make(map[string]*ownerAgg)
	for _, t := range m.tasks {
		statusCnt[t.Status]++
		priorityCnt[t.Priority]++
		agg, ok := owners[t.OwnerID]
		if !ok {
			agg = &ownerAgg{}
			if u, found := m.users[t.OwnerID]; found {
				agg.name = u.Name
			}
			owners[t.OwnerID] = agg
		}
		switch t.Status {
		case entities.TaskOpen:
			agg.open++
		case entities.TaskDone:
			agg.done++
		}
	}
	for _, s := range []entities.TaskStatus{entities.TaskOpen, entities.TaskDone} {
		if statusCnt[s] > 0 {
			res.TasksByStatus = append(res.TasksByStatus, entities.TaskStatusCnt{Status: s, TaskCount: statusCnt[s]})
		}
	}
	for _, p := range []entities.TaskPriority{entities.PriorityLow, entities.PriorityMedium, entities.PriorityHigh} {
		if priorityCnt[p] > 0 {
			res.TasksByPriority = append(res.TasksByPriority, entities.PriorityCnt{Priority: p, TaskCount: priorityCnt[p]})
		}
	}

	jobCnt := make(map[entities.JobStatus]int64)
	for _, j := range m.jobs {
		jobCnt[j.Status]++
	}
	for _, s := range []entities.JobStatus{entities.JobPending, entities.JobRunning, entities.JobDone, entities.JobFailed} {
		if jobCnt[s] > 0 {
			res.JobsByStatus = append(res.JobsByStatus, entities.JobStatusCnt{Status: s, JobCount: jobCnt[s]})
		}
	}

	for id, agg := range owners {
		res.TopOwners = append(res.TopOwners, entities.OwnerStat{
			UserID:    id,
			Name:      agg.name,
			OpenTasks: agg.open,
			DoneTasks: agg.done,
		})
	}
	sort.Slice(res.TopOwners, func(i, j int) bool {
		ti := res.TopOwners[i].OpenTasks + res.TopOwners[i].DoneTasks
		tj := res.TopOwners[j].OpenTasks + res.TopOwners[j].DoneTasks
		if ti == tj {
			return res.TopOwners[i].UserID < res.TopOwners[j].UserID
		}
		return ti > tj
	})
	if len(res.TopOwners) > 10 {
		res.TopOwners = res.TopOwners[:10]
	}

	return res, nil
}

// UserStats returns per-user activity counters.
func (m *Memory) UserStats(_ context.Context, userID string, recentLimit int) (entities.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := entities.UserStats{UserID: userID}
	if _, ok := m.users[userID]; !ok {
		return res, entities.ErrUserNotFound
	}

	now := time.Now()
	recent := make([]entities.Task, 0)
	for _, t := range m.tasks {
		if t.OwnerID != userID {
			continue
		}
		switch t.Status {
		case entities.TaskOpen:
			res.OpenTasks++
			if t.DueAt != nil && t.DueAt.Before(now) {
				res.OverdueTasks++
			}
		case entities.TaskDone:
			res.DoneTasks++
		}
		recent = append(recent, t)
	}

	jobCnt := make(map[entities.JobStatus]int64)
	for _, j := range m.jobs {
		if j.OwnerID == userID {
			jobCnt[j.Status]++
		}
	}
	for _, s := range []entities.JobStatus{entities.JobPending, entities.JobRunning, entities.JobDone, entities.JobFailed} {
		if jobCnt[s] > 0 {
			res.JobsByStatus = append(res.JobsByStatus, entities.JobStatusCnt{Status: s, JobCount: jobCnt[s]})
		}
	}

	sort.Slice(recent, func(i, j int) bool {
		if recent[i].CreatedAt.Equal(recent[j].CreatedAt) {
			return recent[i].ID < recent[j].ID
		}
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if recentLimit > 0 && len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	for _, t := range recent {
		res.RecentTasks = append(res.RecentTasks, entities.TaskSummary{
			ID:       t.ID,
			Title:    t.Title,
			Status:   t.Status,
			Priority: t.Priority,
			DueAt:    t.DueAt,
		})
	}

	return res, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) || limit <= 0 {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end:end]
}

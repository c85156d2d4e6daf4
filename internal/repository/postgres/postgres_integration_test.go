package postgres

import (
	"context"
	"database/sql"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"taskhub/config"
	"taskhub/internal/entities"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRepositoryIntegration(t *testing.T) {
	ctx := context.Background()

	cfg, cleanup := setupPostgres(t)
	t.Cleanup(cleanup)

	repo := New(ctx, testLogger(t), cfg)
	require.NoError(t, repo.OnStart(ctx))
	t.Cleanup(func() { _ = repo.OnStop(ctx) })

	ada := seedUser(t, ctx, repo, "Ada", "ada@example.com")

	_, err := repo.CreateUser(ctx, entities.User{
		ID:           uuid.NewString(),
		Name:         "Imposter",
		Email:        "ada@example.com",
		PasswordHash: "x",
		Role:         entities.RoleMember,
		IsActive:     true,
	})
	require.ErrorIs(t, err, entities.ErrEmailTaken)

	byEmail, err := repo.UserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, ada.ID, byEmail.ID)
	require.NotEmpty(t, byEmail.PasswordHash)

	_, err = repo.UserByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, entities.ErrUserNotFound)

	newName := "Ada Lovelace"
	renamed, err := repo.UpdateUser(ctx, ada.ID, entities.UserPatch{Name: &newName})
	require.NoError(t, err)
	require.Equal(t, newName, renamed.Name)
	require.Equal(t, ada.Email, renamed.Email)

	due := time.Now().Add(48 * time.Hour).UTC()
	report, err := repo.CreateTask(ctx, entities.Task{
		ID:       uuid.NewString(),
		OwnerID:  ada.ID,
		Title:    "write report",
		Notes:    "quarterly numbers",
		Priority: entities.PriorityHigh,
		Status:   entities.TaskOpen,
		DueAt:    &due,
	})
	require.NoError(t, err)
	require.False(t, report.CreatedAt.IsZero())

	time.Sleep(5 * time.Millisecond)
	expenses, err := repo.CreateTask(ctx, entities.Task{
		ID:       uuid.NewString(),
		OwnerID:  ada.ID,
		Title:    "file expenses",
		Priority: entities.PriorityLow,
		Status:   entities.TaskOpen,
	})
	require.NoError(t, err)

	all, err := repo.ListTasks(ctx, entities.TaskFilter{OwnerID: &ada.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, expenses.ID, all[0].ID)

	high := entities.PriorityHigh
	highOnly, err := repo.ListTasks(ctx, entities.TaskFilter{OwnerID: &ada.ID, Priority: &high})
	require.NoError(t, err)
	require.Len(t, highOnly, 1)
	require.Equal(t, report.ID, highOnly[0].ID)

	paged, err := repo.ListTasks(ctx, entities.TaskFilter{OwnerID: &ada.ID, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, report.ID, paged[0].ID)

	fetched, err := repo.TaskByID(ctx, report.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.DueAt)
	require.WithinDuration(t, due, *fetched.DueAt, time.Second)

	newTitle := "write the report"
	updated, err := repo.UpdateTask(ctx, report.ID, entities.TaskPatch{Title: &newTitle, ClearDue: true})
	require.NoError(t, err)
	require.Equal(t, newTitle, updated.Title)
	require.Nil(t, updated.DueAt)
	require.Equal(t, "quarterly numbers", updated.Notes)

	done, err := repo.CompleteTask(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, entities.TaskDone, done.Status)
	require.NotNil(t, done.CompletedAt)

	again, err := repo.CompleteTask(ctx, report.ID)
	require.NoError(t, err)
	require.Equal(t, done.CompletedAt, again.CompletedAt)

	_, err = repo.UpdateTask(ctx, report.ID, entities.TaskPatch{Title: &newTitle})
	require.ErrorIs(t, err, entities.ErrTaskDone)

	require.NoError(t, repo.DeleteTask(ctx, expenses.ID))
	_, err = repo.TaskByID(ctx, expenses.ID)
	require.ErrorIs(t, err, entities.ErrTaskNotFound)
	require.ErrorIs(t, repo.DeleteTask(ctx, expenses.ID), entities.ErrTaskNotFound)

	deactivated, err := repo.SetUserActive(ctx, ada.ID, false)
	require.NoError(t, err)
	require.False(t, deactivated.IsActive)
}

func TestRefreshTokenIntegration(t *testing.T) {
	ctx := context.Background()

	cfg, cleanup := setupPostgres(t)
	t.Cleanup(cleanup)

	repo := New(ctx, testLogger(t), cfg)
	require.NoError(t, repo.OnStart(ctx))
	t.Cleanup(func() { _ = repo.OnStop(ctx) })

	ada := seedUser(t, ctx, repo, "Ada", "ada@example.com")

	save := func(expiresAt time.Time) entities.RefreshTokenRecord {
		rec := entities.RefreshTokenRecord{JTI: uuid.NewString(), UserID: ada.ID, ExpiresAt: expiresAt}
		require.NoError(t, repo.SaveRefreshToken(ctx, rec))
		return rec
	}

	rotated := save(time.Now().Add(time.Hour))
	live := save(time.Now().Add(time.Hour))
	expired := save(time.Now().Add(-time.Hour))

	stored, err := repo.RefreshTokenByJTI(ctx, rotated.JTI)
	require.NoError(t, err)
	require.Equal(t, ada.ID, stored.UserID)
	require.False(t, stored.Revoked())

	_, err = repo.RefreshTokenByJTI(ctx, uuid.NewString())
	require.ErrorIs(t, err, entities.ErrTokenInvalid)

	require.NoError(t, repo.RevokeRefreshToken(ctx, rotated.JTI))
	revoked, err := repo.RefreshTokenByJTI(ctx, rotated.JTI)
	require.NoError(t, err)
	require.True(t, revoked.Revoked())

	// revoking again keeps the original revocation time
	require.NoError(t, repo.RevokeRefreshToken(ctx, rotated.JTI))
	twice, err := repo.RefreshTokenByJTI(ctx, rotated.JTI)
	require.NoError(t, err)
	require.Equal(t, revoked.RevokedAt, twice.RevokedAt)

	n, err := repo.RevokeUserRefreshTokens(ctx, ada.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n, "only the live token counts, not rotated or expired ones")

	killed, err := repo.RefreshTokenByJTI(ctx, live.JTI)
	require.NoError(t, err)
	require.True(t, killed.Revoked())

	purged, err := repo.PurgeExpiredTokens(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, purged)

	_, err = repo.RefreshTokenByJTI(ctx, expired.JTI)
	require.ErrorIs(t, err, entities.ErrTokenInvalid)
}

func TestExportQueueIntegration(t *testing.T) {
	ctx := context.Background()

	cfg, cleanup := setupPostgres(t)
	t.Cleanup(cleanup)

	repo := New(ctx, testLogger(t), cfg)
	require.NoError(t, repo.OnStart(ctx))
	t.Cleanup(func() { _ = repo.OnStop(ctx) })

	ada := seedUser(t, ctx, repo, "Ada", "ada@example.com")

	first := seedJob(t, ctx, repo, ada.ID, 2)
	time.Sleep(5 * time.Millisecond)
	second := seedJob(t, ctx, repo, ada.ID, 2)

	claimed, err := repo.ClaimPendingJob(ctx)
	require.NoError(t, err)
	require.Equal(t, first.ID, claimed.ID, "oldest job is claimed first")
	require.Equal(t, entities.JobRunning, claimed.Status)
	require.Equal(t, 1, claimed.Attempts)
	require.NotNil(t, claimed.StartedAt)

	failed, err := repo.FailJob(ctx, claimed.ID, "upload artifact: boom")
	require.NoError(t, err)
	require.Equal(t, entities.JobFailed, failed.Status)
	require.NotNil(t, failed.Error)
	require.True(t, failed.Retryable())

	requeued, err := repo.RetryJob(ctx, failed.ID)
	require.NoError(t, err)
	require.Equal(t, entities.JobPending, requeued.Status)
	require.Equal(t, 1, requeued.Attempts, "retry keeps the spent attempt")
	require.Nil(t, requeued.Error)
	require.Nil(t, requeued.StartedAt)

	reclaimed, err := repo.ClaimPendingJob(ctx)
	require.NoError(t, err)
	require.Equal(t, first.ID, reclaimed.ID, "retried job is still older than the second one")
	require.Equal(t, 2, reclaimed.Attempts)

	done, err := repo.CompleteJob(ctx, reclaimed.ID, "https://files.test/exports/a.csv")
	require.NoError(t, err)
	require.Equal(t, entities.JobDone, done.Status)
	require.NotNil(t, done.ArtifactURL)
	require.NotNil(t, done.FinishedAt)

	_, err = repo.RetryJob(ctx, done.ID)
	require.ErrorIs(t, err, entities.ErrJobNotRetryable)

	next, err := repo.ClaimPendingJob(ctx)
	require.NoError(t, err)
	require.Equal(t, second.ID, next.ID)

	empty, err := repo.ClaimPendingJob(ctx)
	require.NoError(t, err)
	require.Nil(t, empty)

	jobs, err := repo.ListJobs(ctx, ada.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, second.ID, jobs[0].ID)

	_, err = repo.JobByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, entities.ErrJobNotFound)
}

func TestStaleJobRescueIntegration(t *testing.T) {
	ctx := context.Background()

	cfg, cleanup := setupPostgres(t)
	t.Cleanup(cleanup)

	repo := New(ctx, testLogger(t), cfg)
	require.NoError(t, repo.OnStart(ctx))
	t.Cleanup(func() { _ = repo.OnStop(ctx) })

	ada := seedUser(t, ctx, repo, "Ada", "ada@example.com")

	healthy := seedJob(t, ctx, repo, ada.ID, 3)
	doomed := seedJob(t, ctx, repo, ada.ID, 1)

	for i := 0; i < 2; i++ {
		claimed, err := repo.ClaimPendingJob(ctx)
		require.NoError(t, err)
		require.NotNil(t, claimed)
	}

	time.Sleep(50 * time.Millisecond)

	requeued, failed, err := repo.RequeueStaleJobs(ctx, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 1, requeued)
	require.Equal(t, 1, failed)

	rescued, err := repo.JobByID(ctx, healthy.ID)
	require.NoError(t, err)
	require.Equal(t, entities.JobPending, rescued.Status)
	require.Nil(t, rescued.StartedAt)
	require.Equal(t, 1, rescued.Attempts)

	dead, err := repo.JobByID(ctx, doomed.ID)
	require.NoError(t, err)
	require.Equal(t, entities.JobFailed, dead.Status)
	require.NotNil(t, dead.Error)
	require.Equal(t, "worker timed out", *dead.Error)
	require.False(t, dead.Retryable())
}

func TestStatsIntegration(t *testing.T) {
	ctx := context.Background()

	cfg, cleanup := setupPostgres(t)
	t.Cleanup(cleanup)

	repo := New(ctx, testLogger(t), cfg)
	require.NoError(t, repo.OnStart(ctx))
	t.Cleanup(func() { _ = repo.OnStop(ctx) })

	ada := seedUser(t, ctx, repo, "Ada", "ada@example.com")
	bob := seedUser(t, ctx, repo, "Bob", "bob@example.com")
	_, err := repo.SetUserActive(ctx, bob.ID, false)
	require.NoError(t, err)

	create := func(owner string, priority entities.TaskPriority, due *time.Time) entities.Task {
		task, err := repo.CreateTask(ctx, entities.Task{
			ID:       uuid.NewString(),
			OwnerID:  owner,
			Title:    "task",
			Priority: priority,
			Status:   entities.TaskOpen,
			DueAt:    due,
		})
		require.NoError(t, err)
		return *task
	}

	overdue := time.Now().Add(-time.Hour)
	create(ada.ID, entities.PriorityHigh, &overdue)
	time.Sleep(5 * time.Millisecond)
	finished := create(ada.ID, entities.PriorityMedium, nil)
	create(bob.ID, entities.PriorityLow, nil)

	_, err = repo.CompleteTask(ctx, finished.ID)
	require.NoError(t, err)

	seedJob(t, ctx, repo, ada.ID, 3)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, entities.UserTotals{Total: 2, Active: 1}, stats.Users)

	byStatus := map[entities.TaskStatus]int64{}
	for _, s := range stats.TasksByStatus {
		byStatus[s.Status] = s.TaskCount
	}
	require.Equal(t, int64(2), byStatus[entities.TaskOpen])
	require.Equal(t, int64(1), byStatus[entities.TaskDone])

	byPriority := map[entities.TaskPriority]int64{}
	for _, s := range stats.TasksByPriority {
		byPriority[s.Priority] = s.TaskCount
	}
	require.Equal(t, int64(1), byPriority[entities.PriorityHigh])
	require.Equal(t, int64(1), byPriority[entities.PriorityLow])

	byJob := map[entities.JobStatus]int64{}
	for _, s := range stats.JobsByStatus {
		byJob[s.Status] = s.JobCount
	}
	require.Equal(t, int64(1), byJob[entities.JobPending])

	require.NotEmpty(t, stats.TopOwners)
	require.Equal(t, ada.ID, stats.TopOwners[0].UserID)
	require.Equal(t, int64(1), stats.TopOwners[0].OpenTasks)
	require.Equal(t, int64(1), stats.TopOwners[0].DoneTasks)

	userStats, err := repo.UserStats(ctx, ada.ID, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), userStats.OpenTasks)
	require.Equal(t, int64(1), userStats.DoneTasks)
	require.Equal(t, int64(1), userStats.OverdueTasks)
	require.Len(t, userStats.RecentTasks, 1)
	require.Equal(t, finished.ID, userStats.RecentTasks[0].ID)

	_, err = repo.UserStats(ctx, uuid.NewString(), 5)
	require.ErrorIs(t, err, entities.ErrUserNotFound)
}

func setupPostgres(t *testing.T) (*config.Config, func()) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=taskhub_db",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
	})
	require.NoError(t, err)

	hostPort := resource.GetPort("5432/tcp")

	port, err := strconv.Atoi(hostPort)
	require.NoError(t, err)
	migrationsDir, err := filepath.Abs(filepath.Join("..", "..", "..", "db", "migrations"))
	require.NoError(t, err)
	require.DirExists(t, migrationsDir)

	cfg := &config.Config{
		Postgres: config.PostgresConfig{
			Host:           "localhost",
			Port:           port,
			User:           "postgres",
			Password:       "postgres",
			DBName:         "taskhub_db",
			SSLMode:        "disable",
			MigrationsDir:  migrationsDir,
			QueryTimeout:   10 * time.Second,
			MigrateTimeout: 20 * time.Second,
			MaxConns:       4,
			MinConns:       1,
		},
	}

	require.NoError(t, pool.Retry(func() error {
		db, err := sql.Open("postgres", cfg.Postgres.DSN())
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return db.Ping()
	}))

	cleanup := func() {
		_ = pool.Purge(resource)
	}

	return cfg, cleanup
}

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()

	l, _ := zap.NewDevelopment()
	t.Cleanup(func() { _ = l.Sync() })
	return l.Sugar()
}

func seedUser(t *testing.T, ctx context.Context, repo *Postgres, name, email string) entities.User {
	t.Helper()

	u, err := repo.CreateUser(ctx, entities.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: "$2a$10$fixture",
		Role:         entities.RoleMember,
		IsActive:     true,
	})
	require.NoError(t, err)
	return *u
}

func seedJob(t *testing.T, ctx context.Context, repo *Postgres, ownerID string, maxAttempts int) entities.ExportJob {
	t.Helper()

	job, err := repo.CreateJob(ctx, entities.ExportJob{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Kind:        entities.KindTaskCSV,
		Status:      entities.JobPending,
		MaxAttempts: maxAttempts,
	})
	require.NoError(t, err)
	return *job
}

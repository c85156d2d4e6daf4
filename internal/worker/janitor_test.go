package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskhub/config"
	"taskhub/internal/entities"
	"taskhub/internal/repository/memory"
)

func TestJanitor_RescuesStaleJobAndPurgesTokens(t *testing.T) {
	log := zap.NewNop().Sugar()
	repo := memory.New(log)
	ctx := context.Background()

	_, err := repo.CreateJob(ctx, entities.ExportJob{
		ID: "j1", OwnerID: "u1", Kind: entities.KindTaskCSV,
		Status: entities.JobPending, MaxAttempts: 3,
	})
	require.NoError(t, err)
	claimed, err := repo.ClaimPendingJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	require.NoError(t, repo.SaveRefreshToken(ctx, entities.RefreshTokenRecord{
		JTI: "expired", UserID: "u1", ExpiresAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, repo.SaveRefreshToken(ctx, entities.RefreshTokenRecord{
		JTI: "live", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour),
	}))

	time.Sleep(5 * time.Millisecond)

	jan := NewJanitor(log, repo, config.WorkerConfig{
		JanitorInterval: 5 * time.Millisecond,
		StaleAfter:      time.Millisecond,
	})
	jan.Start(context.Background())
	defer jan.Stop()

	require.Eventually(t, func() bool {
		j, err := repo.JobByID(ctx, "j1")
		return err == nil && j.Status == entities.JobPending && j.StartedAt == nil
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		_, err := repo.RefreshTokenByJTI(ctx, "expired")
		return errors.Is(err, entities.ErrTokenInvalid)
	}, time.Second, 5*time.Millisecond)

	_, err = repo.RefreshTokenByJTI(ctx, "live")
	require.NoError(t, err)
}

func TestJanitor_FailsExhaustedStaleJob(t *testing.T) {
	log := zap.NewNop().Sugar()
	repo := memory.New(log)
	ctx := context.Background()

	_, err := repo.CreateJob(ctx, entities.ExportJob{
		ID: "j1", OwnerID: "u1", Kind: entities.KindTaskCSV,
		Status: entities.JobPending, MaxAttempts: 1,
	})
	require.NoError(t, err)
	_, err = repo.ClaimPendingJob(ctx)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	jan := NewJanitor(log, repo, config.WorkerConfig{
		JanitorInterval: 5 * time.Millisecond,
		StaleAfter:      time.Millisecond,
	})
	jan.Start(context.Background())
	defer jan.Stop()

	require.Eventually(t, func() bool {
		j, err := repo.JobByID(ctx, "j1")
		return err == nil && j.Status == entities.JobFailed
	}, time.Second, 5*time.Millisecond)

	job, err := repo.JobByID(ctx, "j1")
	require.NoError(t, err)
	require.NotNil(t, job.Error)
	require.Equal(t, "worker timed out", *job.Error)
	require.False(t, job.Retryable())
}

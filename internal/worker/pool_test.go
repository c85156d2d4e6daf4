package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskhub/config"
	"taskhub/internal/entities"
	"taskhub/internal/repository/memory"
	"taskhub/internal/storage"
)

type storeStub struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

var _ storage.ObjectStore = (*storeStub)(nil)

func newStoreStub() *storeStub {
	return &storeStub{objects: make(map[string][]byte)}
}

func (s *storeStub) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return "https://files.test/" + key, nil
}

func (s *storeStub) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *storeStub) object(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key]
}

func testWorkerConfig() config.WorkerConfig {
	return config.WorkerConfig{
		Count:        2,
		PollInterval: 10 * time.Millisecond,
		MaxAttempts:  3,
		StaleAfter:   time.Second,
	}
}

func seedExport(t *testing.T, repo *memory.Memory, kind entities.JobKind) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, entities.User{ID: "u1", Name: "Ada", Email: "ada@example.com", IsActive: true})
	require.NoError(t, err)
	_, err = repo.CreateTask(ctx, entities.Task{
		ID: "t1", OwnerID: "u1", Title: "write report",
		Priority: entities.PriorityHigh, Status: entities.TaskOpen,
	})
	require.NoError(t, err)
	_, err = repo.CreateJob(ctx, entities.ExportJob{
		ID: "j1", OwnerID: "u1", Kind: kind,
		Status: entities.JobPending, MaxAttempts: 3,
	})
	require.NoError(t, err)
}

func jobStatus(repo *memory.Memory, id string, status entities.JobStatus) func() bool {
	return func() bool {
		j, err := repo.JobByID(context.Background(), id)
		return err == nil && j.Status == status
	}
}

func TestPool_CompletesPendingExport(t *testing.T) {
	log := zap.NewNop().Sugar()
	repo := memory.New(log)
	store := newStoreStub()
	seedExport(t, repo, entities.KindTaskCSV)

	pool := New(log, repo, store, testWorkerConfig())
	pool.Start(context.Background())

	require.Eventually(t, jobStatus(repo, "j1", entities.JobDone), 2*time.Second, 10*time.Millisecond)
	pool.Stop()

	job, err := repo.JobByID(context.Background(), "j1")
	require.NoError(t, err)
	require.Equal(t, 1, job.Attempts)
	require.Nil(t, job.Error)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.FinishedAt)
	require.NotNil(t, job.ArtifactURL)
	require.Equal(t, "https://files.test/exports/u1/j1.csv", *job.ArtifactURL)

	require.Contains(t, string(store.object("exports/u1/j1.csv")), "write report")
}

func TestPool_RecordsUploadFailure(t *testing.T) {
	log := zap.NewNop().Sugar()
	repo := memory.New(log)
	store := newStoreStub()
	store.fail(errors.New("bucket offline"))
	seedExport(t, repo, entities.KindTaskCSV)

	pool := New(log, repo, store, testWorkerConfig())
	pool.Start(context.Background())

	require.Eventually(t, jobStatus(repo, "j1", entities.JobFailed), 2*time.Second, 10*time.Millisecond)
	pool.Stop()

	job, err := repo.JobByID(context.Background(), "j1")
	require.NoError(t, err)
	require.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.Error)
	require.Contains(t, *job.Error, "upload artifact")
	require.Nil(t, job.ArtifactURL)
	require.True(t, job.Retryable())
}

func TestPool_RetriedJobSucceeds(t *testing.T) {
	log := zap.NewNop().Sugar()
	repo := memory.New(log)
	store := newStoreStub()
	store.fail(errors.New("bucket offline"))
	seedExport(t, repo, entities.KindTaskCSV)

	pool := New(log, repo, store, testWorkerConfig())
	pool.Start(context.Background())

	require.Eventually(t, jobStatus(repo, "j1", entities.JobFailed), 2*time.Second, 10*time.Millisecond)

	store.fail(nil)
	_, err := repo.RetryJob(context.Background(), "j1")
	require.NoError(t, err)

	require.Eventually(t, jobStatus(repo, "j1", entities.JobDone), 2*time.Second, 10*time.Millisecond)
	pool.Stop()

	job, err := repo.JobByID(context.Background(), "j1")
	require.NoError(t, err)
	require.Equal(t, 2, job.Attempts)
	require.Nil(t, job.Error)
	require.NotNil(t, job.ArtifactURL)
}

func TestPool_UnknownKindFails(t *testing.T) {
	log := zap.NewNop().Sugar()
	repo := memory.New(log)
	store := newStoreStub()
	seedExport(t, repo, entities.JobKind("TASK_XML"))

	pool := New(log, repo, store, testWorkerConfig())
	pool.Start(context.Background())

	require.Eventually(t, jobStatus(repo, "j1", entities.JobFailed), 2*time.Second, 10*time.Millisecond)
	pool.Stop()

	job, err := repo.JobByID(context.Background(), "j1")
	require.NoError(t, err)
	require.NotNil(t, job.Error)
	require.Contains(t, *job.Error, "unknown export kind")
	require.Len(t, store.objects, 0)
}

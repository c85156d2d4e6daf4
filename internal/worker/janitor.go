package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskhub/config"
	"taskhub/internal/repository"
)

// Janitor periodically rescues stale RUNNING jobs and purges expired
// refresh tokens.
type Janitor struct {
	log  *zap.SugaredLogger
	repo repository.Repository
	cfg  config.WorkerConfig

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewJanitor constructs a stopped janitor.
func NewJanitor(log *zap.SugaredLogger, repo repository.Repository, cfg config.WorkerConfig) *Janitor {
	return &Janitor{
		log:  log.Named("janitor"),
		repo: repo,
		cfg:  cfg,
	}
}

// Start launches the sweep loop.
func (j *Janitor) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ticker := time.NewTicker(j.cfg.JanitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				j.sweep(runCtx)
			}
		}
	}()

	j.log.Infow("janitor started", "interval", j.cfg.JanitorInterval, "stale_after", j.cfg.StaleAfter)
}

// Stop halts the sweep loop.
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}

func (j *Janitor) sweep(ctx context.Context) {
	requeued, failed, err := j.repo.RequeueStaleJobs(ctx, j.cfg.StaleAfter)
	if err != nil {
		j.log.Errorw("failed to rescue stale jobs", "error", err)
	} else if requeued > 0 || failed > 0 {
		j.log.Infow("stale jobs swept", "requeued", requeued, "failed", failed)
	}

	purged, err := j.repo.PurgeExpiredTokens(ctx, time.Now())
	if err != nil {
		j.log.Errorw("failed to purge expired tokens", "error", err)
	} else if purged > 0 {
		j.log.Infow("expired tokens purged", "count", purged)
	}
}

// Package worker runs the background export pipeline: a dispatcher claims
// queued jobs from the repository and fans them out over a channel to a
// fixed pool of workers, whose results fan in to a single collector.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskhub/config"
	"taskhub/internal/entities"
	"taskhub/internal/repository"
	"taskhub/internal/storage"
)

// Pool owns the dispatcher, worker and collector goroutines.
type Pool struct {
	log   *zap.SugaredLogger
	repo  repository.Repository
	store storage.ObjectStore
	cfg   config.WorkerConfig

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

type result struct {
	jobID       string
	ownerID     string
	artifactURL string
	took        time.Duration
	err         error
}

// New constructs a stopped pool.
func New(log *zap.SugaredLogger, repo repository.Repository, store storage.ObjectStore, cfg config.WorkerConfig) *Pool {
	return &Pool{
		log:   log.Named("worker"),
		repo:  repo,
		store: store,
		cfg:   cfg,
	}
}

// Start launches the pipeline. Cancelling ctx stops the dispatcher from
// claiming further jobs; in-flight jobs keep running until Stop returns.
func (p *Pool) Start(ctx context.Context) {
	dispatchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	jobs := make(chan entities.ExportJob)
	results := make(chan result)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.dispatch(dispatchCtx, jobs)
	}()

	var workers sync.WaitGroup
	for i := 1; i <= p.cfg.Count; i++ {
		workers.Add(1)
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			defer workers.Done()
			p.work(id, jobs, results)
		}(i)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		workers.Wait()
		close(results)
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.collect(results)
	}()

	p.log.Infow("worker pool started", "workers", p.cfg.Count, "poll_interval", p.cfg.PollInterval)
}

// Stop halts claiming and waits until every claimed job has been finished
// and recorded.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.log.Infow("worker pool stopped")
}

// dispatch polls the queue and feeds claimed jobs to the workers. It owns
// the jobs channel and closes it on shutdown.
func (p *Pool) dispatch(ctx context.Context, jobs chan<- entities.ExportJob) {
	defer close(jobs)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.drainQueue(ctx, jobs) {
				return
			}
		}
	}
}

// drainQueue claims jobs until the queue is empty. Returns false when the
// dispatcher should exit. A job claimed but not handed over stays RUNNING
// and is rescued by the janitor after the stale window.
func (p *Pool) drainQueue(ctx context.Context, jobs chan<- entities.ExportJob) bool {
	for {
		job, err := p.repo.ClaimPendingJob(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			p.log.Errorw("failed to claim job", "error", err)
			return true
		}
		if job == nil {
			return true
		}

		select {
		case jobs <- *job:
		case <-ctx.Done():
			return false
		}
	}
}

// work processes jobs until the channel closes. Bookkeeping writes use a
// fresh context so a shutdown never loses a finished run.
func (p *Pool) work(id int, jobs <-chan entities.ExportJob, results chan<- result) {
	for job := range jobs {
		started := time.Now()
		res := result{jobID: job.ID, ownerID: job.OwnerID}

		artifactURL, err := p.process(job)
		res.took = time.Since(started)

		recordCtx, cancel := context.WithTimeout(context.Background(), p.cfg.PollInterval)
		if err != nil {
			res.err = err
			if _, failErr := p.repo.FailJob(recordCtx, job.ID, err.Error()); failErr != nil {
				p.log.Errorw("failed to record job failure", "error", failErr, "job_id", job.ID, "worker", id)
			}
		} else {
			res.artifactURL = artifactURL
			if _, doneErr := p.repo.CompleteJob(recordCtx, job.ID, artifactURL); doneErr != nil {
				p.log.Errorw("failed to record job completion", "error", doneErr, "job_id", job.ID, "worker", id)
			}
		}
		cancel()

		results <- res
	}
}

// process renders and uploads one export. A run is capped at the stale
// window so a live worker never overlaps the janitor's rescue of its job.
func (p *Pool) process(job entities.ExportJob) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.StaleAfter)
	defer cancel()

	if job.Kind != entities.KindTaskCSV {
		return "", fmt.Errorf("unknown export kind %q", job.Kind)
	}

	owner := job.OwnerID
	tasks, err := p.repo.ListTasks(ctx, entities.TaskFilter{OwnerID: &owner})
	if err != nil {
		return "", fmt.Errorf("list tasks: %w", err)
	}

	data, err := RenderTasksCSV(tasks)
	if err != nil {
		return "", fmt.Errorf("render csv: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.csv", job.OwnerID, job.ID)
	url, err := p.store.Upload(ctx, key, "text/csv", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("upload artifact: %w", err)
	}
	return url, nil
}

func (p *Pool) collect(results <-chan result) {
	for res := range results {
		if res.err != nil {
			p.log.Errorw("export failed", "error", res.err, "job_id", res.jobID, "owner_id", res.ownerID, "took", res.took)
			continue
		}
		p.log.Infow("export done", "job_id", res.jobID, "owner_id", res.ownerID, "artifact_url", res.artifactURL, "took", res.took)
	}
}

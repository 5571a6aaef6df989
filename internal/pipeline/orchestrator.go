package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/distill/internal/config"
	"github.com/dgallion1/distill/internal/parser"
	"github.com/dgallion1/distill/internal/store"
	"github.com/dgallion1/distill/internal/summarize"
)

var (
	// ErrQueueFull is returned by Submit when the queue has no room.
	ErrQueueFull = errors.New("job queue is full")
	// ErrStopped is returned by Submit after Stop.
	ErrStopped = errors.New("orchestrator stopped")
)

// Orchestrator manages the distill pipeline.
type Orchestrator struct {
	jobs       *JobStore
	queue      chan *Job
	store      *store.Store
	summarizer *summarize.Summarizer
	log        *slog.Logger
	cfg        config.Config

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu      sync.RWMutex // guards stopped and the close of queue
	stopped bool
}

// NewOrchestrator creates the pipeline. st may be nil, which disables the
// result cache.
func NewOrchestrator(cfg config.Config, st *store.Store, sum *summarize.Summarizer, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		jobs:       NewJobStore(cfg.JobTTL),
		queue:      make(chan *Job, max(cfg.MaxQueueSize, 1)),
		store:      st,
		summarizer: sum,
		log:        log,
		cfg:        cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range max(o.cfg.WorkerCount, 1) {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.store, o.summarizer, o.log, parser.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext})
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		if o.cancel != nil {
			o.cancel()
		}
		o.mu.Lock()
		o.stopped = true
		close(o.queue)
		o.mu.Unlock()
		o.wg.Wait()
	})
}

// Submit queues a job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "stopped")
		return ErrStopped
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.log.Info("job queued", "job_id", job.ID, "filename", job.Filename)
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the result store, or nil when caching is disabled.
func (o *Orchestrator) Store() *store.Store {
	return o.store
}

// Summarizer returns the summarizer shared by the workers.
func (o *Orchestrator) Summarizer() *summarize.Summarizer {
	return o.summarizer
}

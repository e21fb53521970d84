// Package async feeds watcher paths into the processor one at a time.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/taxdocs/internal/core"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one path waiting for the pipeline.
type Job struct {
	Path        string
	Year        int
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// PathProcessor is the part of core.Processor the queue drives.
type PathProcessor interface {
	ProcessPath(ctx context.Context, year int, path string) (core.FileResult, error)
}

// ProcessorQueue runs jobs strictly in submission order on a single worker.
type ProcessorQueue struct {
	proc     PathProcessor
	logger   *slog.Logger
	timeout  time.Duration
	onResult func(Job, core.FileResult, error)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithResultHook is called after every job, on the worker goroutine.
func WithResultHook(fn func(Job, core.FileResult, error)) Option {
	return func(q *ProcessorQueue) { q.onResult = fn }
}

func NewProcessorQueue(proc PathProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.logger.Info("worker started")
			for job := range q.ch {
				q.process(job)
			}
			q.logger.Info("worker stopped")
		}()
	})
}

func (q *ProcessorQueue) process(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	res, err := q.proc.ProcessPath(ctx, job.Year, job.Path)
	switch {
	case err != nil:
		q.logger.Error("processing failed", "path", job.Path, "trace_id", job.TraceID, "error", err)
	case res.Outcome.Failed():
		q.logger.Warn("processed file with errors", "path", job.Path, "outcome", res.Outcome, "message", res.Message, "trace_id", job.TraceID)
	default:
		q.logger.Info("processed file", "path", job.Path, "outcome", res.Outcome, "document_id", res.DocumentID, "trace_id", job.TraceID)
	}
	if q.onResult != nil {
		q.onResult(job, res, err)
	}
}

// Enqueue blocks when the buffer is full until there is room or ctx ends.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}
	if job.TraceID == "" {
		job.TraceID = uuid.NewString()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued file for processing", "path", job.Path, "trace_id", job.TraceID)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for queued jobs to drain or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}

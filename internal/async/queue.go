package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/invoice-pipeline/internal/pipeline"
)

// Job is one queued invoice invocation.
type Job struct {
	InvoicePath string
	ExportPath  string
	SubmittedAt time.Time
}

// Runner is what the queue drives; satisfied by *pipeline.Workflow.
type Runner interface {
	Run(ctx context.Context, invoicePath, exportPath string) *pipeline.Envelope
}

// Queue fans queued invoices out to a fixed worker pool. Every job gets its
// own timeout-bounded context; outcomes are logged, not returned, since
// queue callers are fire-and-forget (watch mode).
type Queue struct {
	runner  Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(runner Runner, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		runner:  runner,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
		quit:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("queue.worker.started", "worker_id", workerID)

				for {
					select {
					case <-q.quit:
						// drain what is already buffered, then stop
						for {
							select {
							case job := <-q.ch:
								q.process(workerID, job)
							default:
								q.logger.Info("queue.worker.stopped", "worker_id", workerID)
								return
							}
						}
					case job := <-q.ch:
						q.process(workerID, job)
					}
				}
			}(i + 1)
		}
	})
}

func (q *Queue) process(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	env := q.runner.Run(ctx, job.InvoicePath, job.ExportPath)
	cancel()

	switch env.Status {
	case pipeline.StatusError:
		q.logger.Error("queue.job.failed",
			"worker_id", workerID, "invoice", job.InvoicePath, "error", env.Error)
	case pipeline.StatusWarning:
		q.logger.Warn("queue.job.invalid",
			"worker_id", workerID, "invoice", job.InvoicePath, "issues", len(env.ValidationFeedback))
	default:
		q.logger.Info("queue.job.ok",
			"worker_id", workerID, "invoice", job.InvoicePath)
	}
}

// Enqueue submits a job. A full queue applies backpressure without holding
// the queue lock, so other enqueuers and Shutdown stay responsive; the wait
// ends when space frees up, ctx is cancelled, or the queue shuts down.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("queue.enqueue.rejected", "invoice", job.InvoicePath)
		return nil
	}
	select {
	case q.ch <- job:
		q.mu.Unlock()
		q.logger.Info("queue.enqueue.ok", "invoice", job.InvoicePath)
		return nil
	default:
	}
	q.mu.Unlock()

	q.logger.Warn("queue.full", "invoice", job.InvoicePath)
	select {
	case q.ch <- job:
		q.logger.Info("queue.enqueue.ok", "invoice", job.InvoicePath)
		return nil
	case <-q.quit:
		q.logger.Warn("queue.enqueue.rejected", "invoice", job.InvoicePath)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting work, lets the workers drain the buffer, and
// returns when they finish or ctx expires.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.quit)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}

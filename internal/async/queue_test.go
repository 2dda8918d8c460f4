package async

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-pipeline/internal/pipeline"
)

type countingRunner struct {
	mu       sync.Mutex
	invoices []string
}

func (r *countingRunner) Run(_ context.Context, invoicePath, _ string) *pipeline.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices = append(r.invoices, invoicePath)
	return &pipeline.Envelope{Status: pipeline.StatusSuccess}
}

func TestQueueProcessesAllJobs(t *testing.T) {
	runner := &countingRunner{}
	q := NewQueue(runner, nil, WithWorkers(2), WithQueueSize(16))

	for _, p := range []string{"/a.pdf", "/b.pdf", "/c.pdf"} {
		require.NoError(t, q.Enqueue(context.Background(), Job{InvoicePath: p, SubmittedAt: time.Now()}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Len(t, runner.invoices, 3)
}

func TestQueueEnqueueAfterShutdownIsDropped(t *testing.T) {
	runner := &countingRunner{}
	q := NewQueue(runner, nil, WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)

	require.NoError(t, q.Enqueue(context.Background(), Job{InvoicePath: "/late.pdf"}))

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Empty(t, runner.invoices)
}

type gatedRunner struct {
	started chan string
	release chan struct{}
}

func (r *gatedRunner) Run(_ context.Context, invoicePath, _ string) *pipeline.Envelope {
	r.started <- invoicePath
	<-r.release
	return &pipeline.Envelope{Status: pipeline.StatusSuccess}
}

func TestQueueFullDoesNotStallShutdown(t *testing.T) {
	runner := &gatedRunner{started: make(chan string, 4), release: make(chan struct{})}
	q := NewQueue(runner, nil, WithWorkers(1), WithQueueSize(1))

	// worker busy on the first job, buffer holds the second
	require.NoError(t, q.Enqueue(context.Background(), Job{InvoicePath: "/a.pdf"}))
	<-runner.started
	require.NoError(t, q.Enqueue(context.Background(), Job{InvoicePath: "/b.pdf"}))

	// third enqueue blocks on backpressure
	enqDone := make(chan error, 1)
	go func() {
		enqDone <- q.Enqueue(context.Background(), Job{InvoicePath: "/c.pdf"})
	}()
	time.Sleep(20 * time.Millisecond)

	shutDone := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		q.Shutdown(ctx)
		close(shutDone)
	}()

	select {
	case <-shutDone:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown stalled behind a blocked enqueue")
	}
	select {
	case err := <-enqDone:
		assert.NoError(t, err, "blocked enqueue is dropped on shutdown, not stuck")
	case <-time.After(2 * time.Second):
		t.Fatal("blocked enqueue never returned after shutdown")
	}

	close(runner.release)
}

func TestQueueFullEnqueueHonorsContext(t *testing.T) {
	runner := &gatedRunner{started: make(chan string, 4), release: make(chan struct{})}
	defer close(runner.release)
	q := NewQueue(runner, nil, WithWorkers(1), WithQueueSize(1))

	require.NoError(t, q.Enqueue(context.Background(), Job{InvoicePath: "/a.pdf"}))
	<-runner.started
	require.NoError(t, q.Enqueue(context.Background(), Job{InvoicePath: "/b.pdf"}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{InvoicePath: "/c.pdf"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueShutdownIsIdempotent(t *testing.T) {
	q := NewQueue(&countingRunner{}, nil, WithWorkers(1))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)
	q.Shutdown(ctx)
}

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/ports/driven"
	"github.com/custodia-labs/reportrag/internal/core/ports/driving"
	"github.com/custodia-labs/reportrag/internal/logger"
)

// Ensure IngestionQueue implements the interface.
var _ driving.IngestionService = (*IngestionQueue)(nil)

// queueBuffer is the number of submissions held before Submit blocks.
const queueBuffer = 64

// ingestTask is one queued document.
type ingestTask struct {
	id         string
	documentID string
	data       []byte
}

// IngestionQueue runs ingestion asynchronously on a worker pool.
// Retryable failures back off exponentially; terminal failures and retry
// exhaustion mark the document failed. Documents never share artifacts
// except by content hash, so workers need no coordination.
type IngestionQueue struct {
	runner   driving.IngestionRunner
	docs     driven.DocumentStore
	settings domain.IngestionSettings
	sleep    func(ctx context.Context, d time.Duration) error

	tasks   chan ingestTask
	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	countMu  sync.Mutex
	inflight int
	idle     chan struct{}
}

// QueueOption configures an IngestionQueue.
type QueueOption func(*IngestionQueue)

// WithSleep replaces the backoff wait. Tests use it to skip delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) QueueOption {
	return func(q *IngestionQueue) {
		q.sleep = sleep
	}
}

// NewIngestionQueue creates a queue and starts its workers.
func NewIngestionQueue(
	runner driving.IngestionRunner,
	docs driven.DocumentStore,
	settings domain.IngestionSettings,
	opts ...QueueOption,
) *IngestionQueue {
	if settings.Workers <= 0 {
		settings.Workers = domain.DefaultIngestionWorkers
	}
	if settings.MaxRetries < 0 {
		settings.MaxRetries = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &IngestionQueue{
		runner:   runner,
		docs:     docs,
		settings: settings,
		sleep:    sleepContext,
		tasks:    make(chan ingestTask, queueBuffer),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(q)
	}

	for i := 0; i < settings.Workers; i++ {
		q.workers.Add(1)
		go q.work()
	}
	return q
}

// Submit queues a document for ingestion and returns the task ID.
func (q *IngestionQueue) Submit(ctx context.Context, documentID string, data []byte) (string, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return "", domain.ErrQueueClosed
	}

	task := ingestTask{id: uuid.NewString(), documentID: documentID, data: data}
	q.track(1)

	select {
	case q.tasks <- task:
		logger.Debug("Queued ingestion task %s for document %s", task.id, documentID)
		return task.id, nil
	case <-ctx.Done():
		q.track(-1)
		return "", ctx.Err()
	}
}

// Wait blocks until every submitted task finished or ctx is done.
func (q *IngestionQueue) Wait(ctx context.Context) error {
	for {
		q.countMu.Lock()
		if q.inflight == 0 {
			q.countMu.Unlock()
			return nil
		}
		idle := q.idle
		q.countMu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting submissions and waits for queued work to finish.
func (q *IngestionQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	q.workers.Wait()
	q.cancel()
	return nil
}

// Abort cancels running work and backoff waits, then closes the queue.
// Interrupted documents stay pending.
func (q *IngestionQueue) Abort() error {
	q.cancel()
	return q.Close()
}

// track adjusts the in-flight count and signals Wait when it drops to zero.
func (q *IngestionQueue) track(delta int) {
	q.countMu.Lock()
	defer q.countMu.Unlock()

	if q.inflight == 0 && delta > 0 {
		q.idle = make(chan struct{})
	}
	q.inflight += delta
	if q.inflight == 0 && q.idle != nil {
		close(q.idle)
	}
}

func (q *IngestionQueue) work() {
	defer q.workers.Done()
	for task := range q.tasks {
		q.process(task)
		q.track(-1)
	}
}

// process runs one task to a terminal status.
func (q *IngestionQueue) process(task ingestTask) {
	ctx := q.ctx
	for attempt := 1; ; attempt++ {
		logger.Debug("Ingesting document %s (task %s, attempt %d)", task.documentID, task.id, attempt)

		result, err := q.runner.Ingest(ctx, task.documentID, task.data)
		if err == nil {
			q.succeed(ctx, task, result, attempt)
			return
		}
		if ctx.Err() != nil {
			logger.Warn("Ingestion of %s interrupted: %v", task.documentID, err)
			return
		}

		if domain.IsTerminal(err) {
			q.fail(ctx, task, attempt, err)
			return
		}
		if attempt > q.settings.MaxRetries {
			q.fail(ctx, task, attempt, fmt.Errorf("retries exhausted: %w", err))
			return
		}

		logger.Warn("Ingestion of %s failed (attempt %d): %v", task.documentID, attempt, err)
		if uerr := q.docs.UpdateStatus(ctx, task.documentID, domain.StatusPending, attempt, err.Error()); uerr != nil {
			logger.Warn("Failed to record attempt for %s: %v", task.documentID, uerr)
		}

		delay := CalculateBackoff(q.settings.BaseBackoff, q.settings.MaxBackoff, attempt)
		if err := q.sleep(ctx, delay); err != nil {
			return
		}
	}
}

func (q *IngestionQueue) succeed(ctx context.Context, task ingestTask, result *domain.IngestionResult, attempt int) {
	year := result.ReportYear
	if doc, err := q.docs.Get(ctx, task.documentID); err == nil && doc.ReportYear != nil {
		// A year recorded at registration wins over the inferred one.
		year = nil
	}

	if err := q.docs.UpdateIndex(ctx, task.documentID, result.ChunkIndexPath, result.DocumentIndexPath, year); err != nil {
		logger.Error("Failed to record index for %s: %v", task.documentID, err)
		return
	}
	if err := q.docs.UpdateStatus(ctx, task.documentID, domain.StatusSuccess, attempt, ""); err != nil {
		logger.Error("Failed to mark %s as indexed: %v", task.documentID, err)
		return
	}
	logger.Info("Document %s indexed (%d chunks)", task.documentID, result.ChunkCount)
}

func (q *IngestionQueue) fail(ctx context.Context, task ingestTask, attempt int, err error) {
	logger.Error("Ingestion of %s failed: %v", task.documentID, err)
	if uerr := q.docs.UpdateStatus(ctx, task.documentID, domain.StatusFailed, attempt, err.Error()); uerr != nil {
		logger.Error("Failed to mark %s as failed: %v", task.documentID, uerr)
	}
}

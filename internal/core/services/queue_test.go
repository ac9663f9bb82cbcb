package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reportrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/reportrag/internal/core/domain"
)

// recordingSleep skips backoff waits and records the requested delays.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func queueSettings(maxRetries int) domain.IngestionSettings {
	return domain.IngestionSettings{
		Workers:     2,
		MaxRetries:  maxRetries,
		BaseBackoff: 10 * time.Millisecond,
		MaxBackoff:  40 * time.Millisecond,
	}
}

func savePending(t *testing.T, docs *memory.DocumentStore, id string, year *int) {
	t.Helper()
	require.NoError(t, docs.Save(context.Background(), &domain.Document{
		ID:         id,
		CompanyID:  "acme",
		FileName:   id + ".pdf",
		ReportYear: year,
		Active:     true,
		Status:     domain.StatusPending,
	}))
}

func waitQueue(t *testing.T, q *IngestionQueue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Wait(ctx))
}

func TestIngestionQueue_Success(t *testing.T) {
	docs := memory.NewDocumentStore()
	savePending(t, docs, "doc-1", nil)
	runner := newMockRunner()
	runner.year = domain.IntPtr(2022)
	q := NewIngestionQueue(runner, docs, queueSettings(5))
	defer q.Close()

	id, err := q.Submit(context.Background(), "doc-1", []byte("pdf"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	waitQueue(t, q)

	doc, err := docs.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, doc.Status)
	assert.Equal(t, 1, doc.Attempts)
	assert.True(t, doc.IsIndexed())
	assert.Equal(t, domain.IntPtr(2022), doc.ReportYear)
}

func TestIngestionQueue_RegisteredYearWins(t *testing.T) {
	docs := memory.NewDocumentStore()
	savePending(t, docs, "doc-1", domain.IntPtr(2019))
	runner := newMockRunner()
	runner.year = domain.IntPtr(2022)
	q := NewIngestionQueue(runner, docs, queueSettings(0))
	defer q.Close()

	_, err := q.Submit(context.Background(), "doc-1", []byte("pdf"))
	require.NoError(t, err)
	waitQueue(t, q)

	doc, err := docs.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.IntPtr(2019), doc.ReportYear)
}

func TestIngestionQueue_RetriesThenSucceeds(t *testing.T) {
	docs := memory.NewDocumentStore()
	savePending(t, docs, "doc-1", nil)
	runner := newMockRunner()
	runner.errs["doc-1"] = []error{domain.ErrEmbeddingCapability, domain.ErrEmbeddingCapability}
	sleeper := &recordingSleep{}
	q := NewIngestionQueue(runner, docs, queueSettings(5), WithSleep(sleeper.sleep))
	defer q.Close()

	_, err := q.Submit(context.Background(), "doc-1", []byte("pdf"))
	require.NoError(t, err)
	waitQueue(t, q)

	doc, err := docs.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, doc.Status)
	assert.Equal(t, 3, doc.Attempts)
	assert.Empty(t, doc.LastError)
	assert.Equal(t, 3, runner.attemptsFor("doc-1"))
	assert.Len(t, sleeper.delays, 2)
}

func TestIngestionQueue_RetriesExhausted(t *testing.T) {
	docs := memory.NewDocumentStore()
	savePending(t, docs, "doc-1", nil)
	runner := newMockRunner()
	errs := make([]error, 10)
	for i := range errs {
		errs[i] = domain.ErrEmbeddingCapability
	}
	runner.errs["doc-1"] = errs
	sleeper := &recordingSleep{}
	q := NewIngestionQueue(runner, docs, queueSettings(5), WithSleep(sleeper.sleep))
	defer q.Close()

	_, err := q.Submit(context.Background(), "doc-1", []byte("pdf"))
	require.NoError(t, err)
	waitQueue(t, q)

	doc, err := docs.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, doc.Status)
	assert.Equal(t, 6, doc.Attempts, "one attempt plus five retries")
	assert.Contains(t, doc.LastError, "retries exhausted")
	assert.False(t, doc.IsIndexed())
	assert.Len(t, sleeper.delays, 5)
	for _, d := range sleeper.delays {
		assert.LessOrEqual(t, d, 50*time.Millisecond)
	}
}

func TestIngestionQueue_TerminalErrorIsNotRetried(t *testing.T) {
	docs := memory.NewDocumentStore()
	savePending(t, docs, "doc-1", nil)
	runner := newMockRunner()
	runner.errs["doc-1"] = []error{domain.ErrUnreadableDocument}
	sleeper := &recordingSleep{}
	q := NewIngestionQueue(runner, docs, queueSettings(5), WithSleep(sleeper.sleep))
	defer q.Close()

	_, err := q.Submit(context.Background(), "doc-1", []byte("pdf"))
	require.NoError(t, err)
	waitQueue(t, q)

	doc, err := docs.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, doc.Status)
	assert.Equal(t, 1, doc.Attempts)
	assert.Equal(t, 1, runner.attemptsFor("doc-1"))
	assert.Empty(t, sleeper.delays)
}

func TestIngestionQueue_ManyDocuments(t *testing.T) {
	docs := memory.NewDocumentStore()
	runner := newMockRunner()
	q := NewIngestionQueue(runner, docs, queueSettings(1), WithSleep((&recordingSleep{}).sleep))
	defer q.Close()

	ids := []string{"a", "b", "c", "d", "e", "f"}
	for _, id := range ids {
		savePending(t, docs, id, nil)
	}
	runner.errs["c"] = []error{errors.New("transient")}
	for _, id := range ids {
		_, err := q.Submit(context.Background(), id, []byte(id))
		require.NoError(t, err)
	}
	waitQueue(t, q)

	for _, id := range ids {
		doc, err := docs.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSuccess, doc.Status, id)
	}
}

func TestIngestionQueue_SubmitAfterClose(t *testing.T) {
	q := NewIngestionQueue(newMockRunner(), memory.NewDocumentStore(), queueSettings(0))
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	_, err := q.Submit(context.Background(), "doc-1", []byte("pdf"))

	assert.ErrorIs(t, err, domain.ErrQueueClosed)
}

func TestIngestionQueue_CloseDrainsQueuedWork(t *testing.T) {
	docs := memory.NewDocumentStore()
	savePending(t, docs, "doc-1", nil)
	q := NewIngestionQueue(newMockRunner(), docs, queueSettings(0))

	_, err := q.Submit(context.Background(), "doc-1", []byte("pdf"))
	require.NoError(t, err)
	require.NoError(t, q.Close())

	doc, err := docs.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, doc.Status)
}

func TestIngestionQueue_AbortLeavesDocumentPending(t *testing.T) {
	docs := memory.NewDocumentStore()
	savePending(t, docs, "doc-1", nil)
	runner := newMockRunner()
	runner.block = make(chan struct{})
	q := NewIngestionQueue(runner, docs, queueSettings(3))

	_, err := q.Submit(context.Background(), "doc-1", []byte("pdf"))
	require.NoError(t, err)
	require.NoError(t, q.Abort())

	doc, err := docs.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, doc.Status)
}

func TestIngestionQueue_WaitHonoursContext(t *testing.T) {
	runner := newMockRunner()
	runner.block = make(chan struct{})
	docs := memory.NewDocumentStore()
	savePending(t, docs, "doc-1", nil)
	q := NewIngestionQueue(runner, docs, queueSettings(0))
	defer func() {
		close(runner.block)
		_ = q.Close()
	}()

	_, err := q.Submit(context.Background(), "doc-1", []byte("pdf"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Wait(ctx), context.DeadlineExceeded)
}

func TestIngestionQueue_WaitWithNothingQueued(t *testing.T) {
	q := NewIngestionQueue(newMockRunner(), memory.NewDocumentStore(), queueSettings(0))
	defer q.Close()

	assert.NoError(t, q.Wait(context.Background()))
}

package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdata/booktone-api/internal/domain"
)

// processorFixture bundles a processor with the mocks behind it.
type processorFixture struct {
	processor *Processor
	jobs      *mockJobStore
	details   *mockDetailStore
	audit     *mockAuditStore
	recs      *mockRecStore
	generator *mockGenerator
	recorder  *mockRecorder
	cache     *StatusCache
}

func newProcessorFixture() *processorFixture {
	f := &processorFixture{
		jobs:     newMockJobStore(),
		details:  newMockDetailStore(),
		audit:    newMockAuditStore(),
		recs:     newMockRecStore(),
		recorder: &mockRecorder{},
		cache:    NewStatusCache(),
	}
	f.generator = &mockGenerator{
		GenerateForBookFn: func(ctx context.Context, bookID int) ([]string, error) {
			return []string{"dark", "atmospheric"}, nil
		},
	}
	f.processor = NewProcessor(
		f.jobs, f.details, f.audit, f.recs,
		f.generator, f.recorder, f.cache,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return f
}

// submit seeds the mock stores with a queued job for the given books and
// returns the queue-side copy.
func (f *processorFixture) submit(t *testing.T, bookIDs ...int) *domain.BatchJob {
	t.Helper()

	job, err := domain.NewBatchJob(len(bookIDs))
	require.NoError(t, err)
	require.NoError(t, f.jobs.Create(context.Background(), job))

	details := make([]*domain.BatchJobDetail, 0, len(bookIDs))
	for _, id := range bookIDs {
		details = append(details, &domain.BatchJobDetail{BatchID: job.BatchID, BookID: id})
	}
	require.NoError(t, f.details.CreateAll(context.Background(), details))

	return job
}

func TestProcessor_Process_AllBooksSucceed(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture()
	job := f.submit(t, 101, 102)

	// While a book is mid-generation the live cache must already report
	// Processing for the batch.
	f.generator.GenerateForBookFn = func(ctx context.Context, bookID int) ([]string, error) {
		progress, ok := f.cache.Get(job.BatchID)
		assert.True(t, ok, "cache entry missing during processing")
		assert.Equal(t, domain.BatchStatusProcessing, progress.Status)
		return []string{"dark", "atmospheric", "tense"}, nil
	}

	err := f.processor.Process(context.Background(), job)
	require.NoError(t, err)

	saved := f.jobs.saved(job.BatchID)
	require.NotNil(t, saved)
	assert.Equal(t, domain.BatchStatusCompleted, saved.Status)
	assert.Equal(t, 2, saved.ProcessedBooks)
	assert.Equal(t, 0, saved.FailedBooks)
	assert.Equal(t, saved.TotalBooks, saved.ProcessedBooks+saved.FailedBooks)
	require.NotNil(t, saved.StartedAt)
	require.NotNil(t, saved.CompletedAt)
	assert.False(t, saved.CompletedAt.Before(*saved.StartedAt))

	// Terminal state queries fall through to the store: the cache entry
	// is gone once processing ends.
	_, ok := f.cache.Get(job.BatchID)
	assert.False(t, ok)

	// One Started and one Completed audit row per book.
	logs, err := f.audit.ListProcessingLogs(context.Background(), job.BatchID)
	require.NoError(t, err)
	require.Len(t, logs, 4)
	assert.Equal(t, domain.ProcessingLogStarted, logs[0].Status)
	assert.Equal(t, 101, logs[0].BookID)
	assert.Equal(t, domain.ProcessingLogCompleted, logs[1].Status)
	assert.Equal(t, domain.ProcessingLogStarted, logs[2].Status)
	assert.Equal(t, 102, logs[2].BookID)
	assert.Equal(t, domain.ProcessingLogCompleted, logs[3].Status)

	// Three tones persisted per book, and a metric sample before and
	// after each book.
	assert.Equal(t, 6, f.recs.count())
	assert.Equal(t, 4, f.recorder.callCount())
}

func TestProcessor_Process_FailedItemDoesNotAbortBatch(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture()
	job := f.submit(t, 1, 2, 3)

	f.generator.GenerateForBookFn = func(ctx context.Context, bookID int) ([]string, error) {
		if bookID == 2 {
			return nil, errors.New("model unavailable")
		}
		return []string{"hopeful"}, nil
	}

	err := f.processor.Process(context.Background(), job)
	require.NoError(t, err)

	saved := f.jobs.saved(job.BatchID)
	require.NotNil(t, saved)
	assert.Equal(t, domain.BatchStatusCompleted, saved.Status)
	assert.Equal(t, 2, saved.ProcessedBooks)
	assert.Equal(t, 1, saved.FailedBooks)
	assert.Equal(t, saved.TotalBooks, saved.ProcessedBooks+saved.FailedBooks)
	assert.Empty(t, saved.ErrorMessage)

	// Started rows for all three books, Completed for the survivors,
	// Failed for the middle one, plus one error log row.
	logs, err := f.audit.ListProcessingLogs(context.Background(), job.BatchID)
	require.NoError(t, err)
	assert.Len(t, logs, 6)

	var failed []*domain.BatchProcessingLog
	for _, entry := range logs {
		if entry.Status == domain.ProcessingLogFailed {
			failed = append(failed, entry)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].BookID)
	assert.Contains(t, failed[0].Message, "model unavailable")

	assert.Equal(t, 1, f.audit.errorLogCount())
	assert.Equal(t, 2, f.recs.count())
}

func TestProcessor_Process_MissingJobIsAbandoned(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture()

	job, err := domain.NewBatchJob(2)
	require.NoError(t, err)

	// Never stored: the queue entry points at nothing.
	err = f.processor.Process(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, 0, f.jobs.count())
	_, ok := f.cache.Get(job.BatchID)
	assert.False(t, ok)
	assert.Equal(t, 0, f.recorder.callCount())
}

func TestProcessor_Process_OrchestrationFailureMarksBatchFailed(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture()
	job := f.submit(t, 1, 2)

	f.details.GetBookIDsFn = func(ctx context.Context, batchID string) ([]int, error) {
		return nil, errors.New("connection reset")
	}

	err := f.processor.Process(context.Background(), job)
	require.NoError(t, err)

	saved := f.jobs.saved(job.BatchID)
	require.NotNil(t, saved)
	assert.Equal(t, domain.BatchStatusFailed, saved.Status)
	assert.Contains(t, saved.ErrorMessage, "connection reset")
	require.NotNil(t, saved.CompletedAt)

	_, ok := f.cache.Get(job.BatchID)
	assert.False(t, ok)
}

func TestProcessor_Process_FailureMessageTruncated(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture()
	job := f.submit(t, 1)

	long := strings.Repeat("x", 1500)
	f.details.GetBookIDsFn = func(ctx context.Context, batchID string) ([]int, error) {
		return nil, errors.New(long)
	}

	require.NoError(t, f.processor.Process(context.Background(), job))

	saved := f.jobs.saved(job.BatchID)
	require.NotNil(t, saved)
	assert.Equal(t, domain.BatchStatusFailed, saved.Status)
	assert.Len(t, saved.ErrorMessage, 1000)
}

func TestProcessor_Process_CancellationStopsBetweenBooks(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture()
	job := f.submit(t, 1, 2, 3)

	ctx, cancel := context.WithCancel(context.Background())
	f.generator.GenerateForBookFn = func(genCtx context.Context, bookID int) ([]string, error) {
		if bookID == 1 {
			cancel()
		}
		return []string{"gritty"}, nil
	}

	err := f.processor.Process(ctx, job)
	require.NoError(t, err)

	// The first book completed; the loop stopped before the second. The
	// job stays in its last persisted state with no terminal marker.
	saved := f.jobs.saved(job.BatchID)
	require.NotNil(t, saved)
	assert.Equal(t, domain.BatchStatusProcessing, saved.Status)
	assert.Equal(t, 1, saved.ProcessedBooks)
	assert.Nil(t, saved.CompletedAt)

	_, ok := f.cache.Get(job.BatchID)
	assert.False(t, ok)
}

func TestProcessor_Process_OneBatchAtATime(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture()

	jobA := f.submit(t, 1, 2)
	jobB := f.submit(t, 3, 4)

	var active, maxActive int64
	f.generator.GenerateForBookFn = func(ctx context.Context, bookID int) ([]string, error) {
		n := atomic.AddInt64(&active, 1)
		for {
			seen := atomic.LoadInt64(&maxActive)
			if n <= seen || atomic.CompareAndSwapInt64(&maxActive, seen, n) {
				break
			}
		}
		defer atomic.AddInt64(&active, -1)
		return []string{"tense"}, nil
	}

	var wg sync.WaitGroup
	for _, job := range []*domain.BatchJob{jobA, jobB} {
		wg.Add(1)
		go func(j *domain.BatchJob) {
			defer wg.Done()
			assert.NoError(t, f.processor.Process(context.Background(), j))
		}(job)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&maxActive),
		"more than one batch was mid-generation at once")

	for _, job := range []*domain.BatchJob{jobA, jobB} {
		saved := f.jobs.saved(job.BatchID)
		require.NotNil(t, saved)
		assert.Equal(t, domain.BatchStatusCompleted, saved.Status)
	}
}

func TestProcessor_Process_ProgressPersistFailureFailsBatch(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture()
	job := f.submit(t, 1, 2)

	// Let the Processing transition through, then fail the first
	// per-book progress write.
	var updates int64
	base := f.jobs.UpdateFn
	f.jobs.UpdateFn = func(ctx context.Context, j *domain.BatchJob) error {
		if atomic.AddInt64(&updates, 1) == 2 {
			return fmt.Errorf("write timeout")
		}
		return base(ctx, j)
	}

	err := f.processor.Process(context.Background(), job)
	require.NoError(t, err)

	saved := f.jobs.saved(job.BatchID)
	require.NotNil(t, saved)
	assert.Equal(t, domain.BatchStatusFailed, saved.Status)
	assert.Contains(t, saved.ErrorMessage, "write timeout")
}

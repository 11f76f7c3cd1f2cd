package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdata/booktone-api/internal/domain"
)

func testRunnerConfig() RunnerConfig {
	return RunnerConfig{
		PollInterval: 5 * time.Millisecond,
		ErrorBackoff: 5 * time.Millisecond,
	}
}

func TestRunner_ProcessesQueuedBatches(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture()
	queue := NewJobQueue()

	first := f.submit(t, 1, 2)
	second := f.submit(t, 3)
	queue.Enqueue(first)
	queue.Enqueue(second)

	runner := NewRunner(queue, f.processor, testRunnerConfig(), nil)
	runner.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, runner.Stop(ctx))
	}()

	assert.Eventually(t, func() bool {
		a := f.jobs.saved(first.BatchID)
		b := f.jobs.saved(second.BatchID)
		return a != nil && a.Status == domain.BatchStatusCompleted &&
			b != nil && b.Status == domain.BatchStatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, queue.Len())
}

func TestRunner_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture()
	queue := NewJobQueue()

	poisoned := f.submit(t, 1)
	healthy := f.submit(t, 2)

	f.generator.GenerateForBookFn = func(ctx context.Context, bookID int) ([]string, error) {
		if bookID == 1 {
			panic("nil dereference in tone parsing")
		}
		return []string{"warm"}, nil
	}

	queue.Enqueue(poisoned)
	queue.Enqueue(healthy)

	runner := NewRunner(queue, f.processor, testRunnerConfig(), nil)
	runner.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, runner.Stop(ctx))
	}()

	// The panic must not kill the worker loop: the next batch still runs.
	assert.Eventually(t, func() bool {
		job := f.jobs.saved(healthy.BatchID)
		return job != nil && job.Status == domain.BatchStatusCompleted
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRunner_StopIsBounded(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture()
	queue := NewJobQueue()

	job := f.submit(t, 1)

	started := make(chan struct{})
	block := make(chan struct{})
	f.generator.GenerateForBookFn = func(ctx context.Context, bookID int) ([]string, error) {
		close(started)
		<-block
		return nil, ctx.Err()
	}

	queue.Enqueue(job)

	runner := NewRunner(queue, f.processor, testRunnerConfig(), nil)
	runner.Start()

	<-started

	// The worker is stuck inside a batch that ignores cancellation, so
	// Stop must give up when its grace period expires.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := runner.Stop(ctx)
	assert.Error(t, err)

	close(block)
}

func TestRunner_StopWithEmptyQueue(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture()
	queue := NewJobQueue()

	runner := NewRunner(queue, f.processor, testRunnerConfig(), nil)
	runner.Start()

	// An idle worker parked on the poll interval must wake up and exit
	// promptly.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, runner.Stop(ctx))
}

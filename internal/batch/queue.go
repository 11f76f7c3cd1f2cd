package batch

import (
	"sync"

	"github.com/bookdata/booktone-api/internal/domain"
)

// JobQueue is an unbounded, thread-safe FIFO of submitted-but-not-yet-
// started batch jobs. Any number of submitting callers may Enqueue
// concurrently with the worker's TryDequeue. There is no priority, no
// re-ordering and no deduplication: a duplicate submission produces two
// independent entries.
type JobQueue struct {
	mu   sync.Mutex
	head []*domain.BatchJob
	tail []*domain.BatchJob
}

// NewJobQueue creates an empty job queue.
func NewJobQueue() *JobQueue {
	return &JobQueue{}
}

// Enqueue appends a job in O(1). It never blocks and never fails; the
// queue grows without bound.
func (q *JobQueue) Enqueue(job *domain.BatchJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tail = append(q.tail, job)
}

// TryDequeue removes and returns the oldest entry, or (nil, false) when
// the queue is empty. It never blocks.
func (q *JobQueue) TryDequeue() (*domain.BatchJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.head) == 0 {
		// Flip the tail into the head so dequeues stay amortized O(1).
		if len(q.tail) == 0 {
			return nil, false
		}
		for i, j := 0, len(q.tail)-1; i < j; i, j = i+1, j-1 {
			q.tail[i], q.tail[j] = q.tail[j], q.tail[i]
		}
		q.head = q.tail
		q.tail = nil
	}

	job := q.head[len(q.head)-1]
	q.head[len(q.head)-1] = nil
	q.head = q.head[:len(q.head)-1]
	return job, true
}

// Len returns the number of queued jobs.
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.head) + len(q.tail)
}

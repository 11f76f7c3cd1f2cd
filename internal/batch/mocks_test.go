package batch

import (
	"context"
	"database/sql"
	"sync"

	"github.com/bookdata/booktone-api/internal/domain"
	"github.com/bookdata/booktone-api/internal/store"
)

// mockJobStore implements store.BatchJobStore backed by an in-memory map.
// The Fn fields allow individual tests to override behavior.
type mockJobStore struct {
	mutex          sync.RWMutex
	jobs           map[string]*domain.BatchJob
	CreateFn       func(ctx context.Context, job *domain.BatchJob) error
	GetByBatchIDFn func(ctx context.Context, batchID string) (*domain.BatchJob, error)
	UpdateFn       func(ctx context.Context, job *domain.BatchJob) error
}

func newMockJobStore() *mockJobStore {
	s := &mockJobStore{jobs: make(map[string]*domain.BatchJob)}

	s.CreateFn = func(ctx context.Context, job *domain.BatchJob) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		copied := *job
		s.jobs[job.BatchID] = &copied
		return nil
	}

	s.GetByBatchIDFn = func(ctx context.Context, batchID string) (*domain.BatchJob, error) {
		s.mutex.RLock()
		defer s.mutex.RUnlock()
		job, ok := s.jobs[batchID]
		if !ok {
			return nil, store.ErrBatchJobNotFound
		}
		copied := *job
		return &copied, nil
	}

	s.UpdateFn = func(ctx context.Context, job *domain.BatchJob) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		if _, ok := s.jobs[job.BatchID]; !ok {
			return store.ErrBatchJobNotFound
		}
		copied := *job
		s.jobs[job.BatchID] = &copied
		return nil
	}

	return s
}

func (s *mockJobStore) Create(ctx context.Context, job *domain.BatchJob) error {
	return s.CreateFn(ctx, job)
}

func (s *mockJobStore) GetByBatchID(ctx context.Context, batchID string) (*domain.BatchJob, error) {
	return s.GetByBatchIDFn(ctx, batchID)
}

func (s *mockJobStore) Update(ctx context.Context, job *domain.BatchJob) error {
	return s.UpdateFn(ctx, job)
}

func (s *mockJobStore) WithTx(tx *sql.Tx) store.BatchJobStore { return s }

// saved returns a copy of the stored job, or nil if absent.
func (s *mockJobStore) saved(batchID string) *domain.BatchJob {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	job, ok := s.jobs[batchID]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (s *mockJobStore) count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.jobs)
}

// mockDetailStore implements store.BatchJobDetailStore.
type mockDetailStore struct {
	mutex        sync.RWMutex
	details      map[string][]int
	CreateAllFn  func(ctx context.Context, details []*domain.BatchJobDetail) error
	GetBookIDsFn func(ctx context.Context, batchID string) ([]int, error)
}

func newMockDetailStore() *mockDetailStore {
	s := &mockDetailStore{details: make(map[string][]int)}

	s.CreateAllFn = func(ctx context.Context, details []*domain.BatchJobDetail) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		for _, d := range details {
			s.details[d.BatchID] = append(s.details[d.BatchID], d.BookID)
		}
		return nil
	}

	s.GetBookIDsFn = func(ctx context.Context, batchID string) ([]int, error) {
		s.mutex.RLock()
		defer s.mutex.RUnlock()
		ids := s.details[batchID]
		out := make([]int, len(ids))
		copy(out, ids)
		return out, nil
	}

	return s
}

func (s *mockDetailStore) CreateAll(ctx context.Context, details []*domain.BatchJobDetail) error {
	return s.CreateAllFn(ctx, details)
}

func (s *mockDetailStore) GetBookIDs(ctx context.Context, batchID string) ([]int, error) {
	return s.GetBookIDsFn(ctx, batchID)
}

func (s *mockDetailStore) WithTx(tx *sql.Tx) store.BatchJobDetailStore { return s }

// mockAuditStore implements store.AuditLogStore, recording appended rows
// in order.
type mockAuditStore struct {
	mutex          sync.RWMutex
	processingLogs []*domain.BatchProcessingLog
	errorLogs      []*domain.ErrorLog

	AppendProcessingLogFn func(ctx context.Context, entry *domain.BatchProcessingLog) error
}

func newMockAuditStore() *mockAuditStore {
	s := &mockAuditStore{}
	s.AppendProcessingLogFn = func(ctx context.Context, entry *domain.BatchProcessingLog) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		copied := *entry
		s.processingLogs = append(s.processingLogs, &copied)
		return nil
	}
	return s
}

func (s *mockAuditStore) AppendProcessingLog(ctx context.Context, entry *domain.BatchProcessingLog) error {
	return s.AppendProcessingLogFn(ctx, entry)
}

func (s *mockAuditStore) ListProcessingLogs(ctx context.Context, batchID string) ([]*domain.BatchProcessingLog, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	var out []*domain.BatchProcessingLog
	for _, entry := range s.processingLogs {
		if entry.BatchID == batchID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *mockAuditStore) AppendErrorLog(ctx context.Context, entry *domain.ErrorLog) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	copied := *entry
	s.errorLogs = append(s.errorLogs, &copied)
	return nil
}

func (s *mockAuditStore) errorLogCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.errorLogs)
}

// mockMetricStore implements store.MetricStore.
type mockMetricStore struct {
	mutex   sync.RWMutex
	metrics []*domain.ResourceMetric
}

func newMockMetricStore() *mockMetricStore {
	return &mockMetricStore{}
}

func (s *mockMetricStore) Insert(ctx context.Context, metric *domain.ResourceMetric) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	copied := *metric
	s.metrics = append(s.metrics, &copied)
	return nil
}

func (s *mockMetricStore) ListByBatchID(ctx context.Context, batchID string) ([]*domain.ResourceMetric, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	var out []*domain.ResourceMetric
	for _, m := range s.metrics {
		if m.BatchID == batchID {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

// mockRecStore implements store.RecommendationStore with only the engine
// path exercised.
type mockRecStore struct {
	mutex       sync.RWMutex
	recs        []*domain.ToneRecommendation
	CreateAllFn func(ctx context.Context, recs []*domain.ToneRecommendation) error
}

func newMockRecStore() *mockRecStore {
	s := &mockRecStore{}
	s.CreateAllFn = func(ctx context.Context, recs []*domain.ToneRecommendation) error {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		for _, r := range recs {
			copied := *r
			s.recs = append(s.recs, &copied)
		}
		return nil
	}
	return s
}

func (s *mockRecStore) CreateAll(ctx context.Context, recs []*domain.ToneRecommendation) error {
	return s.CreateAllFn(ctx, recs)
}

func (s *mockRecStore) GetByID(ctx context.Context, id int64) (*domain.ToneRecommendation, error) {
	return nil, store.ErrRecommendationNotFound
}

func (s *mockRecStore) ListByBookID(ctx context.Context, bookID int) ([]*domain.ToneRecommendation, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	var out []*domain.ToneRecommendation
	for _, r := range s.recs {
		if r.BookID == bookID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *mockRecStore) UpdateFeedback(ctx context.Context, id int64, feedback int) error {
	return store.ErrRecommendationNotFound
}

func (s *mockRecStore) WithTx(tx *sql.Tx) store.RecommendationStore { return s }

func (s *mockRecStore) count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.recs)
}

// mockGenerator implements generation.Generator.
type mockGenerator struct {
	GenerateForBookFn func(ctx context.Context, bookID int) ([]string, error)
}

func (g *mockGenerator) GenerateForBook(ctx context.Context, bookID int) ([]string, error) {
	return g.GenerateForBookFn(ctx, bookID)
}

// mockRecorder implements MetricsRecorder, counting calls.
type mockRecorder struct {
	mutex sync.Mutex
	calls int
}

func (r *mockRecorder) Record(ctx context.Context, batchID string, bookID *int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.calls++
}

func (r *mockRecorder) callCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.calls
}

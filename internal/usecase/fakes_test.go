package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"HerdPulse/internal/domain/models"
	domrepo "HerdPulse/internal/domain/repository"
	"HerdPulse/internal/services/analytics"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

type fakeHistory struct {
	mu       sync.Mutex
	subjects []models.Subject
	records  []models.YieldRecord
	err      error
	fetches  int
	lists    int
}

func (f *fakeHistory) FetchRecords(_ context.Context, q domrepo.HistoryQuery) ([]models.YieldRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.YieldRecord
	for _, r := range f.records {
		if q.OwnerID != "" && r.OwnerID != q.OwnerID {
			continue
		}
		if q.SubjectID != "" && r.SubjectID != q.SubjectID {
			continue
		}
		out = append(out, r)
	}
	asc := domrepo.NormalizeOrder(q.Order) == domrepo.OrderAsc
	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Date.After(out[j].Date)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeHistory) ListSubjects(_ context.Context, ownerID string) ([]models.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Subject
	for _, s := range f.subjects {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeHistory) DataVersion(_ context.Context, ownerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ownerID + "-v1", f.err
}

// addSubject registers a subject and n daily records of constant total v.
func (f *fakeHistory) addSubject(owner, id, label string, n int, v float64) {
	f.subjects = append(f.subjects, models.Subject{ID: id, OwnerID: owner, Label: label})
	for i := 0; i < n; i++ {
		f.records = append(f.records, models.NewYieldRecord(owner, id, day0.AddDate(0, 0, i), v/2, v/2))
	}
}

func newAnalytics(h domrepo.HistoryProvider) *HerdAnalytics {
	trend := analytics.NewLinearTrend()
	return NewHerdAnalytics(
		h,
		trend,
		analytics.NewLinearForecaster(),
		analytics.NewZScoreDetector(),
		analytics.NewHerdClassifier(trend),
		analytics.NewRuleEngine(),
		analytics.NewRevenueForecaster(0),
	)
}

var errStoreDown = errors.New("store down")

type fakeStore struct {
	mu       sync.Mutex
	stored   []models.YieldRecord
	subjects []models.Subject
	err      error
}

func (s *fakeStore) Init(context.Context) error { return nil }

func (s *fakeStore) Store(_ context.Context, r *models.YieldRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, *r)
	return nil
}

func (s *fakeStore) StoreBatch(ctx context.Context, records []*models.YieldRecord) error {
	for _, r := range records {
		if err := s.Store(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) UpsertSubject(_ context.Context, sub models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.subjects = append(s.subjects, sub)
	return nil
}

func (s *fakeStore) Health(context.Context) error { return s.err }
func (s *fakeStore) Close() error                 { return nil }

type fakePublisher struct {
	published []models.YieldRecord
	closed    bool
}

func (p *fakePublisher) Publish(_ context.Context, r *models.YieldRecord) error {
	p.published = append(p.published, *r)
	return nil
}

func (p *fakePublisher) PublishBatch(ctx context.Context, records []*models.YieldRecord) error {
	for _, r := range records {
		_ = p.Publish(ctx, r)
	}
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

type fakeMetrics struct {
	mu     sync.Mutex
	sent   map[string]int
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{sent: map[string]int{}, errors: map[string]int{}}
}

func (m *fakeMetrics) RecordMessageSent(backend, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[backend]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

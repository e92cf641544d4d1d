package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"HerdPulse/internal/domain/models"
	"HerdPulse/internal/services/analytics"
)

// Insights section names, used as keys of models.Insights.Errors.
const (
	SectionPerformance     = "performance"
	SectionRecommendations = "recommendations"
	SectionRevenue         = "revenue"
	SectionAnomalies       = "anomalies"
)

// InsightsUseCase assembles the dashboard view from independent sections.
type InsightsUseCase struct {
	analytics *HerdAnalytics
	timeout   time.Duration
	now       func() time.Time
}

func NewInsightsUseCase(a *HerdAnalytics, timeout time.Duration) *InsightsUseCase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &InsightsUseCase{analytics: a, timeout: timeout, now: time.Now}
}

// GetInsights runs the sections concurrently. A failing section is left nil and
// described in Errors; the view itself only fails on a bad request.
func (uc *InsightsUseCase) GetInsights(ctx context.Context, ownerID string, unitPrice float64) (*models.Insights, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner_id required")
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &models.Insights{
		OwnerID:     ownerID,
		GeneratedAt: uc.now().UTC(),
		Errors:      map[string]models.SectionError{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	type perfPair struct {
		perf models.PerformanceReport
		recs models.RecommendationReport
	}
	ch := make(chan item, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		p, r, err := uc.analytics.PerformanceAndRecommendations(ctx, ownerID)
		ch <- item{SectionPerformance, perfPair{p, r}, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.analytics.Revenue(ctx, ownerID, unitPrice)
		ch <- item{SectionRevenue, v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.analytics.Anomalies(ctx, ownerID)
		ch <- item{SectionAnomalies, v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			se := sectionError(it.err)
			res.Errors[it.name] = se
			if it.name == SectionPerformance {
				res.Errors[SectionRecommendations] = se
			}
			continue
		}
		switch it.name {
		case SectionPerformance:
			v := it.val.(perfPair)
			res.Performance = &v.perf
			res.Recommendations = &v.recs
		case SectionRevenue:
			v := it.val.(models.RevenueProjection)
			res.Revenue = &v
		case SectionAnomalies:
			v := it.val.(models.AnomalyReport)
			res.Anomalies = &v
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}

func sectionError(err error) models.SectionError {
	if kind, ok := analytics.KindOf(err); ok {
		return models.SectionError{Kind: string(kind), Message: err.Error()}
	}
	return models.SectionError{Kind: "Internal", Message: err.Error()}
}

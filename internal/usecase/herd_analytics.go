package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"HerdPulse/internal/domain/models"
	domrepo "HerdPulse/internal/domain/repository"
	domsvc "HerdPulse/internal/domain/service"
	"HerdPulse/internal/services/analytics"
	"HerdPulse/pkg/logger"
)

// ErrSubjectNotFound is returned when a subject does not belong to the owner.
var ErrSubjectNotFound = errors.New("subject not found")

// HerdAnalytics reads the owner's history once per call and runs the engine
// over it. Herd-wide operations make two reads (subjects, then records), so a
// subject added in between shows up with no records and is skipped.
type HerdAnalytics struct {
	history  domrepo.HistoryProvider
	trend    domsvc.TrendEstimator
	forecast domsvc.ForecastStrategy
	anomaly  domsvc.AnomalyDetector
	perf     domsvc.PerformanceClassifier
	recs     domsvc.RecommendationEngine
	revenue  domsvc.FinancialForecaster
	log      *logger.Logger
}

func NewHerdAnalytics(
	history domrepo.HistoryProvider,
	trend domsvc.TrendEstimator,
	forecast domsvc.ForecastStrategy,
	anomaly domsvc.AnomalyDetector,
	perf domsvc.PerformanceClassifier,
	recs domsvc.RecommendationEngine,
	revenue domsvc.FinancialForecaster,
) *HerdAnalytics {
	return &HerdAnalytics{
		history:  history,
		trend:    trend,
		forecast: forecast,
		anomaly:  anomaly,
		perf:     perf,
		recs:     recs,
		revenue:  revenue,
		log:      logger.Nop(),
	}
}

func (a *HerdAnalytics) SetLogger(l *logger.Logger) {
	if l != nil {
		a.log = l
	}
}

// ForecastMethod names the strategy chosen at construction.
func (a *HerdAnalytics) ForecastMethod() string { return a.forecast.Name() }

func (a *HerdAnalytics) Trend(ctx context.Context, ownerID, subjectID string) (models.TrendResult, error) {
	start := time.Now()
	if err := a.ensureSubject(ctx, ownerID, subjectID); err != nil {
		return models.TrendResult{}, err
	}
	records, err := a.history.FetchRecords(ctx, domrepo.HistoryQuery{
		OwnerID:   ownerID,
		SubjectID: subjectID,
		Order:     domrepo.OrderAsc,
	})
	if err != nil {
		return models.TrendResult{}, a.fail("trend", ownerID, fmt.Errorf("fetch records: %w", err))
	}
	res, err := analytics.EstimateOrStable(a.trend, subjectID, records)
	if err != nil {
		return models.TrendResult{}, a.fail("trend", ownerID, err)
	}
	a.done("trend", ownerID, len(records), start)
	return res, nil
}

func (a *HerdAnalytics) Forecast(ctx context.Context, ownerID, subjectID string, daysAhead int) (models.ForecastSet, error) {
	start := time.Now()
	if err := a.ensureSubject(ctx, ownerID, subjectID); err != nil {
		return models.ForecastSet{}, err
	}
	records, err := a.history.FetchRecords(ctx, domrepo.HistoryQuery{
		OwnerID:   ownerID,
		SubjectID: subjectID,
		Order:     domrepo.OrderDesc,
		Limit:     a.forecast.Window(),
	})
	if err != nil {
		return models.ForecastSet{}, a.fail("forecast", ownerID, fmt.Errorf("fetch records: %w", err))
	}
	set, err := a.forecast.Forecast(subjectID, records, daysAhead)
	if err != nil {
		return models.ForecastSet{}, a.fail("forecast", ownerID, err)
	}
	a.done("forecast", ownerID, len(records), start)
	return set, nil
}

func (a *HerdAnalytics) Anomalies(ctx context.Context, ownerID string) (models.AnomalyReport, error) {
	start := time.Now()
	records, err := a.history.FetchRecords(ctx, domrepo.HistoryQuery{
		OwnerID: ownerID,
		Order:   domrepo.OrderDesc,
		Limit:   analytics.AnomalyWindow,
	})
	if err != nil {
		return models.AnomalyReport{}, a.fail("anomalies", ownerID, fmt.Errorf("fetch records: %w", err))
	}
	report, err := a.anomaly.Detect(records)
	if err != nil {
		return models.AnomalyReport{}, a.fail("anomalies", ownerID, err)
	}
	a.done("anomalies", ownerID, len(records), start)
	return report, nil
}

func (a *HerdAnalytics) Performance(ctx context.Context, ownerID string) (models.PerformanceReport, error) {
	start := time.Now()
	herd, n, err := a.herd(ctx, ownerID)
	if err != nil {
		return models.PerformanceReport{}, a.fail("performance", ownerID, err)
	}
	report, err := a.perf.Classify(herd)
	if err != nil {
		return models.PerformanceReport{}, a.fail("performance", ownerID, err)
	}
	a.done("performance", ownerID, n, start)
	return report, nil
}

// Recommendations derives recommendations from a fresh performance report.
func (a *HerdAnalytics) Recommendations(ctx context.Context, ownerID string) (models.RecommendationReport, error) {
	report, err := a.Performance(ctx, ownerID)
	if err != nil {
		return models.RecommendationReport{}, err
	}
	return a.recs.Recommend(report), nil
}

// PerformanceAndRecommendations returns both reports from a single snapshot.
func (a *HerdAnalytics) PerformanceAndRecommendations(ctx context.Context, ownerID string) (models.PerformanceReport, models.RecommendationReport, error) {
	report, err := a.Performance(ctx, ownerID)
	if err != nil {
		return models.PerformanceReport{}, models.RecommendationReport{}, err
	}
	return report, a.recs.Recommend(report), nil
}

// Revenue projects revenue; a zero unitPrice selects the configured default.
func (a *HerdAnalytics) Revenue(ctx context.Context, ownerID string, unitPrice float64) (models.RevenueProjection, error) {
	start := time.Now()
	records, err := a.history.FetchRecords(ctx, domrepo.HistoryQuery{
		OwnerID: ownerID,
		Order:   domrepo.OrderDesc,
		Limit:   analytics.FinancialWindow,
	})
	if err != nil {
		return models.RevenueProjection{}, a.fail("revenue", ownerID, fmt.Errorf("fetch records: %w", err))
	}
	proj, err := a.revenue.Project(records, unitPrice)
	if err != nil {
		return models.RevenueProjection{}, a.fail("revenue", ownerID, err)
	}
	a.done("revenue", ownerID, len(records), start)
	return proj, nil
}

// DataVersion exposes the provider's change marker for response memoization.
func (a *HerdAnalytics) DataVersion(ctx context.Context, ownerID string) (string, error) {
	return a.history.DataVersion(ctx, ownerID)
}

// herd loads the owner's subjects and all their records in two separate reads,
// not one transaction, and groups the records by subject.
func (a *HerdAnalytics) herd(ctx context.Context, ownerID string) ([]domsvc.SubjectHistory, int, error) {
	subjects, err := a.history.ListSubjects(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}
	if len(subjects) == 0 {
		return nil, 0, nil
	}
	records, err := a.history.FetchRecords(ctx, domrepo.HistoryQuery{
		OwnerID: ownerID,
		Order:   domrepo.OrderAsc,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("fetch records: %w", err)
	}

	bySubject := make(map[string][]models.YieldRecord, len(subjects))
	for _, r := range records {
		bySubject[r.SubjectID] = append(bySubject[r.SubjectID], r)
	}
	herd := make([]domsvc.SubjectHistory, 0, len(subjects))
	for _, s := range subjects {
		herd = append(herd, domsvc.SubjectHistory{Subject: s, Records: bySubject[s.ID]})
	}
	return herd, len(records), nil
}

func (a *HerdAnalytics) ensureSubject(ctx context.Context, ownerID, subjectID string) error {
	subjects, err := a.history.ListSubjects(ctx, ownerID)
	if err != nil {
		return a.fail("subjects", ownerID, fmt.Errorf("list subjects: %w", err))
	}
	for _, s := range subjects {
		if s.ID == subjectID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrSubjectNotFound, subjectID)
}

func (a *HerdAnalytics) fail(op, ownerID string, err error) error {
	if kind, ok := analytics.KindOf(err); ok {
		a.log.Warn("analytics: not enough data",
			logger.String("op", op),
			logger.String("owner_id", ownerID),
			logger.String("kind", string(kind)),
			logger.String("reason", err.Error()),
		)
		return err
	}
	a.log.Error("analytics: failed",
		logger.String("op", op),
		logger.String("owner_id", ownerID),
		logger.Error(err),
	)
	return err
}

func (a *HerdAnalytics) done(op, ownerID string, records int, start time.Time) {
	a.log.Debug("analytics: ok",
		logger.String("op", op),
		logger.String("owner_id", ownerID),
		logger.Int("records", records),
		logger.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"HerdPulse/internal/domain/models"
	"HerdPulse/internal/repository"
	"HerdPulse/internal/services/analytics"
	"HerdPulse/internal/usecase"
	xhttp "HerdPulse/pkg/http"
	applogger "HerdPulse/pkg/logger"
)

// backend runs analytics either in-process or against the HTTP API.
type backend interface {
	Trend(ctx context.Context, owner, subject string) (models.TrendResult, error)
	Forecast(ctx context.Context, owner, subject string, days int) (models.ForecastSet, error)
	Anomalies(ctx context.Context, owner string) (models.AnomalyReport, error)
	Performance(ctx context.Context, owner string) (models.PerformanceReport, error)
	Recommendations(ctx context.Context, owner string) (models.RecommendationReport, error)
	Revenue(ctx context.Context, owner string, price float64) (models.RevenueProjection, error)
	Insights(ctx context.Context, owner string, price float64) (*models.Insights, error)
	Import(ctx context.Context, rows []importRow) (int, error)
	Close() error
}

func openBackend(opts *options) (backend, error) {
	if opts.server != "" {
		return newRemoteBackend(opts.server, opts.timeout), nil
	}
	return newLocalBackend(opts.dbPath, opts.strategy)
}

type localBackend struct {
	*usecase.HerdAnalytics
	insights *usecase.InsightsUseCase
	proc     *usecase.YieldProcessor
	store    *repository.SQLiteHistoryStore
}

func newLocalBackend(path, strategy string) (*localBackend, error) {
	forecast, err := analytics.NewForecastStrategy(strategy)
	if err != nil {
		return nil, err
	}
	store, err := repository.NewSQLiteHistoryStore(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	store.SetLogger(applogger.Nop())

	trend := analytics.NewLinearTrend()
	a := usecase.NewHerdAnalytics(
		store,
		trend,
		forecast,
		analytics.NewZScoreDetector(),
		analytics.NewHerdClassifier(trend),
		analytics.NewRuleEngine(),
		analytics.NewRevenueForecaster(analytics.DefaultUnitPrice),
	)
	return &localBackend{
		HerdAnalytics: a,
		insights:      usecase.NewInsightsUseCase(a, 0),
		proc:          usecase.NewYieldProcessor(nil, store, discardMetrics{}, usecase.BackendDirect),
		store:         store,
	}, nil
}

func (b *localBackend) Insights(ctx context.Context, owner string, price float64) (*models.Insights, error) {
	return b.insights.GetInsights(ctx, owner, price)
}

// Import stores all rows in one transaction, then applies labels.
func (b *localBackend) Import(ctx context.Context, rows []importRow) (int, error) {
	records := make([]*models.YieldRecord, 0, len(rows))
	for i := range rows {
		records = append(records, &rows[i].record)
	}
	if err := b.proc.ProcessBatch(ctx, records); err != nil {
		return 0, err
	}
	for _, s := range labels(rows) {
		if _, err := b.proc.LabelSubject(ctx, s); err != nil {
			return len(records), err
		}
	}
	return len(records), nil
}

func (b *localBackend) Close() error { return b.store.Close() }

// discardMetrics satisfies repository.Metrics for one-shot CLI runs.
type discardMetrics struct{}

func (discardMetrics) RecordMessageSent(string, string) {}
func (discardMetrics) RecordError(string)               {}
func (discardMetrics) RecordLatency(string, float64)    {}

type remoteBackend struct {
	base   string
	client *xhttp.Client
}

func newRemoteBackend(server string, timeout time.Duration) *remoteBackend {
	return &remoteBackend{
		base:   strings.TrimRight(server, "/"),
		client: xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent("herdctl/"+version)),
	}
}

func (b *remoteBackend) get(ctx context.Context, path string, q url.Values, dest interface{}) error {
	return b.client.SendEnvelope(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.base + path,
		QueryParams: q,
	}, dest)
}

func (b *remoteBackend) Trend(ctx context.Context, owner, subject string) (models.TrendResult, error) {
	var res models.TrendResult
	err := b.get(ctx, "/api/analytics/trend", url.Values{"owner_id": {owner}, "subject_id": {subject}}, &res)
	return res, err
}

func (b *remoteBackend) Forecast(ctx context.Context, owner, subject string, days int) (models.ForecastSet, error) {
	var res models.ForecastSet
	q := url.Values{"owner_id": {owner}, "subject_id": {subject}, "days_ahead": {strconv.Itoa(days)}}
	err := b.get(ctx, "/api/analytics/forecast", q, &res)
	return res, err
}

func (b *remoteBackend) Anomalies(ctx context.Context, owner string) (models.AnomalyReport, error) {
	var res models.AnomalyReport
	err := b.get(ctx, "/api/analytics/anomalies", url.Values{"owner_id": {owner}}, &res)
	return res, err
}

func (b *remoteBackend) Performance(ctx context.Context, owner string) (models.PerformanceReport, error) {
	var res models.PerformanceReport
	err := b.get(ctx, "/api/analytics/performance", url.Values{"owner_id": {owner}}, &res)
	return res, err
}

func (b *remoteBackend) Recommendations(ctx context.Context, owner string) (models.RecommendationReport, error) {
	var res models.RecommendationReport
	err := b.get(ctx, "/api/analytics/recommendations", url.Values{"owner_id": {owner}}, &res)
	return res, err
}

func (b *remoteBackend) Revenue(ctx context.Context, owner string, price float64) (models.RevenueProjection, error) {
	var res models.RevenueProjection
	err := b.get(ctx, "/api/analytics/revenue", pricedQuery(owner, price), &res)
	return res, err
}

func (b *remoteBackend) Insights(ctx context.Context, owner string, price float64) (*models.Insights, error) {
	res := &models.Insights{}
	if err := b.get(ctx, "/api/analytics/insights", pricedQuery(owner, price), res); err != nil {
		return nil, err
	}
	return res, nil
}

// Import posts rows one by one; the server may route them through Kafka.
func (b *remoteBackend) Import(ctx context.Context, rows []importRow) (int, error) {
	for i, r := range rows {
		err := b.client.SendEnvelope(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    b.base + "/api/yields",
			Body: models.YieldRequest{
				OwnerID:   r.record.OwnerID,
				SubjectID: r.record.SubjectID,
				Date:      r.record.Date.Format(models.DateLayout),
				Morning:   r.record.Morning,
				Afternoon: r.record.Afternoon,
			},
		}, nil)
		if err != nil {
			return i, fmt.Errorf("row %d: %w", r.line, err)
		}
	}
	for _, s := range labels(rows) {
		err := b.client.SendEnvelope(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    b.base + "/api/subjects",
			Body:   s,
		}, nil)
		if err != nil {
			return len(rows), fmt.Errorf("label %s: %w", s.SubjectID, err)
		}
	}
	return len(rows), nil
}

func (b *remoteBackend) Close() error { return nil }

func pricedQuery(owner string, price float64) url.Values {
	q := url.Values{"owner_id": {owner}}
	if price > 0 {
		q.Set("unit_price", strconv.FormatFloat(price, 'f', -1, 64))
	}
	return q
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	models "HerdPulse/internal/domain/models"
	domrepo "HerdPulse/internal/domain/repository"
	"HerdPulse/internal/middleware"
	"HerdPulse/internal/repository"
	"HerdPulse/internal/service/cache"
	"HerdPulse/internal/services/analytics"
	"HerdPulse/internal/usecase"
	xhttp "HerdPulse/pkg/http"
	"HerdPulse/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingHistory counts snapshot reads so tests can tell cache hits apart.
type countingHistory struct {
	*repository.SQLiteHistoryStore
	fetches int32
}

func (h *countingHistory) FetchRecords(ctx context.Context, hq domrepo.HistoryQuery) ([]models.YieldRecord, error) {
	atomic.AddInt32(&h.fetches, 1)
	return h.SQLiteHistoryStore.FetchRecords(ctx, hq)
}

type harness struct {
	e       *echo.Echo
	history *countingHistory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := repository.NewSQLiteHistoryStore(filepath.Join(t.TempDir(), "herd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	history := &countingHistory{SQLiteHistoryStore: store}
	trend := analytics.NewLinearTrend()
	a := usecase.NewHerdAnalytics(
		history,
		trend,
		analytics.NewLinearForecaster(),
		analytics.NewZScoreDetector(),
		analytics.NewHerdClassifier(trend),
		analytics.NewRuleEngine(),
		analytics.NewRevenueForecaster(analytics.DefaultUnitPrice),
	)
	proc := usecase.NewYieldProcessor(nil, store, metrics.NewWithRegistry(prometheus.NewRegistry()), usecase.BackendDirect)

	e := echo.New()
	xhttp.Handlers{
		NewAnalyticsEchoHandler(nil, a, usecase.NewInsightsUseCase(a, time.Second), cache.NewMemo(cache.NewTTLCache(), time.Minute)),
		NewYieldsEchoHandler(nil, proc),
	}.RegisterRoutes(e)
	return &harness{e: e, history: history}
}

func (h *harness) do(t *testing.T, method, target string, body interface{}) (int, xhttp.RawAPIResponse) {
	t.Helper()
	var rdr *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = strings.NewReader(string(b))
	} else {
		rdr = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)

	var env xhttp.RawAPIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(t, rec.Code, env.Status)
	return rec.Code, env
}

func (h *harness) ingest(t *testing.T, owner, subject string, totals ...float64) {
	t.Helper()
	for i, v := range totals {
		code, _ := h.do(t, http.MethodPost, "/api/yields", models.YieldRequest{
			OwnerID:   owner,
			SubjectID: subject,
			Date:      fmt.Sprintf("2024-03-%02d", i+1),
			Morning:   v,
		})
		require.Equal(t, http.StatusCreated, code)
	}
}

func firstError(t *testing.T, env xhttp.RawAPIResponse) xhttp.AppError {
	t.Helper()
	var errs []xhttp.AppError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.NotEmpty(t, errs)
	return errs[0]
}

func TestTrend_RisingAfterIngest(t *testing.T) {
	h := newHarness(t)
	h.ingest(t, "farm-1", "cow-1", 10, 11, 12, 13, 14)

	code, env := h.do(t, http.MethodGet, "/api/analytics/trend?owner_id=farm-1&subject_id=cow-1", nil)
	require.Equal(t, http.StatusOK, code)

	var res models.TrendResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.TrendRising, res.Classification)
	assert.InDelta(t, 1.0, res.Slope, 1e-9)
}

func TestTrend_UnknownSubjectIs404(t *testing.T) {
	h := newHarness(t)
	h.ingest(t, "farm-1", "cow-1", 10, 11)

	code, env := h.do(t, http.MethodGet, "/api/analytics/trend?owner_id=farm-2&subject_id=cow-1", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "ERR_NOT_FOUND", firstError(t, env).Code)
}

func TestForecast_InsufficientDataIs400(t *testing.T) {
	h := newHarness(t)
	h.ingest(t, "farm-1", "cow-1", 10, 11)

	code, env := h.do(t, http.MethodGet, "/api/analytics/forecast?owner_id=farm-1&subject_id=cow-1&days_ahead=3", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ERR_INSUFFICIENT_DATA", firstError(t, env).Code)
}

func TestForecast_ReturnsRequestedHorizon(t *testing.T) {
	h := newHarness(t)
	h.ingest(t, "farm-1", "cow-1", 10, 11, 12, 13, 14, 15)

	code, env := h.do(t, http.MethodGet, "/api/analytics/forecast?owner_id=farm-1&subject_id=cow-1&days_ahead=3", nil)
	require.Equal(t, http.StatusOK, code)

	var set models.ForecastSet
	require.NoError(t, json.Unmarshal(env.Data, &set))
	require.Len(t, set.Points, 3)
	assert.Equal(t, 16.0, set.Points[0].PredictedYield)
	assert.Equal(t, "2024-03-07", set.Points[0].Date.Format(models.DateLayout))
}

func TestForecast_ClampsLongHorizon(t *testing.T) {
	h := newHarness(t)
	h.ingest(t, "farm-1", "cow-1", 10, 11, 12, 13, 14, 15)

	code, env := h.do(t, http.MethodGet, "/api/analytics/forecast?owner_id=farm-1&subject_id=cow-1&days_ahead=400", nil)
	require.Equal(t, http.StatusOK, code)

	var set models.ForecastSet
	require.NoError(t, json.Unmarshal(env.Data, &set))
	assert.Len(t, set.Points, analytics.MaxHorizonDays)
}

func TestPerformance_NoSubjectsIs400(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(t, http.MethodGet, "/api/analytics/performance?owner_id=nobody", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ERR_NO_DATA", firstError(t, env).Code)
}

func TestValidation_MissingOwner(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(t, http.MethodGet, "/api/analytics/anomalies", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	e := firstError(t, env)
	assert.Equal(t, "ERR_REQUIRED", e.Code)
	assert.Equal(t, "owner_id", e.Field)
}

func TestRecord_RejectsBadDate(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(t, http.MethodPost, "/api/yields", models.YieldRequest{
		OwnerID: "farm-1", SubjectID: "cow-1", Date: "03/01/2024", Morning: 3,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ERR_DATETIME", firstError(t, env).Code)
}

func TestPerformance_MemoisedUntilDataChanges(t *testing.T) {
	h := newHarness(t)
	h.ingest(t, "farm-1", "cow-1", 12, 12, 12)

	code, first := h.do(t, http.MethodGet, "/api/analytics/performance?owner_id=farm-1", nil)
	require.Equal(t, http.StatusOK, code)
	code, second := h.do(t, http.MethodGet, "/api/analytics/performance?owner_id=farm-1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, string(first.Data), string(second.Data))
	assert.Equal(t, int32(1), atomic.LoadInt32(&h.history.fetches))

	code, _ = h.do(t, http.MethodPost, "/api/subjects", models.SubjectRequest{OwnerID: "farm-1", SubjectID: "cow-1", Label: "Mimosa"})
	require.Equal(t, http.StatusOK, code)

	code, third := h.do(t, http.MethodGet, "/api/analytics/performance?owner_id=farm-1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&h.history.fetches))

	var report models.PerformanceReport
	require.NoError(t, json.Unmarshal(third.Data, &report))
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "Mimosa", report.Entries[0].Label)
	assert.Equal(t, models.TierRegular, report.Entries[0].Tier)
}

func TestInsights_PartialSections(t *testing.T) {
	h := newHarness(t)
	h.ingest(t, "farm-1", "cow-1", 8, 8, 8)

	code, env := h.do(t, http.MethodGet, "/api/analytics/insights?owner_id=farm-1", nil)
	require.Equal(t, http.StatusOK, code)

	var in models.Insights
	require.NoError(t, json.Unmarshal(env.Data, &in))
	require.NotNil(t, in.Performance)
	require.NotNil(t, in.Recommendations)
	assert.Nil(t, in.Revenue)
	assert.Nil(t, in.Anomalies)
	assert.Equal(t, "InsufficientData", in.Errors["revenue"].Kind)
	assert.Equal(t, 2, in.Recommendations.Total)
}

type downBroker struct{}

func (downBroker) Publish(context.Context, *models.YieldRecord) error {
	return errors.New("broker down")
}
func (downBroker) PublishBatch(context.Context, []*models.YieldRecord) error {
	return errors.New("broker down")
}
func (downBroker) Close() error { return nil }

func TestRecord_KafkaBacklog(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	buf := middleware.NewPublishBuffer(downBroker{}, m, middleware.WithBufferSize(1))
	proc := usecase.NewYieldProcessor(buf, nil, m, usecase.BackendKafka)
	h := &harness{e: echo.New()}
	NewYieldsEchoHandler(nil, proc).RegisterRoutes(h.e)

	req := models.YieldRequest{OwnerID: "farm-1", SubjectID: "cow-1", Date: "2024-03-01", Morning: 9}
	code, _ := h.do(t, http.MethodPost, "/api/yields", req)
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, 1, buf.Pending())

	code, env := h.do(t, http.MethodPost, "/api/yields", req)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, xhttp.CodeUnavailable, firstError(t, env).Code)
}

func TestTrend_CacheKeepsOwnersApart(t *testing.T) {
	h := newHarness(t)
	h.ingest(t, "farm", "x:cow", 10, 11, 12, 13, 14)
	h.ingest(t, "farm:x", "cow", 14, 13, 12, 11, 10)

	code, env := h.do(t, http.MethodGet, "/api/analytics/trend?owner_id=farm&subject_id=x:cow", nil)
	require.Equal(t, http.StatusOK, code)
	var first models.TrendResult
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.Equal(t, models.TrendRising, first.Classification)

	code, env = h.do(t, http.MethodGet, "/api/analytics/trend?owner_id=farm:x&subject_id=cow", nil)
	require.Equal(t, http.StatusOK, code)
	var second models.TrendResult
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.Equal(t, models.TrendFalling, second.Classification)
	assert.Equal(t, "cow", second.SubjectID)
}

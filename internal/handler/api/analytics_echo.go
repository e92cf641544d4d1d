package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	models "HerdPulse/internal/domain/models"
	"HerdPulse/internal/service/cache"
	"HerdPulse/internal/service/metrics"
	"HerdPulse/internal/services/analytics"
	"HerdPulse/internal/usecase"
	xhttp "HerdPulse/pkg/http"
	xlogger "HerdPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalyticsEchoHandler serves the read side under /api/analytics.
type AnalyticsEchoHandler struct {
	logger    *xlogger.Logger
	analytics *usecase.HerdAnalytics
	insights  *usecase.InsightsUseCase
	memo      *cache.Memo
	mw        []echo.MiddlewareFunc
}

// NewAnalyticsEchoHandler memoises responses through memo; a nil memo disables caching.
func NewAnalyticsEchoHandler(
	logger *xlogger.Logger,
	analytics *usecase.HerdAnalytics,
	insights *usecase.InsightsUseCase,
	memo *cache.Memo,
	mw ...echo.MiddlewareFunc,
) *AnalyticsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if memo == nil {
		memo = cache.NewMemo(nil, 0)
	}
	metrics.Register()
	return &AnalyticsEchoHandler{logger: logger, analytics: analytics, insights: insights, memo: memo, mw: mw}
}

func (h *AnalyticsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/analytics", h.mw...)
	g.GET("/trend", h.Trend)
	g.GET("/forecast", h.Forecast)
	g.GET("/anomalies", h.Anomalies)
	g.GET("/performance", h.Performance)
	g.GET("/recommendations", h.Recommendations)
	g.GET("/revenue", h.Revenue)
	g.GET("/insights", h.Insights)
}

func (h *AnalyticsEchoHandler) Trend(c echo.Context) error {
	req := &models.TrendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.serve(c, "trend", req.OwnerID, []string{req.SubjectID}, func(ctx context.Context) (interface{}, error) {
		return h.analytics.Trend(ctx, req.OwnerID, req.SubjectID)
	})
}

func (h *AnalyticsEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	scope := []string{req.SubjectID, h.analytics.ForecastMethod(), strconv.Itoa(req.DaysAhead)}
	return h.serve(c, "forecast", req.OwnerID, scope, func(ctx context.Context) (interface{}, error) {
		return h.analytics.Forecast(ctx, req.OwnerID, req.SubjectID, req.DaysAhead)
	})
}

func (h *AnalyticsEchoHandler) Anomalies(c echo.Context) error {
	req := &models.OwnerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.serve(c, "anomalies", req.OwnerID, nil, func(ctx context.Context) (interface{}, error) {
		return h.analytics.Anomalies(ctx, req.OwnerID)
	})
}

func (h *AnalyticsEchoHandler) Performance(c echo.Context) error {
	req := &models.OwnerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.serve(c, "performance", req.OwnerID, nil, func(ctx context.Context) (interface{}, error) {
		return h.analytics.Performance(ctx, req.OwnerID)
	})
}

func (h *AnalyticsEchoHandler) Recommendations(c echo.Context) error {
	req := &models.OwnerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.serve(c, "recommendations", req.OwnerID, nil, func(ctx context.Context) (interface{}, error) {
		return h.analytics.Recommendations(ctx, req.OwnerID)
	})
}

func (h *AnalyticsEchoHandler) Revenue(c echo.Context) error {
	req := &models.RevenueRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	scope := []string{strconv.FormatFloat(req.UnitPrice, 'f', -1, 64)}
	return h.serve(c, "revenue", req.OwnerID, scope, func(ctx context.Context) (interface{}, error) {
		return h.analytics.Revenue(ctx, req.OwnerID, req.UnitPrice)
	})
}

// Insights is never memoised: each section reports its own outcome and the
// view carries its generation time.
func (h *AnalyticsEchoHandler) Insights(c echo.Context) error {
	start := time.Now()
	defer metrics.Observe("insights", start)

	req := &models.RevenueRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.insights.GetInsights(c.Request().Context(), req.OwnerID, req.UnitPrice)
	if err != nil {
		return h.errorResponse(c, "insights", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalyticsEchoHandler) serve(c echo.Context, op, ownerID string, scope []string, compute func(ctx context.Context) (interface{}, error)) error {
	start := time.Now()
	defer metrics.Observe(op, start)
	ctx := c.Request().Context()

	version, err := h.analytics.DataVersion(ctx, ownerID)
	if err != nil {
		return h.errorResponse(c, op, err)
	}
	key := cache.Key(op, version, append([]string{ownerID}, scope...)...)

	b, hit, err := h.memo.Get(ctx, key, compute)
	if err != nil {
		return h.errorResponse(c, op, err)
	}
	metrics.CacheLookup(op, hit)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, json.RawMessage(b))
}

func (h *AnalyticsEchoHandler) errorResponse(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	metrics.Failed(op, appErr.Code)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("analytics request failed", xlogger.String("op", op), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps engine outcomes to 400, unknown subjects to 404 and the rest to 500.
func toAppError(err error) *xhttp.AppError {
	var aerr *analytics.Error
	if errors.As(err, &aerr) {
		code := xhttp.CodeInternal
		switch aerr.Kind {
		case analytics.KindInsufficientData:
			code = "ERR_INSUFFICIENT_DATA"
		case analytics.KindNoData:
			code = "ERR_NO_DATA"
		case analytics.KindDegenerateInput:
			code = "ERR_DEGENERATE_INPUT"
		}
		return xhttp.NewAppError(code, "", aerr.Error(), http.StatusBadRequest).WithParam("op", aerr.Op)
	}
	if errors.Is(err, usecase.ErrSubjectNotFound) {
		return xhttp.NotFoundError(err.Error())
	}
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return xhttp.InternalError("analytics unavailable").WithError(err)
}

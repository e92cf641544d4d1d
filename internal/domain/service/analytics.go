package service

import (
	"HerdPulse/internal/domain/models"
)

// TrendEstimator fits a line through a subject's daily totals.
type TrendEstimator interface {
	Estimate(subjectID string, records []models.YieldRecord) (models.TrendResult, error)
}

// ForecastStrategy extrapolates a subject's production for the next days.
type ForecastStrategy interface {
	Name() string
	// MinRecords is the smallest history the strategy accepts.
	MinRecords() int
	// Window is how many of the most recent records the strategy reads.
	Window() int
	Forecast(subjectID string, records []models.YieldRecord, daysAhead int) (models.ForecastSet, error)
}

// AnomalyDetector flags outlying records in an owner's recent history.
type AnomalyDetector interface {
	Detect(records []models.YieldRecord) (models.AnomalyReport, error)
}

// SubjectHistory pairs a subject with its records.
type SubjectHistory struct {
	Subject models.Subject
	Records []models.YieldRecord
}

// PerformanceClassifier ranks an owner's subjects by mean yield.
type PerformanceClassifier interface {
	Classify(herd []SubjectHistory) (models.PerformanceReport, error)
}

// RecommendationEngine derives actions from a performance report.
type RecommendationEngine interface {
	Recommend(report models.PerformanceReport) models.RecommendationReport
}

// FinancialForecaster projects revenue from recent production.
type FinancialForecaster interface {
	Project(records []models.YieldRecord, unitPrice float64) (models.RevenueProjection, error)
}

package analytics

import (
	"errors"

	"HerdPulse/internal/domain/models"
	"HerdPulse/internal/domain/service"
)

// Slopes strictly beyond these bounds (yield units per day) count as a trend.
const (
	RisingThreshold  = 0.1
	FallingThreshold = -0.1

	minTrendRecords = 2
)

// LinearTrend estimates a trend with an ordinary least squares fit.
type LinearTrend struct{}

var _ service.TrendEstimator = (*LinearTrend)(nil)

func NewLinearTrend() *LinearTrend { return &LinearTrend{} }

// Estimate fits total yield against whole days since the earliest record.
func (LinearTrend) Estimate(subjectID string, records []models.YieldRecord) (models.TrendResult, error) {
	if len(records) < minTrendRecords {
		return models.TrendResult{}, insufficient("trend", len(records), minTrendRecords)
	}
	xs, ys := series(sortedAsc(records))
	l, ok := fitLine(xs, ys)
	if !ok {
		return models.TrendResult{}, degenerate("trend")
	}
	return models.TrendResult{
		SubjectID:      subjectID,
		Slope:          l.slope,
		Classification: ClassifySlope(l.slope),
	}, nil
}

// ClassifySlope maps a slope to a trend class; ±0.1 itself is stable.
func ClassifySlope(slope float64) models.TrendClass {
	switch {
	case slope > RisingThreshold:
		return models.TrendRising
	case slope < FallingThreshold:
		return models.TrendFalling
	default:
		return models.TrendStable
	}
}

// EstimateOrStable treats a degenerate fit as a flat line.
func EstimateOrStable(est service.TrendEstimator, subjectID string, records []models.YieldRecord) (models.TrendResult, error) {
	res, err := est.Estimate(subjectID, records)
	if errors.Is(err, ErrDegenerateInput) {
		return models.TrendResult{SubjectID: subjectID, Classification: models.TrendStable}, nil
	}
	return res, err
}

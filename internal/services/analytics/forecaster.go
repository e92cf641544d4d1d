package analytics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"HerdPulse/internal/domain/models"
	"HerdPulse/internal/domain/service"

	"github.com/montanaflynn/stats"
)

// MaxHorizonDays caps how far ahead any strategy predicts.
const MaxHorizonDays = 30

// Strategy names accepted by NewForecastStrategy.
const (
	StrategyLinear        = "linear"
	StrategyMovingAverage = "moving_average"
)

const (
	linearWindow        = 30
	linearMinRecords    = 5
	linearMaxConfidence = 0.95

	movingWindow        = 7
	movingMinRecords    = 3
	movingMaxConfidence = 0.8
	weekdayVariation    = 0.1
)

// NewForecastStrategy returns the strategy registered under name; empty means linear.
func NewForecastStrategy(name string) (service.ForecastStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyLinear:
		return NewLinearForecaster(), nil
	case StrategyMovingAverage:
		return NewMovingAverageForecaster(), nil
	default:
		return nil, fmt.Errorf("unknown forecast strategy %q", name)
	}
}

func clampHorizon(days int) int {
	if days < 1 {
		return 1
	}
	if days > MaxHorizonDays {
		return MaxHorizonDays
	}
	return days
}

// LinearForecaster extrapolates the least squares line of the last 30 records.
type LinearForecaster struct{}

var _ service.ForecastStrategy = (*LinearForecaster)(nil)

func NewLinearForecaster() *LinearForecaster { return &LinearForecaster{} }

func (LinearForecaster) Name() string    { return StrategyLinear }
func (LinearForecaster) MinRecords() int { return linearMinRecords }
func (LinearForecaster) Window() int     { return linearWindow }

func (LinearForecaster) Forecast(subjectID string, records []models.YieldRecord, daysAhead int) (models.ForecastSet, error) {
	if len(records) < linearMinRecords {
		return models.ForecastSet{}, insufficient("forecast", len(records), linearMinRecords)
	}
	asc := sortedAsc(records)
	if len(asc) > linearWindow {
		asc = asc[len(asc)-linearWindow:]
	}
	xs, ys := series(asc)
	l, ok := fitLine(xs, ys)
	if !ok {
		return models.ForecastSet{}, degenerate("forecast")
	}

	base := models.Day(asc[0].Date)
	last := xs[len(xs)-1]
	horizon := clampHorizon(daysAhead)
	points := make([]models.ForecastPoint, 0, horizon)
	for off := 1; off <= horizon; off++ {
		x := last + float64(off)
		points = append(points, models.ForecastPoint{
			Date:           base.AddDate(0, 0, int(x)),
			PredictedYield: round2(math.Max(0, l.at(x))),
		})
	}

	return models.ForecastSet{
		SubjectID:  subjectID,
		Method:     StrategyLinear,
		Points:     points,
		Confidence: math.Min(linearMaxConfidence, float64(len(asc))/linearWindow),
		Slope:      l.slope,
		Intercept:  l.intercept,
	}, nil
}

// MovingAverageForecaster repeats the mean of the last 7 records with a small
// weekday-dependent variation. Dates count from the latest record.
type MovingAverageForecaster struct{}

var _ service.ForecastStrategy = (*MovingAverageForecaster)(nil)

func NewMovingAverageForecaster() *MovingAverageForecaster { return &MovingAverageForecaster{} }

func (MovingAverageForecaster) Name() string    { return StrategyMovingAverage }
func (MovingAverageForecaster) MinRecords() int { return movingMinRecords }
func (MovingAverageForecaster) Window() int     { return movingWindow }

func (MovingAverageForecaster) Forecast(subjectID string, records []models.YieldRecord, daysAhead int) (models.ForecastSet, error) {
	desc := sortedDesc(records)
	if len(desc) > movingWindow {
		desc = desc[:movingWindow]
	}
	if len(desc) < movingMinRecords {
		return models.ForecastSet{}, insufficient("forecast", len(desc), movingMinRecords)
	}
	mean, err := stats.Mean(totals(desc))
	if err != nil {
		return models.ForecastSet{}, fmt.Errorf("forecast mean: %w", err)
	}

	anchor := models.Day(desc[0].Date)
	horizon := clampHorizon(daysAhead)
	points := make([]models.ForecastPoint, 0, horizon)
	for off := 1; off <= horizon; off++ {
		date := anchor.AddDate(0, 0, off)
		points = append(points, models.ForecastPoint{
			Date:           date,
			PredictedYield: round2(math.Max(0, mean*weekdayFactor(date))),
		})
	}

	return models.ForecastSet{
		SubjectID:  subjectID,
		Method:     StrategyMovingAverage,
		Points:     points,
		Confidence: math.Min(movingMaxConfidence, float64(len(desc))/movingWindow),
	}, nil
}

// weekdayFactor is 0.9, 1.0 or 1.1 depending on the weekday, counting Monday as 0.
func weekdayFactor(d time.Time) float64 {
	wd := (int(d.Weekday()) + 6) % 7
	return 1 + float64(wd%3-1)*weekdayVariation
}

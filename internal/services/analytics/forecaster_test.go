package analytics

import (
	"testing"

	"HerdPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewForecastStrategy(t *testing.T) {
	s, err := NewForecastStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyLinear, s.Name())

	s, err = NewForecastStrategy("Moving_Average")
	require.NoError(t, err)
	assert.Equal(t, StrategyMovingAverage, s.Name())

	_, err = NewForecastStrategy("arima")
	assert.Error(t, err)
}

func TestLinearForecaster_ExtrapolatesLine(t *testing.T) {
	records := shuffled(linearRecords("c1", 15, 10, 0.5))

	set, err := NewLinearForecaster().Forecast("c1", records, 7)
	require.NoError(t, err)
	require.Len(t, set.Points, 7)

	assert.Equal(t, StrategyLinear, set.Method)
	assert.InDelta(t, 0.5, set.Slope, 1e-9)
	assert.InDelta(t, 10, set.Intercept, 1e-9)
	assert.Equal(t, 0.5, set.Confidence)

	for i, p := range set.Points {
		assert.Equal(t, day0.AddDate(0, 0, 15+i), p.Date)
		assert.InDelta(t, 10+0.5*float64(15+i), p.PredictedYield, 0.01)
	}
}

func TestLinearForecaster_UsesMostRecentWindow(t *testing.T) {
	records := linearRecords("c1", 40, 10, 0.5)

	set, err := NewLinearForecaster().Forecast("c1", records, 1)
	require.NoError(t, err)
	require.Len(t, set.Points, 1)
	assert.Equal(t, 0.95, set.Confidence)
	assert.Equal(t, day0.AddDate(0, 0, 40), set.Points[0].Date)
	assert.InDelta(t, 30, set.Points[0].PredictedYield, 0.01)
	// intercept is relative to the first record in the window (day 10)
	assert.InDelta(t, 15, set.Intercept, 1e-9)
}

func TestLinearForecaster_ClampsHorizonAndFloorsAtZero(t *testing.T) {
	records := linearRecords("c1", 5, 10, -2)

	set, err := NewLinearForecaster().Forecast("c1", records, 45)
	require.NoError(t, err)
	require.Len(t, set.Points, MaxHorizonDays)
	for _, p := range set.Points {
		assert.GreaterOrEqual(t, p.PredictedYield, 0.0)
	}
	assert.Zero(t, set.Points[1].PredictedYield)
}

func TestLinearForecaster_Errors(t *testing.T) {
	_, err := NewLinearForecaster().Forecast("c1", linearRecords("c1", 4, 10, 1), 7)
	assert.ErrorIs(t, err, ErrInsufficientData)

	sameDay := []models.YieldRecord{rec("c1", 0, 1), rec("c1", 0, 2), rec("c1", 0, 3), rec("c1", 0, 4), rec("c1", 0, 5)}
	_, err = NewLinearForecaster().Forecast("c1", sameDay, 7)
	assert.ErrorIs(t, err, ErrDegenerateInput)
}

func TestMovingAverageForecaster(t *testing.T) {
	// day 6 is Sunday 2024-01-07
	records := constRecords("c1", 7, 20)

	set, err := NewMovingAverageForecaster().Forecast("c1", shuffled(records), 3)
	require.NoError(t, err)
	require.Len(t, set.Points, 3)

	assert.Equal(t, StrategyMovingAverage, set.Method)
	assert.Equal(t, 0.8, set.Confidence)
	assert.Equal(t, day0.AddDate(0, 0, 7), set.Points[0].Date)
	assert.Equal(t, 18.0, set.Points[0].PredictedYield)
	assert.Equal(t, 20.0, set.Points[1].PredictedYield)
	assert.Equal(t, 22.0, set.Points[2].PredictedYield)
}

func TestMovingAverageForecaster_MinimumHistory(t *testing.T) {
	set, err := NewMovingAverageForecaster().Forecast("c1", constRecords("c1", 3, 10), 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0/7, set.Confidence)

	_, err = NewMovingAverageForecaster().Forecast("c1", constRecords("c1", 2, 10), 1)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestLinearForecaster_ConfidenceIsUnrounded(t *testing.T) {
	set, err := NewLinearForecaster().Forecast("c1", linearRecords("c1", 7, 10, 0.5), 3)
	require.NoError(t, err)
	assert.Equal(t, 7.0/30, set.Confidence)
}

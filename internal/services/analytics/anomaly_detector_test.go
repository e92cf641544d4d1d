package analytics

import (
	"testing"

	"HerdPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZScoreDetector_FlagsOutlier(t *testing.T) {
	records := constRecords("c1", 9, 10)
	records = append(records, rec("c2", 9, 100))

	report, err := NewZScoreDetector().Detect(shuffled(records))
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalAnomalies)
	assert.Equal(t, 19.0, report.Mean)
	assert.Equal(t, 28.46, report.StdDev)
	require.Len(t, report.Anomalies, 1)

	a := report.Anomalies[0]
	assert.Equal(t, "c2", a.SubjectID)
	assert.Equal(t, 100.0, a.ObservedYield)
	assert.Equal(t, models.DirectionAbove, a.Direction)
	assert.InDelta(t, 2.85, a.DeviationScore, 0.001)
}

func TestZScoreDetector_ConstantSeries(t *testing.T) {
	report, err := NewZScoreDetector().Detect(constRecords("c1", 12, 15))
	require.NoError(t, err)
	assert.Zero(t, report.TotalAnomalies)
	assert.Empty(t, report.Anomalies)
	assert.Zero(t, report.StdDev)
}

func TestZScoreDetector_InsufficientData(t *testing.T) {
	_, err := NewZScoreDetector().Detect(constRecords("c1", 9, 15))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestZScoreDetector_TruncatesByRecency(t *testing.T) {
	records := make([]models.YieldRecord, 0, 100)
	for d := 0; d < 100; d++ {
		v := 0.0
		if d >= 88 {
			v = 100
		}
		records = append(records, rec("c1", d, v))
	}

	report, err := NewZScoreDetector().Detect(shuffled(records))
	require.NoError(t, err)
	assert.Equal(t, 12, report.TotalAnomalies)
	require.Len(t, report.Anomalies, 10)
	for i, a := range report.Anomalies {
		assert.Equal(t, day0.AddDate(0, 0, 99-i), a.Date)
	}
}

func TestZScoreDetector_ReadsOnlyRecentWindow(t *testing.T) {
	records := []models.YieldRecord{rec("c1", 0, 1000)}
	for d := 1; d <= AnomalyWindow; d++ {
		records = append(records, rec("c1", d, 10))
	}

	report, err := NewZScoreDetector().Detect(records)
	require.NoError(t, err)
	assert.Zero(t, report.TotalAnomalies)
	assert.Equal(t, 10.0, report.Mean)
}

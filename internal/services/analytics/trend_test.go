package analytics

import (
	"errors"
	"testing"

	"HerdPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearTrend_RecoversSlope(t *testing.T) {
	records := shuffled(linearRecords("c1", 10, 10, 0.5))

	res, err := NewLinearTrend().Estimate("c1", records)
	require.NoError(t, err)
	assert.Equal(t, "c1", res.SubjectID)
	assert.InDelta(t, 0.5, res.Slope, 1e-9)
	assert.Equal(t, models.TrendRising, res.Classification)
}

func TestLinearTrend_Classification(t *testing.T) {
	cases := []struct {
		name  string
		slope float64
		want  models.TrendClass
	}{
		{"rising", 0.15, models.TrendRising},
		{"falling", -0.2, models.TrendFalling},
		{"stable", 0.05, models.TrendStable},
		{"flat", 0, models.TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := NewLinearTrend().Estimate("c1", linearRecords("c1", 5, 20, tc.slope))
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Classification)
		})
	}
}

func TestClassifySlope_BoundsAreStable(t *testing.T) {
	assert.Equal(t, models.TrendStable, ClassifySlope(0.1))
	assert.Equal(t, models.TrendStable, ClassifySlope(-0.1))
	assert.Equal(t, models.TrendRising, ClassifySlope(0.1001))
	assert.Equal(t, models.TrendFalling, ClassifySlope(-0.1001))
}

func TestLinearTrend_InsufficientData(t *testing.T) {
	res, err := NewLinearTrend().Estimate("c1", []models.YieldRecord{rec("c1", 0, 12)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.Equal(t, models.TrendResult{}, res)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindInsufficientData, kind)
}

func TestLinearTrend_DegenerateDates(t *testing.T) {
	records := []models.YieldRecord{rec("c1", 3, 10), rec("c1", 3, 14)}

	_, err := NewLinearTrend().Estimate("c1", records)
	assert.ErrorIs(t, err, ErrDegenerateInput)

	res, err := EstimateOrStable(NewLinearTrend(), "c1", records)
	require.NoError(t, err)
	assert.Equal(t, models.TrendStable, res.Classification)
	assert.Zero(t, res.Slope)
}

func TestLinearTrend_DoesNotMutateInput(t *testing.T) {
	records := shuffled(linearRecords("c1", 8, 10, 1))
	before := make([]models.YieldRecord, len(records))
	copy(before, records)

	first, err := NewLinearTrend().Estimate("c1", records)
	require.NoError(t, err)
	second, err := NewLinearTrend().Estimate("c1", records)
	require.NoError(t, err)

	assert.Equal(t, before, records)
	assert.Equal(t, first, second)
}

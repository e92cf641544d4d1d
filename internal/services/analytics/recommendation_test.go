package analytics

import (
	"testing"

	"HerdPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleEngine_AllLowHerd(t *testing.T) {
	report := models.PerformanceReport{
		TotalSubjects: 3,
		HerdMean:      5,
		Entries: []models.PerformanceEntry{
			{SubjectID: "c1", Label: "Estrela", MeanYield: 6, Tier: models.TierLow, Trend: models.TrendStable},
			{SubjectID: "c2", Label: "Mimosa", MeanYield: 5, Tier: models.TierLow, Trend: models.TrendStable},
			{SubjectID: "c3", MeanYield: 4, Tier: models.TierLow, Trend: models.TrendRising},
		},
	}

	out := NewRuleEngine().Recommend(report)
	require.Equal(t, 4, out.Total)
	require.Len(t, out.Items, 4)

	for i, label := range []string{"Estrela", "Mimosa", "c3"} {
		assert.Equal(t, models.CategoryAlert, out.Items[i].Category)
		assert.Equal(t, models.PriorityHigh, out.Items[i].Priority)
		assert.Equal(t, label, out.Items[i].SubjectLabel)
	}
	last := out.Items[3]
	assert.Equal(t, models.CategoryHerd, last.Category)
	assert.Equal(t, models.PriorityHigh, last.Priority)
	assert.Empty(t, last.SubjectLabel)
}

func TestRuleEngine_RulesDoNotShortCircuit(t *testing.T) {
	report := models.PerformanceReport{
		HerdMean: 18,
		Entries: []models.PerformanceEntry{
			{SubjectID: "c1", Label: "Estrela", MeanYield: 25, Tier: models.TierExcellent, Trend: models.TrendStable},
			{SubjectID: "c2", Label: "Mimosa", MeanYield: 8, Tier: models.TierLow, Trend: models.TrendFalling},
		},
	}

	out := NewRuleEngine().Recommend(report)
	require.Len(t, out.Items, 2)
	assert.Equal(t, models.CategoryAlert, out.Items[0].Category)
	assert.Equal(t, models.CategoryAttention, out.Items[1].Category)
	assert.Equal(t, models.PriorityMedium, out.Items[1].Priority)
	assert.Equal(t, "Mimosa", out.Items[1].SubjectLabel)
}

func TestRuleEngine_EmptyReportStillChecksHerdMean(t *testing.T) {
	out := NewRuleEngine().Recommend(models.PerformanceReport{})
	require.Len(t, out.Items, 1)
	assert.Equal(t, models.CategoryHerd, out.Items[0].Category)
}

func TestRuleEngine_HealthyHerd(t *testing.T) {
	out := NewRuleEngine().Recommend(models.PerformanceReport{
		HerdMean: 22,
		Entries:  []models.PerformanceEntry{{SubjectID: "c1", MeanYield: 22, Tier: models.TierExcellent, Trend: models.TrendRising}},
	})
	assert.Zero(t, out.Total)
	assert.NotNil(t, out.Items)
}

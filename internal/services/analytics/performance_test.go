package analytics

import (
	"testing"

	"HerdPulse/internal/domain/models"
	"HerdPulse/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func history(id, label string, records []models.YieldRecord) service.SubjectHistory {
	return service.SubjectHistory{
		Subject: models.Subject{ID: id, OwnerID: "owner-1", Label: label},
		Records: records,
	}
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, models.TierExcellent, TierFor(22))
	assert.Equal(t, models.TierGood, TierFor(20))
	assert.Equal(t, models.TierRegular, TierFor(15))
	assert.Equal(t, models.TierLow, TierFor(10))
}

func TestHerdClassifier_RanksAndSkips(t *testing.T) {
	herd := []service.SubjectHistory{
		history("c3", "Mimosa", constRecords("c3", 4, 12)),
		history("c1", "Estrela", constRecords("c1", 3, 22)),
		history("c2", "Malhada", constRecords("c2", 2, 30)),
	}

	report, err := NewHerdClassifier(nil).Classify(herd)
	require.NoError(t, err)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, 2, report.TotalSubjects)
	assert.Equal(t, 17.0, report.HerdMean)

	top := report.Entries[0]
	assert.Equal(t, "c1", top.SubjectID)
	assert.Equal(t, "Estrela", top.Label)
	assert.Equal(t, 22.0, top.MeanYield)
	assert.Equal(t, 66.0, top.TotalYield)
	assert.Equal(t, models.TierExcellent, top.Tier)
	assert.Equal(t, models.TrendStable, top.Trend)
	assert.Equal(t, 3, top.SampleSize)

	assert.Equal(t, "c3", report.Entries[1].SubjectID)
	assert.Equal(t, models.TierRegular, report.Entries[1].Tier)
}

func TestHerdClassifier_TrendAndDegenerateHistory(t *testing.T) {
	sameDay := []models.YieldRecord{rec("c2", 0, 8), rec("c2", 0, 9), rec("c2", 0, 10)}
	herd := []service.SubjectHistory{
		history("c1", "", linearRecords("c1", 5, 20, -1)),
		history("c2", "", sameDay),
	}

	report, err := NewHerdClassifier(NewLinearTrend()).Classify(herd)
	require.NoError(t, err)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, models.TrendFalling, report.Entries[0].Trend)
	assert.Equal(t, models.TrendStable, report.Entries[1].Trend)
}

func TestHerdClassifier_NoSubjects(t *testing.T) {
	_, err := NewHerdClassifier(nil).Classify(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestHerdClassifier_AllSkipped(t *testing.T) {
	report, err := NewHerdClassifier(nil).Classify([]service.SubjectHistory{
		history("c1", "", constRecords("c1", 2, 20)),
	})
	require.NoError(t, err)
	assert.Empty(t, report.Entries)
	assert.Zero(t, report.HerdMean)
}

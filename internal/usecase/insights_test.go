package usecase

import (
	"context"
	"testing"
	"time"

	"HerdPulse/internal/services/analytics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestInsights_AllSections(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := &fakeHistory{}
	h.addSubject("o1", "c1", "Estrela", 10, 22)
	h.addSubject("o1", "c2", "Mimosa", 10, 8)

	uc := NewInsightsUseCase(newAnalytics(h), time.Second)
	uc.now = func() time.Time { return day0 }

	res, err := uc.GetInsights(context.Background(), "o1", 0)
	require.NoError(t, err)
	assert.Nil(t, res.Errors)
	assert.Equal(t, day0, res.GeneratedAt)
	require.NotNil(t, res.Performance)
	require.NotNil(t, res.Recommendations)
	require.NotNil(t, res.Revenue)
	require.NotNil(t, res.Anomalies)
	assert.Equal(t, 2, res.Performance.TotalSubjects)
	assert.Equal(t, analytics.DefaultUnitPrice, res.Revenue.UnitPrice)
}

func TestInsights_OmitsFailedSections(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := &fakeHistory{}
	h.addSubject("o1", "c1", "Estrela", 4, 22)
	h.addSubject("o1", "c2", "Mimosa", 4, 8)

	res, err := NewInsightsUseCase(newAnalytics(h), time.Second).GetInsights(context.Background(), "o1", 3)
	require.NoError(t, err)

	require.NotNil(t, res.Performance)
	require.NotNil(t, res.Revenue)
	assert.Nil(t, res.Anomalies)
	require.Contains(t, res.Errors, SectionAnomalies)
	assert.Equal(t, string(analytics.KindInsufficientData), res.Errors[SectionAnomalies].Kind)
}

func TestInsights_NoSubjects(t *testing.T) {
	defer goleak.VerifyNone(t)

	res, err := NewInsightsUseCase(newAnalytics(&fakeHistory{}), time.Second).GetInsights(context.Background(), "o1", 0)
	require.NoError(t, err)
	assert.Nil(t, res.Performance)
	assert.Nil(t, res.Recommendations)
	assert.Equal(t, string(analytics.KindNoData), res.Errors[SectionPerformance].Kind)
	assert.Equal(t, string(analytics.KindNoData), res.Errors[SectionRecommendations].Kind)
	assert.Len(t, res.Errors, 4)
}

func TestInsights_RequiresOwner(t *testing.T) {
	_, err := NewInsightsUseCase(newAnalytics(&fakeHistory{}), 0).GetInsights(context.Background(), "", 0)
	assert.Error(t, err)
}

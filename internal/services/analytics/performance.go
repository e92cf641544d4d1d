package analytics

import (
	"fmt"
	"sort"

	"HerdPulse/internal/domain/models"
	"HerdPulse/internal/domain/service"

	"github.com/montanaflynn/stats"
)

// Tier lower bounds, exclusive.
const (
	ExcellentAbove = 20.0
	GoodAbove      = 15.0
	RegularAbove   = 10.0

	minPerformanceRecords = 3
)

// TierFor buckets a mean daily yield.
func TierFor(mean float64) models.Tier {
	switch {
	case mean > ExcellentAbove:
		return models.TierExcellent
	case mean > GoodAbove:
		return models.TierGood
	case mean > RegularAbove:
		return models.TierRegular
	default:
		return models.TierLow
	}
}

// HerdClassifier ranks subjects by mean yield.
type HerdClassifier struct {
	trend service.TrendEstimator
}

var _ service.PerformanceClassifier = (*HerdClassifier)(nil)

// NewHerdClassifier uses a LinearTrend when trend is nil.
func NewHerdClassifier(trend service.TrendEstimator) *HerdClassifier {
	if trend == nil {
		trend = NewLinearTrend()
	}
	return &HerdClassifier{trend: trend}
}

// Classify fails only when the herd is empty. Subjects with fewer than 3 records
// are left out of the report.
func (c *HerdClassifier) Classify(herd []service.SubjectHistory) (models.PerformanceReport, error) {
	if len(herd) == 0 {
		return models.PerformanceReport{}, &Error{Kind: KindNoData, Op: "performance", Message: "owner has no subjects"}
	}

	entries := make([]models.PerformanceEntry, 0, len(herd))
	for _, h := range herd {
		n := len(h.Records)
		if n < minPerformanceRecords {
			continue
		}
		total, err := stats.Sum(totals(h.Records))
		if err != nil {
			return models.PerformanceReport{}, fmt.Errorf("performance sum %s: %w", h.Subject.ID, err)
		}
		mean := total / float64(n)
		tr, err := EstimateOrStable(c.trend, h.Subject.ID, h.Records)
		if err != nil {
			return models.PerformanceReport{}, fmt.Errorf("performance trend %s: %w", h.Subject.ID, err)
		}
		entries = append(entries, models.PerformanceEntry{
			SubjectID:  h.Subject.ID,
			Label:      h.Subject.Label,
			MeanYield:  round2(mean),
			TotalYield: round2(total),
			Trend:      tr.Classification,
			Tier:       TierFor(mean),
			SampleSize: n,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].MeanYield > entries[j].MeanYield })

	report := models.PerformanceReport{TotalSubjects: len(entries), Entries: entries}
	if len(entries) > 0 {
		var sum float64
		for _, e := range entries {
			sum += e.MeanYield
		}
		report.HerdMean = round2(sum / float64(len(entries)))
	}
	return report, nil
}

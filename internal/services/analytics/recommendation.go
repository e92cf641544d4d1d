package analytics

import (
	"fmt"

	"HerdPulse/internal/domain/models"
	"HerdPulse/internal/domain/service"
)

// HerdMeanFloor is the herd mean below which a herd-wide recommendation is issued.
const HerdMeanFloor = 15.0

// RuleEngine applies fixed rules to a performance report.
type RuleEngine struct{}

var _ service.RecommendationEngine = (*RuleEngine)(nil)

func NewRuleEngine() *RuleEngine { return &RuleEngine{} }

// Recommend walks entries in report order, then appends the herd rule. Rules are
// independent, so one subject can yield both an alert and an attention item.
func (RuleEngine) Recommend(report models.PerformanceReport) models.RecommendationReport {
	items := make([]models.Recommendation, 0, len(report.Entries)+1)
	for _, e := range report.Entries {
		name := subjectName(e)
		if e.Tier == models.TierLow {
			items = append(items, models.Recommendation{
				Category:     models.CategoryAlert,
				SubjectLabel: name,
				Message:      fmt.Sprintf("%s has low production (%.2f per day); review nutrition and health", name, e.MeanYield),
				Priority:     models.PriorityHigh,
			})
		}
		if e.Trend == models.TrendFalling {
			items = append(items, models.Recommendation{
				Category:     models.CategoryAttention,
				SubjectLabel: name,
				Message:      fmt.Sprintf("%s shows a falling production trend; monitor closely", name),
				Priority:     models.PriorityMedium,
			})
		}
	}
	if report.HerdMean < HerdMeanFloor {
		items = append(items, models.Recommendation{
			Category: models.CategoryHerd,
			Message:  fmt.Sprintf("herd mean of %.2f per day is below %.0f; consider reviewing feeding and management", report.HerdMean, HerdMeanFloor),
			Priority: models.PriorityHigh,
		})
	}
	return models.RecommendationReport{Total: len(items), Items: items}
}

func subjectName(e models.PerformanceEntry) string {
	if e.Label != "" {
		return e.Label
	}
	return e.SubjectID
}

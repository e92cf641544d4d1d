package analytics

import (
	"fmt"
	"math"

	"HerdPulse/internal/domain/models"
	"HerdPulse/internal/domain/service"

	"github.com/montanaflynn/stats"
)

const (
	// AnomalyWindow is how many of the most recent records the detector reads.
	AnomalyWindow = 100
	// ZScoreThreshold is exclusive: a score of exactly 2 is not flagged.
	ZScoreThreshold = 2.0

	anomalyMinRecords    = 10
	maxReportedAnomalies = 10
)

// ZScoreDetector flags records more than two sample standard deviations from the mean.
type ZScoreDetector struct{}

var _ service.AnomalyDetector = (*ZScoreDetector)(nil)

func NewZScoreDetector() *ZScoreDetector { return &ZScoreDetector{} }

// Detect scans the most recent records first and reports at most 10 of the flagged
// ones, in that order. TotalAnomalies counts all of them.
func (ZScoreDetector) Detect(records []models.YieldRecord) (models.AnomalyReport, error) {
	if len(records) < anomalyMinRecords {
		return models.AnomalyReport{}, insufficient("anomalies", len(records), anomalyMinRecords)
	}
	desc := sortedDesc(records)
	if len(desc) > AnomalyWindow {
		desc = desc[:AnomalyWindow]
	}

	data := totals(desc)
	mean, err := stats.Mean(data)
	if err != nil {
		return models.AnomalyReport{}, fmt.Errorf("anomalies mean: %w", err)
	}
	sd, err := stats.StandardDeviationSample(data)
	if err != nil {
		return models.AnomalyReport{}, fmt.Errorf("anomalies stddev: %w", err)
	}

	flagged := make([]models.AnomalyRecord, 0)
	for _, r := range desc {
		var z float64
		if sd > 0 {
			z = math.Abs(r.Total-mean) / sd
		}
		if z <= ZScoreThreshold {
			continue
		}
		dir := models.DirectionBelow
		if r.Total > mean {
			dir = models.DirectionAbove
		}
		flagged = append(flagged, models.AnomalyRecord{
			Date:           r.Date,
			SubjectID:      r.SubjectID,
			ObservedYield:  round2(r.Total),
			DeviationScore: round2(z),
			Direction:      dir,
		})
	}

	report := models.AnomalyReport{
		TotalAnomalies: len(flagged),
		Mean:           round2(mean),
		StdDev:         round2(sd),
		Anomalies:      flagged,
	}
	if len(flagged) > maxReportedAnomalies {
		report.Anomalies = flagged[:maxReportedAnomalies]
	}
	return report, nil
}

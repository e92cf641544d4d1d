package analytics

import (
	"math/rand"
	"time"

	"HerdPulse/internal/domain/models"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func rec(subject string, day int, total float64) models.YieldRecord {
	return models.YieldRecord{
		SubjectID: subject,
		OwnerID:   "owner-1",
		Date:      day0.AddDate(0, 0, day),
		Morning:   total / 2,
		Afternoon: total / 2,
		Total:     total,
	}
}

// linearRecords returns n daily records with total = intercept + slope*day.
func linearRecords(subject string, n int, intercept, slope float64) []models.YieldRecord {
	out := make([]models.YieldRecord, n)
	for i := 0; i < n; i++ {
		out[i] = rec(subject, i, intercept+slope*float64(i))
	}
	return out
}

func constRecords(subject string, n int, v float64) []models.YieldRecord {
	return linearRecords(subject, n, v, 0)
}

func shuffled(records []models.YieldRecord) []models.YieldRecord {
	out := make([]models.YieldRecord, len(records))
	copy(out, records)
	r := rand.New(rand.NewSource(42))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

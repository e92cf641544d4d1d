package analytics

import (
	"math"
	"sort"
	"time"

	"HerdPulse/internal/domain/models"

	"github.com/montanaflynn/stats"
)

// line is y = intercept + slope*x.
type line struct {
	slope     float64
	intercept float64
}

func (l line) at(x float64) float64 { return l.intercept + l.slope*x }

// fitLine computes the ordinary least squares line through (xs, ys).
// ok is false when every x is identical and the slope is undefined.
func fitLine(xs, ys []float64) (l line, ok bool) {
	n := float64(len(xs))
	var sx, sy, sxy, sx2 float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxy += xs[i] * ys[i]
		sx2 += xs[i] * xs[i]
	}
	den := n*sx2 - sx*sx
	if den == 0 {
		return line{}, false
	}
	b := (n*sxy - sx*sy) / den
	a := (sy - b*sx) / n
	return line{slope: b, intercept: a}, true
}

// series maps ascending records to (days since the first record, total).
func series(asc []models.YieldRecord) (xs, ys []float64) {
	if len(asc) == 0 {
		return nil, nil
	}
	base := models.Day(asc[0].Date)
	xs = make([]float64, len(asc))
	ys = make([]float64, len(asc))
	for i, r := range asc {
		xs[i] = daysBetween(base, r.Date)
		ys[i] = r.Total
	}
	return xs, ys
}

func daysBetween(from, to time.Time) float64 {
	return math.Round(models.Day(to).Sub(models.Day(from)).Hours() / 24)
}

// sortedAsc returns a copy ordered oldest first; equal dates keep input order.
func sortedAsc(records []models.YieldRecord) []models.YieldRecord {
	out := make([]models.YieldRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// sortedDesc returns a copy ordered most recent first; equal dates keep input order.
func sortedDesc(records []models.YieldRecord) []models.YieldRecord {
	out := make([]models.YieldRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func totals(records []models.YieldRecord) stats.Float64Data {
	out := make(stats.Float64Data, len(records))
	for i, r := range records {
		out[i] = r.Total
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

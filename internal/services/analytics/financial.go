package analytics

import (
	"fmt"

	"HerdPulse/internal/domain/models"
	"HerdPulse/internal/domain/service"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// DefaultUnitPrice is used when neither the caller nor the configuration sets a price.
const DefaultUnitPrice = 2.50

const (
	// FinancialWindow is how many of the most recent records feed the projection.
	FinancialWindow     = 30
	financialMinRecords = 7
)

var projectionHorizons = []struct {
	name string
	days int64
}{
	{models.HorizonWeekly, 7},
	{models.HorizonMonthly, 30},
	{models.HorizonYearly, 365},
}

// RevenueForecaster projects revenue as mean daily yield times price times days.
type RevenueForecaster struct {
	defaultPrice float64
}

var _ service.FinancialForecaster = (*RevenueForecaster)(nil)

// NewRevenueForecaster falls back to DefaultUnitPrice when defaultPrice is not positive.
func NewRevenueForecaster(defaultPrice float64) *RevenueForecaster {
	if defaultPrice <= 0 {
		defaultPrice = DefaultUnitPrice
	}
	return &RevenueForecaster{defaultPrice: defaultPrice}
}

// Project uses the configured default when unitPrice is zero.
func (f *RevenueForecaster) Project(records []models.YieldRecord, unitPrice float64) (models.RevenueProjection, error) {
	if len(records) < financialMinRecords {
		return models.RevenueProjection{}, insufficient("revenue", len(records), financialMinRecords)
	}
	if unitPrice <= 0 {
		unitPrice = f.defaultPrice
	}
	desc := sortedDesc(records)
	if len(desc) > FinancialWindow {
		desc = desc[:FinancialWindow]
	}
	mean, err := stats.Mean(totals(desc))
	if err != nil {
		return models.RevenueProjection{}, fmt.Errorf("revenue mean: %w", err)
	}

	dailyYield := decimal.NewFromFloat(mean)
	price := decimal.NewFromFloat(unitPrice)
	dailyRevenue := dailyYield.Mul(price)

	horizons := make(map[string]models.HorizonTotal, len(projectionHorizons))
	for _, h := range projectionHorizons {
		days := decimal.NewFromInt(h.days)
		horizons[h.name] = models.HorizonTotal{
			Yield:   dailyYield.Mul(days).Round(2).InexactFloat64(),
			Revenue: dailyRevenue.Mul(days).Round(2).InexactFloat64(),
		}
	}

	return models.RevenueProjection{
		DailyYieldMean:   dailyYield.Round(2).InexactFloat64(),
		DailyRevenueMean: dailyRevenue.Round(2).InexactFloat64(),
		UnitPrice:        unitPrice,
		Horizons:         horizons,
	}, nil
}

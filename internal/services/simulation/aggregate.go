package simulation

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"palmopsim/internal/models"
)

func blockID(n int) string {
	return "B" + strconv.Itoa(n)
}

// finite maps NaN and the infinities to 0
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// round2 rounds half away from zero to 2 decimal places. Non-finite values
// round to 0.
func round2(v float64) float64 {
	return decimal.NewFromFloat(finite(v)).Round(2).InexactFloat64()
}

// aggregate computes the KPIs and the annual series from the records.
// Sums are taken in decimal so the totals match the rounded row values exactly.
func aggregate(cfg models.SimulationConfig, records []models.SimulationRecord) *models.SimulationResult {
	total := decimal.Zero
	annual := make([]decimal.Decimal, max(cfg.SimulationYears, 0))
	oldBlocks := make(map[string]struct{})

	for _, rec := range records {
		v := decimal.NewFromFloat(finite(rec.TotalYield))
		total = total.Add(v)
		if rec.Year >= 1 && rec.Year <= len(annual) {
			annual[rec.Year-1] = annual[rec.Year-1].Add(v)
		}
		// final-year snapshot only, not a lifetime count
		if rec.Year == cfg.SimulationYears && rec.Age > OldBlockAge {
			oldBlocks[rec.BlockID] = struct{}{}
		}
	}

	annualTotals := make([]models.AnnualTotal, len(annual))
	for i, a := range annual {
		annualTotals[i] = models.AnnualTotal{Year: i + 1, Total: a.InexactFloat64()}
	}

	return &models.SimulationResult{
		Records:          records,
		TotalYield:       total.InexactFloat64(),
		AverageYieldRate: AverageYieldRate(total.InexactFloat64(), cfg),
		OldBlockCount:    len(oldBlocks),
		AnnualTotals:     annualTotals,
	}
}

// AverageYieldRate normalizes a total by the planted land over the whole
// horizon: total / (blocks * area * years).
func AverageYieldRate(total float64, cfg models.SimulationConfig) float64 {
	land := float64(cfg.NumBlocks) * cfg.BlockAreaHa * float64(cfg.SimulationYears)
	if !(land > 0) {
		return 0
	}
	return finite(total / land)
}

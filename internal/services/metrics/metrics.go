package metrics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"palmopsim/internal/models"
	"palmopsim/internal/services/simulation"
)

// Service derives dashboard statistics from simulation results
type Service struct{}

// New creates a new metrics service
func New() *Service {
	return &Service{}
}

// CalculateKPIs computes the dashboard KPIs for a result
func (s *Service) CalculateKPIs(r *models.SimulationResult) *models.DashboardKPIs {
	cfg := r.Config
	scenario, known := models.LookupScenario(cfg.Scenario)
	if !known {
		// engine treats unknown names as Moderate
		scenario, _ = models.LookupScenario(models.ScenarioModerate)
	}

	kpis := &models.DashboardKPIs{
		TotalFFB:        roundTo(r.TotalYield, 1),
		AverageYield:    roundTo(r.AverageYieldRate, 2),
		OldBlocks:       r.OldBlockCount,
		ReplantedBlocks: len(r.Replantings),
		SimulationYears: cfg.SimulationYears,
		NumBlocks:       cfg.NumBlocks,
		TotalAreaHa:     float64(cfg.NumBlocks) * cfg.BlockAreaHa,
		ScenarioName:    cfg.Scenario,
		ScenarioKnown:   known,
		ScenarioCaption: scenario.Description,
	}

	for _, a := range r.AnnualTotals {
		kpis.AnnualTrend = append(kpis.AnnualTrend, a.Total)
		kpis.AnnualTrendYears = append(kpis.AnnualTrendYears, a.Year)
		if kpis.PeakYear == 0 || a.Total > kpis.PeakAnnualTotal {
			kpis.PeakAnnualTotal = a.Total
			kpis.PeakYear = a.Year
		}
	}

	return kpis
}

// YearDistributions summarises the per-block yield rates of every year
func (s *Service) YearDistributions(r *models.SimulationResult) []models.YearDistribution {
	byYear := make(map[int][]float64)
	for _, rec := range r.Records {
		byYear[rec.Year] = append(byYear[rec.Year], rec.YieldRate)
	}

	var out []models.YearDistribution
	for _, year := range r.Years() {
		rates := byYear[year]
		if len(rates) == 0 {
			continue
		}

		sorted := make([]float64, len(rates))
		copy(sorted, rates)
		sort.Float64s(sorted)

		out = append(out, models.YearDistribution{
			Year:   year,
			Min:    sorted[0],
			Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
			Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
			Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
			Max:    sorted[len(sorted)-1],
			Mean:   roundTo(stat.Mean(rates, nil), 2),
			Rates:  rates,
		})
	}
	return out
}

// StageMix counts the blocks in each lifecycle stage in the final simulated year.
// Every stage is present, in lifecycle order, even with a zero count.
func (s *Service) StageMix(r *models.SimulationResult) []models.StageCount {
	counts := make(map[models.Stage]int)
	for _, rec := range r.RecordsForYear(r.Config.SimulationYears) {
		counts[simulation.StageForAge(rec.Age)]++
	}

	stages := models.Stages()
	out := make([]models.StageCount, len(stages))
	for i, st := range stages {
		out[i] = models.StageCount{Stage: st, Count: counts[st]}
	}
	return out
}

// PercentChange calculates the percentage change between two values
func (s *Service) PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return ((current - previous) / math.Abs(previous)) * 100
}

func roundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

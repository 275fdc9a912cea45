package models

import (
	"errors"
	"fmt"
	"math"
)

// SimulationConfig contains all user parameters for a plantation run
type SimulationConfig struct {
	Scenario        string `json:"scenario" yaml:"scenario"`                 // Conservative, Moderate or Aggressive
	SimulationYears int    `json:"simulation_years" yaml:"simulation_years"` // Horizon in years
	NumBlocks       int    `json:"num_blocks" yaml:"num_blocks"`             // Number of management blocks

	// Block layout
	BlockAreaHa   float64 `json:"block_area_ha" yaml:"block_area_ha"`     // Uniform block area
	InitialAgeMin int     `json:"initial_age_min" yaml:"initial_age_min"` // Inclusive lower bound for initial age
	InitialAgeMax int     `json:"initial_age_max" yaml:"initial_age_max"` // Inclusive upper bound for initial age

	// Modifiers (percentages, e.g. 5.0 for 5%)
	FertilizerPct         float64 `json:"fertilizer_pct" yaml:"fertilizer_pct"`
	HarvestIntervalMonths int     `json:"harvest_interval_months" yaml:"harvest_interval_months"`
	ClimateAdjustmentPct  float64 `json:"climate_adjustment_pct" yaml:"climate_adjustment_pct"`
	PestPressurePct       float64 `json:"pest_pressure_pct" yaml:"pest_pressure_pct"`

	RandomSeed int64 `json:"random_seed" yaml:"random_seed"`
}

// DefaultSimulationConfig returns the dashboard defaults
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Scenario:              ScenarioConservative,
		SimulationYears:       10,
		NumBlocks:             10,
		BlockAreaHa:           25,
		InitialAgeMin:         3,
		InitialAgeMax:         25,
		FertilizerPct:         0,
		HarvestIntervalMonths: 12,
		ClimateAdjustmentPct:  0,
		PestPressurePct:       0,
		RandomSeed:            42,
	}
}

// Input ranges accepted by the dashboard and CLI.
const (
	MinSimulationYears = 1
	MaxSimulationYears = 30
	MinBlocks          = 1
	MaxBlocks          = 50
	MinFertilizerPct   = -10.0
	MaxFertilizerPct   = 20.0
	MinHarvestInterval = 1
	MaxHarvestInterval = 24
	MinClimatePct      = -20.0
	MaxClimatePct      = 20.0
)

// Validate checks every field against the presentation-layer ranges and
// reports all violations at once. The engine itself never calls this.
func (c SimulationConfig) Validate() error {
	var errs []error

	// NaN fails every comparison below, so non-finite values are rejected first
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"block area", c.BlockAreaHa},
		{"fertilizer", c.FertilizerPct},
		{"climate adjustment", c.ClimateAdjustmentPct},
		{"pest pressure", c.PestPressurePct},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			errs = append(errs, fmt.Errorf("%s must be a finite number", f.name))
		}
	}

	if c.SimulationYears < MinSimulationYears || c.SimulationYears > MaxSimulationYears {
		errs = append(errs, fmt.Errorf("simulation years must be between %d and %d", MinSimulationYears, MaxSimulationYears))
	}
	if c.NumBlocks < MinBlocks || c.NumBlocks > MaxBlocks {
		errs = append(errs, fmt.Errorf("number of blocks must be between %d and %d", MinBlocks, MaxBlocks))
	}
	if c.BlockAreaHa <= 0 {
		errs = append(errs, errors.New("block area must be positive"))
	}
	if c.InitialAgeMin < 0 || c.InitialAgeMax < c.InitialAgeMin {
		errs = append(errs, fmt.Errorf("initial age range [%d, %d] is invalid", c.InitialAgeMin, c.InitialAgeMax))
	}
	if c.FertilizerPct < MinFertilizerPct || c.FertilizerPct > MaxFertilizerPct {
		errs = append(errs, fmt.Errorf("fertilizer must be between %.0f%% and %.0f%%", MinFertilizerPct, MaxFertilizerPct))
	}
	if c.HarvestIntervalMonths < MinHarvestInterval || c.HarvestIntervalMonths > MaxHarvestInterval {
		errs = append(errs, fmt.Errorf("harvest interval must be between %d and %d months", MinHarvestInterval, MaxHarvestInterval))
	}
	if c.ClimateAdjustmentPct < MinClimatePct || c.ClimateAdjustmentPct > MaxClimatePct {
		errs = append(errs, fmt.Errorf("climate adjustment must be between %.0f%% and %.0f%%", MinClimatePct, MaxClimatePct))
	}
	if c.PestPressurePct < 0 || c.PestPressurePct > 100 {
		errs = append(errs, errors.New("pest pressure must be between 0% and 100%"))
	}

	return errors.Join(errs...)
}

// Block is one plantation management unit. Area never changes; Age is
// incremented once per simulated year and reset to 0 on replanting.
type Block struct {
	ID          string  `json:"id"`
	AreaHa      float64 `json:"area_ha"`
	Age         int     `json:"age"`
	PlantedYear int     `json:"planted_year"`
}

// SimulationRecord is one block in one year. Age is the age used for the
// yield computation, before that year's increment.
type SimulationRecord struct {
	Year        int     `json:"year"`
	BlockID     string  `json:"block_id"`
	Age         int     `json:"age"`
	PlantedYear int     `json:"planted_year"`
	Stage       Stage   `json:"stage"`
	YieldRate   float64 `json:"yield_rate"`  // t/ha, rounded to 2 decimals
	TotalYield  float64 `json:"total_yield"` // tonnes, rounded to 2 decimals
}

// ReplantEvent records a block reset to age 0 at the end of a year.
//
// PlantedYear on the block is not updated by replanting, so
// records after a replant still report the original planted year (0).
type ReplantEvent struct {
	Year         int    `json:"year"`
	BlockID      string `json:"block_id"`
	AgeAtReplant int    `json:"age_at_replant"`
}

// AnnualTotal is the estate production for one year
type AnnualTotal struct {
	Year  int     `json:"year"`
	Total float64 `json:"total"`
}

// SimulationResult is the fully materialized output of one run
type SimulationResult struct {
	RunID  string           `json:"run_id"`
	Config SimulationConfig `json:"config"`

	Records     []SimulationRecord `json:"records"` // year-major, block-minor
	Replantings []ReplantEvent     `json:"replantings"`

	TotalYield       float64       `json:"total_yield"`
	AverageYieldRate float64       `json:"average_yield_rate"` // land-normalized, not a mean of row rates
	OldBlockCount    int           `json:"old_block_count"`    // blocks older than 25 in the final year only
	AnnualTotals     []AnnualTotal `json:"annual_totals"`      // ascending year
}

// AnnualTotalFor returns the total for a year and whether it was simulated
func (r *SimulationResult) AnnualTotalFor(year int) (float64, bool) {
	for _, a := range r.AnnualTotals {
		if a.Year == year {
			return a.Total, true
		}
	}
	return 0, false
}

// Years returns the simulated years in ascending order
func (r *SimulationResult) Years() []int {
	years := make([]int, len(r.AnnualTotals))
	for i, a := range r.AnnualTotals {
		years[i] = a.Year
	}
	return years
}

// RecordsForYear returns the records of a single year in block order
func (r *SimulationResult) RecordsForYear(year int) []SimulationRecord {
	var out []SimulationRecord
	for _, rec := range r.Records {
		if rec.Year == year {
			out = append(out, rec)
		}
	}
	return out
}

// ReplantingsInYear returns how many blocks were replanted at the end of year
func (r *SimulationResult) ReplantingsInYear(year int) int {
	n := 0
	for _, e := range r.Replantings {
		if e.Year == year {
			n++
		}
	}
	return n
}

package models

// ComparisonRow holds the KPIs of one scenario in a comparison
type ComparisonRow struct {
	Scenario         string  `json:"scenario"`
	TotalYield       float64 `json:"total_yield"`
	AverageYieldRate float64 `json:"average_yield_rate"`
	OldBlockCount    int     `json:"old_block_count"`
	Replantings      int     `json:"replantings"`

	// Percentage change against the Moderate run, when it is part of the comparison
	HasBaseline      bool    `json:"has_baseline"`
	TotalYieldChange float64 `json:"total_yield_change_pct"`
}

// Comparison is the result of running one configuration under several scenarios
type Comparison struct {
	Config  SimulationConfig             `json:"config"`
	Rows    []ComparisonRow              `json:"rows"` // requested scenario order
	Results map[string]*SimulationResult `json:"-"`    // keyed by scenario name
}

// Scenarios returns the scenario names in comparison order
func (c *Comparison) Scenarios() []string {
	names := make([]string, len(c.Rows))
	for i, r := range c.Rows {
		names[i] = r.Scenario
	}
	return names
}

package models

// Scenario names recognised by the engine
const (
	ScenarioConservative = "Conservative"
	ScenarioModerate     = "Moderate"
	ScenarioAggressive   = "Aggressive"
)

// Scenario is a named multiplicative yield-adjustment policy
type Scenario struct {
	Name        string  `json:"name"`
	Adjustment  float64 `json:"adjustment"` // fraction, e.g. -0.10
	Description string  `json:"description"`
}

var scenarios = []Scenario{
	{Name: ScenarioConservative, Adjustment: -0.10, Description: "Lower yield assumption (-10%). Risk-averse planning."},
	{Name: ScenarioModerate, Adjustment: 0.00, Description: "Baseline yield assumption (0%). Standard operations."},
	{Name: ScenarioAggressive, Adjustment: 0.10, Description: "Higher yield assumption (+10%). Optimistic strategy."},
}

// Scenarios returns the known scenarios in display order
func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

// LookupScenario finds a scenario by exact name
func LookupScenario(name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// ScenarioAdjustment returns the yield adjustment for name.
//
// Unrecognised names silently fall back to the Moderate (zero) adjustment
// instead of failing. Callers that want to reject typos must check
// LookupScenario themselves.
func ScenarioAdjustment(name string) float64 {
	if s, ok := LookupScenario(name); ok {
		return s.Adjustment
	}
	return 0
}

// Stage is a palm lifecycle phase derived from block age
type Stage string

const (
	StageImmature  Stage = "Immature"
	StageRamping   Stage = "Ramping"
	StagePeak      Stage = "Peak"
	StageDeclining Stage = "Declining"
	StageSenescent Stage = "Senescent"
)

// Stages returns all lifecycle stages in lifecycle order
func Stages() []Stage {
	return []Stage{StageImmature, StageRamping, StagePeak, StageDeclining, StageSenescent}
}

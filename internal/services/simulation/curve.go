package simulation

import (
	"fmt"
	"strings"

	"palmopsim/internal/models"
)

// YieldCurve maps palm age in years to a base FFB yield in t/ha/year
type YieldCurve interface {
	BaseYield(age int) float64
}

// YieldCurveFunc adapts a plain function to YieldCurve
type YieldCurveFunc func(age int) float64

// BaseYield calls f(age)
func (f YieldCurveFunc) BaseYield(age int) float64 {
	return f(age)
}

// DefaultCurve is the four-phase lifecycle curve used by every run unless
// replaced with WithCurve.
var DefaultCurve YieldCurve = YieldCurveFunc(BaseYield)

// LegacyCurve is the older coarse age-class table (0/18/25/20/15), for
// comparing against earlier estimates.
var LegacyCurve YieldCurve = YieldCurveFunc(legacyBaseYield)

// Curve names accepted by CurveByName
const (
	CurveDefault = "default"
	CurveLegacy  = "legacy"
)

// CurveByName returns the named yield curve. An empty name selects
// DefaultCurve.
func CurveByName(name string) (YieldCurve, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CurveDefault:
		return DefaultCurve, nil
	case CurveLegacy:
		return LegacyCurve, nil
	}
	return nil, fmt.Errorf("unknown yield curve %q, want %s or %s", name, CurveDefault, CurveLegacy)
}

// BaseYield returns the base yield for age. Boundaries are closed exactly as
// listed; ages beyond the decline phase yield nothing.
//
//	age < 3         0                  immature
//	3 <= age < 6    8 + (age-3)*4      ramp-up
//	6 <= age <= 9   20 + (age-6)*2     approach to peak
//	9 < age <= 18   26                 plateau
//	19 <= age <= 28 26 - (age-18)      decline
//	age > 28        0                  senescent
func BaseYield(age int) float64 {
	switch {
	case age < 3:
		return 0
	case age < 6:
		return 8 + float64(age-3)*4
	case age <= 9:
		return 20 + float64(age-6)*2
	case age <= 18:
		return 26
	case age <= SenescentAge:
		return 26 - float64(age-18)*1.0
	default:
		return 0
	}
}

func legacyBaseYield(age int) float64 {
	switch {
	case age < 3:
		return 0
	case age <= 7:
		return 18
	case age <= 18:
		return 25
	case age <= 25:
		return 20
	default:
		return 15
	}
}

// StageForAge classifies an age into its lifecycle stage
func StageForAge(age int) models.Stage {
	switch {
	case age < 3:
		return models.StageImmature
	case age < 9:
		return models.StageRamping
	case age <= 18:
		return models.StagePeak
	case age <= SenescentAge:
		return models.StageDeclining
	default:
		return models.StageSenescent
	}
}

package comparison

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"palmopsim/internal/models"
	"palmopsim/internal/services/simulation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func allScenarios() []string {
	return []string{models.ScenarioConservative, models.ScenarioModerate, models.ScenarioAggressive}
}

func TestCompareMatchesSequentialRuns(t *testing.T) {
	base := models.DefaultSimulationConfig()
	base.NumBlocks = 20
	base.SimulationYears = 15

	got, err := NewRunner(nil, nil).Compare(context.Background(), base, allScenarios())
	require.NoError(t, err)

	for _, name := range allScenarios() {
		cfg := base
		cfg.Scenario = name
		want := simulation.Run(cfg)

		if diff := cmp.Diff(want, got.Results[name], cmpopts.IgnoreFields(models.SimulationResult{}, "RunID")); diff != "" {
			t.Errorf("%s differs from a sequential run (-want +got):\n%s", name, diff)
		}
	}
}

func TestCompareRowOrderAndDeltas(t *testing.T) {
	requested := []string{models.ScenarioAggressive, models.ScenarioModerate, models.ScenarioConservative}

	got, err := NewRunner(nil, nil).Compare(context.Background(), models.DefaultSimulationConfig(), requested)
	require.NoError(t, err)

	assert.Equal(t, requested, got.Scenarios())

	byName := make(map[string]models.ComparisonRow)
	for _, row := range got.Rows {
		assert.True(t, row.HasBaseline)
		byName[row.Scenario] = row
	}

	assert.Zero(t, byName[models.ScenarioModerate].TotalYieldChange)
	assert.Greater(t, byName[models.ScenarioAggressive].TotalYieldChange, 0.0)
	assert.Less(t, byName[models.ScenarioConservative].TotalYieldChange, 0.0)
}

func TestCompareWithoutModerate(t *testing.T) {
	got, err := NewRunner(nil, nil).Compare(context.Background(), models.DefaultSimulationConfig(),
		[]string{models.ScenarioConservative, models.ScenarioAggressive})
	require.NoError(t, err)

	for _, row := range got.Rows {
		assert.False(t, row.HasBaseline, row.Scenario)
		assert.Zero(t, row.TotalYieldChange, row.Scenario)
	}
}

func TestCompareKeepsBaseConfig(t *testing.T) {
	base := models.DefaultSimulationConfig()
	base.RandomSeed = 99
	base.PestPressurePct = 20

	got, err := NewRunner(nil, nil).Compare(context.Background(), base, allScenarios())
	require.NoError(t, err)

	assert.Equal(t, base, got.Config)
	for name, res := range got.Results {
		assert.Equal(t, name, res.Config.Scenario)
		assert.Equal(t, int64(99), res.Config.RandomSeed)
		assert.Equal(t, 20.0, res.Config.PestPressurePct)
	}
}

func TestCompareDeduplicates(t *testing.T) {
	got, err := NewRunner(nil, nil).Compare(context.Background(), models.DefaultSimulationConfig(),
		[]string{models.ScenarioModerate, "", models.ScenarioModerate, models.ScenarioAggressive})
	require.NoError(t, err)

	assert.Equal(t, []string{models.ScenarioModerate, models.ScenarioAggressive}, got.Scenarios())
	assert.Len(t, got.Results, 2)
}

func TestCompareNoScenarios(t *testing.T) {
	for _, input := range [][]string{nil, {}, {""}} {
		_, err := NewRunner(nil, nil).Compare(context.Background(), models.DefaultSimulationConfig(), input)
		assert.ErrorIs(t, err, ErrNoScenarios)
	}
}

func TestCompareCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(nil, nil).Compare(ctx, models.DefaultSimulationConfig(), allScenarios())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCompareRecoversFromPanickingRun(t *testing.T) {
	broken := simulation.NewEngine(simulation.WithCurve(simulation.YieldCurveFunc(func(int) float64 {
		panic("curve exploded")
	})))

	got, err := NewRunner(broken, nil).Compare(context.Background(), models.DefaultSimulationConfig(), allScenarios())
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, ErrRunFailed))
	assert.Contains(t, err.Error(), "curve exploded")
}

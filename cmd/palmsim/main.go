// Command palmsim runs plantation yield simulations from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"palmopsim/internal/config"
	"palmopsim/internal/models"
	"palmopsim/internal/services/simulation"
)

// app holds the state shared by all subcommands
type app struct {
	verbose    bool
	preset     string
	presetFile string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "palmsim",
		Short: "PalmOpsSim - oil palm plantation yield simulator",
		Long: `palmsim simulates fresh fruit bunch (FFB) production of an oil palm
estate over a multi-year horizon, block by block.

Configuration starts from the preset file (see "palmsim presets") and is
overridden by flags. Results are printed as tables or exported as CSV and
Excel workbooks.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			if a.presetFile == "" {
				a.presetFile = a.cfg.PresetFile
			}

			zc := zap.NewProductionConfig()
			zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if a.verbose || a.cfg.Debug {
				zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := zc.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&a.preset, "preset", "", "Named preset to start from")
	pf.StringVar(&a.presetFile, "preset-file", "", "Preset YAML file (default from PALMSIM_PRESET_FILE or data/presets.yaml)")

	root.AddCommand(
		a.newRunCmd(),
		a.newCompareCmd(),
		a.newExportCmd(),
		a.newExportsCmd(),
		a.newSealCmd(),
		a.newUnsealCmd(),
		a.newOpenCmd(),
		a.newPresetsCmd(),
		a.newValidateCmd(),
		newVersionCmd(),
	)
	return root
}

// simFlags binds the simulation parameters to command flags. Only flags the
// user set override the preset.
type simFlags struct {
	values models.SimulationConfig
	curve  string
}

func addSimFlags(cmd *cobra.Command, withScenario bool) *simFlags {
	sf := &simFlags{values: models.DefaultSimulationConfig()}
	f := cmd.Flags()
	v := &sf.values

	if withScenario {
		f.StringVar(&v.Scenario, "scenario", v.Scenario, "Yield scenario: Conservative, Moderate or Aggressive")
	}
	f.IntVar(&v.SimulationYears, "years", v.SimulationYears, "Simulation horizon in years")
	f.IntVar(&v.NumBlocks, "blocks", v.NumBlocks, "Number of management blocks")
	f.Float64Var(&v.BlockAreaHa, "area", v.BlockAreaHa, "Area of each block in hectares")
	f.IntVar(&v.InitialAgeMin, "age-min", v.InitialAgeMin, "Minimum initial palm age")
	f.IntVar(&v.InitialAgeMax, "age-max", v.InitialAgeMax, "Maximum initial palm age")
	f.Float64Var(&v.FertilizerPct, "fertilizer", v.FertilizerPct, "Fertilizer application change in percent")
	f.IntVar(&v.HarvestIntervalMonths, "harvest", v.HarvestIntervalMonths, "Harvest interval in months")
	f.Float64Var(&v.ClimateAdjustmentPct, "climate", v.ClimateAdjustmentPct, "Climate adjustment in percent")
	f.Float64Var(&v.PestPressurePct, "pest", v.PestPressurePct, "Pest pressure in percent")
	f.Int64Var(&v.RandomSeed, "seed", v.RandomSeed, "Random seed")
	f.StringVar(&sf.curve, "curve", simulation.CurveDefault, "Yield curve: default or legacy (older age-class table)")
	return sf
}

// engine builds a simulation engine with the selected yield curve
func (a *app) engine(sf *simFlags) (*simulation.Engine, error) {
	curve, err := simulation.CurveByName(sf.curve)
	if err != nil {
		return nil, err
	}
	if sf.curve != simulation.CurveDefault {
		a.logger.Debug("using alternate yield curve", zap.String("curve", sf.curve))
	}
	return simulation.NewEngine(simulation.WithCurve(curve), simulation.WithLogger(a.logger)), nil
}

// resolve loads the selected preset and applies the flags that were set
func (a *app) resolve(cmd *cobra.Command, sf *simFlags) (models.SimulationConfig, error) {
	presets, err := config.LoadPresets(a.presetFile)
	if err != nil {
		return models.SimulationConfig{}, err
	}
	cfg, err := presets.Get(a.preset)
	if err != nil {
		return cfg, err
	}

	f := cmd.Flags()
	v := sf.values
	overrides := []struct {
		name  string
		apply func()
	}{
		{"scenario", func() { cfg.Scenario = v.Scenario }},
		{"years", func() { cfg.SimulationYears = v.SimulationYears }},
		{"blocks", func() { cfg.NumBlocks = v.NumBlocks }},
		{"area", func() { cfg.BlockAreaHa = v.BlockAreaHa }},
		{"age-min", func() { cfg.InitialAgeMin = v.InitialAgeMin }},
		{"age-max", func() { cfg.InitialAgeMax = v.InitialAgeMax }},
		{"fertilizer", func() { cfg.FertilizerPct = v.FertilizerPct }},
		{"harvest", func() { cfg.HarvestIntervalMonths = v.HarvestIntervalMonths }},
		{"climate", func() { cfg.ClimateAdjustmentPct = v.ClimateAdjustmentPct }},
		{"pest", func() { cfg.PestPressurePct = v.PestPressurePct }},
		{"seed", func() { cfg.RandomSeed = v.RandomSeed }},
	}
	for _, o := range overrides {
		if f.Lookup(o.name) != nil && f.Changed(o.name) {
			o.apply()
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if _, ok := models.LookupScenario(cfg.Scenario); !ok {
		a.logger.Warn("unknown scenario, using Moderate adjustment", zap.String("scenario", cfg.Scenario))
	}
	return cfg, nil
}

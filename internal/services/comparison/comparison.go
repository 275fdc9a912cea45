// Package comparison runs one configuration under several scenarios.
package comparison

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"palmopsim/internal/models"
	"palmopsim/internal/services/metrics"
	"palmopsim/internal/services/simulation"
)

// ErrNoScenarios is returned when a comparison is requested without scenarios
var ErrNoScenarios = errors.New("no scenarios selected")

// ErrRunFailed wraps a scenario run that panicked
var ErrRunFailed = errors.New("simulation run failed")

// Runner executes the engine once per scenario
type Runner struct {
	engine  *simulation.Engine
	metrics *metrics.Service
	logger  *zap.Logger
}

// NewRunner creates a comparison runner around engine
func NewRunner(engine *simulation.Engine, logger *zap.Logger) *Runner {
	if engine == nil {
		engine = simulation.NewEngine()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		engine:  engine,
		metrics: metrics.New(),
		logger:  logger,
	}
}

// Compare runs base under each scenario, keeping every other field including
// the seed. Runs execute concurrently; each owns its generator, so results are
// identical to running them one after another. Duplicate names are dropped.
func (r *Runner) Compare(ctx context.Context, base models.SimulationConfig, scenarios []string) (*models.Comparison, error) {
	names := dedupe(scenarios)
	if len(names) == 0 {
		return nil, ErrNoScenarios
	}

	results := make([]*models.SimulationResult, len(names))
	eg, egCtx := errgroup.WithContext(ctx)

	for i, name := range names {
		eg.Go(func() (err error) {
			// a panic here would escape the HTTP recoverer and stop the process
			defer func() {
				if p := recover(); p != nil {
					r.logger.Error("scenario run panicked", zap.String("scenario", name), zap.Any("panic", p))
					err = fmt.Errorf("scenario %s: %w: %v", name, ErrRunFailed, p)
				}
			}()

			if err := egCtx.Err(); err != nil {
				return fmt.Errorf("scenario %s: %w", name, err)
			}
			cfg := base
			cfg.Scenario = name
			results[i] = r.engine.Run(cfg)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("comparison complete",
		zap.Strings("scenarios", names),
		zap.Int("runs", len(results)),
	)

	return r.assemble(base, names, results), nil
}

func (r *Runner) assemble(base models.SimulationConfig, names []string, results []*models.SimulationResult) *models.Comparison {
	cmp := &models.Comparison{
		Config:  base,
		Rows:    make([]models.ComparisonRow, len(names)),
		Results: make(map[string]*models.SimulationResult, len(names)),
	}

	var baseline *models.SimulationResult
	for i, name := range names {
		cmp.Results[name] = results[i]
		if name == models.ScenarioModerate {
			baseline = results[i]
		}
	}

	for i, name := range names {
		res := results[i]
		row := models.ComparisonRow{
			Scenario:         name,
			TotalYield:       res.TotalYield,
			AverageYieldRate: res.AverageYieldRate,
			OldBlockCount:    res.OldBlockCount,
			Replantings:      len(res.Replantings),
		}
		if baseline != nil {
			row.HasBaseline = true
			row.TotalYieldChange = r.metrics.PercentChange(res.TotalYield, baseline.TotalYield)
		}
		cmp.Rows[i] = row
	}

	return cmp
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Package simulation implements the plantation yield model: the age-yield
// curve, the year-by-block stochastic update loop, the replanting policy and
// the aggregation into KPIs.
package simulation

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"

	"palmopsim/internal/models"
)

const (
	// SenescentAge is the last age with a non-zero base yield. Blocks older
	// than this are eligible for replanting.
	SenescentAge = 28

	// OldBlockAge is the age threshold of the old-block KPI
	OldBlockAge = 25

	// ReplantRate bounds the share of blocks replanted per year
	ReplantRate = 0.05

	// BaselinePestLoss is applied to every block before scenario pest pressure
	BaselinePestLoss = 0.05

	climateSigma   = 0.05
	variationMean  = 1.0
	variationSigma = 0.03

	// pcgStream is the fixed second PCG word; only the seed varies between runs
	pcgStream = 0x9e3779b97f4a7c15
)

// Engine runs plantation simulations. It holds no per-run state, so one
// Engine may serve concurrent Run calls.
type Engine struct {
	curve  YieldCurve
	logger *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithCurve replaces the default yield curve
func WithCurve(c YieldCurve) Option {
	return func(e *Engine) {
		if c != nil {
			e.curve = c
		}
	}
}

// WithLogger sets the logger used for run summaries
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine with the default curve and a no-op logger
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		curve:  DefaultCurve,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run is shorthand for NewEngine().Run(cfg)
func Run(cfg models.SimulationConfig) *models.SimulationResult {
	return NewEngine().Run(cfg)
}

// NewRand returns the generator used for a run seeded with seed
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), pcgStream))
}

// Modifiers are the per-run multipliers derived from a config
type Modifiers struct {
	ScenarioAdjustment float64
	FertilizerResponse float64
	HarvestEfficiency  float64
	PestPressureFactor float64
	ClimateMean        float64
	BaselinePestFactor float64
}

// ModifiersFor derives the run multipliers from cfg
func ModifiersFor(cfg models.SimulationConfig) Modifiers {
	return Modifiers{
		ScenarioAdjustment: models.ScenarioAdjustment(cfg.Scenario),
		FertilizerResponse: FertilizerResponse(cfg.FertilizerPct),
		HarvestEfficiency:  HarvestEfficiency(cfg.HarvestIntervalMonths),
		PestPressureFactor: 1 - cfg.PestPressurePct/100,
		ClimateMean:        1 + cfg.ClimateAdjustmentPct/100,
		BaselinePestFactor: 1 - BaselinePestLoss,
	}
}

// FertilizerResponse is the dampened yield multiplier for a fertilizer change
func FertilizerResponse(pct float64) float64 {
	return 1 + 0.4*(pct/100)
}

// HarvestEfficiency returns the recovery efficiency of a harvest round interval.
// Rounds coarser than a year lose more fruit.
func HarvestEfficiency(intervalMonths int) float64 {
	if intervalMonths <= 12 {
		return 0.95
	}
	return 0.88
}

// ReplantCap is the most blocks that may be replanted in a single year
func ReplantCap(numBlocks int) int {
	return max(1, int(math.Floor(ReplantRate*float64(numBlocks))))
}

// YieldRate applies the modifiers and the two random factors to a base yield.
// The result is never negative and never NaN or infinite.
func (m Modifiers) YieldRate(base, climate, variation float64) float64 {
	adjusted := base * (1 + m.ScenarioAdjustment) * m.FertilizerResponse
	rate := math.Max(adjusted*climate*variation, 0)

	rate *= m.HarvestEfficiency
	rate *= m.BaselinePestFactor
	rate *= m.PestPressureFactor

	// pest pressure above 100% would otherwise turn the rate negative
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return 0
	}
	return rate
}

// Run executes one simulation. Years and blocks are processed strictly in
// order; replanting happens once per year after every block has yielded.
func (e *Engine) Run(cfg models.SimulationConfig) *models.SimulationResult {
	rng := NewRand(cfg.RandomSeed)
	mods := ModifiersFor(cfg)

	climate := distuv.Normal{Mu: mods.ClimateMean, Sigma: climateSigma, Src: rng}
	variation := distuv.Normal{Mu: variationMean, Sigma: variationSigma, Src: rng}

	blocks := initBlocks(rng, cfg)

	years := max(cfg.SimulationYears, 0)
	records := make([]models.SimulationRecord, 0, years*len(blocks))
	var replantings []models.ReplantEvent

	for year := 1; year <= years; year++ {
		for _, b := range blocks {
			// draw order is part of the reproducibility contract: climate, then variation
			c := climate.Rand()
			base := e.curve.BaseYield(b.Age)
			v := variation.Rand()

			rate := mods.YieldRate(base, c, v)
			total := rate * b.AreaHa

			records = append(records, models.SimulationRecord{
				Year:        year,
				BlockID:     b.ID,
				Age:         b.Age,
				PlantedYear: b.PlantedYear,
				Stage:       StageForAge(b.Age),
				YieldRate:   round2(rate),
				TotalYield:  round2(total),
			})

			b.Age++
		}

		replantings = append(replantings, replant(rng, blocks, year)...)
	}

	result := aggregate(cfg, records)
	result.RunID = uuid.NewString()
	result.Config = cfg
	result.Replantings = replantings
	if result.Replantings == nil {
		result.Replantings = []models.ReplantEvent{}
	}

	e.logger.Debug("simulation complete",
		zap.String("run_id", result.RunID),
		zap.String("scenario", cfg.Scenario),
		zap.Int("years", years),
		zap.Int("blocks", len(blocks)),
		zap.Int64("seed", cfg.RandomSeed),
		zap.Int("replantings", len(result.Replantings)),
		zap.Float64("total_yield", result.TotalYield),
	)

	return result
}

// initBlocks creates blocks B1..Bn with ages drawn uniformly from the
// inclusive initial age range.
func initBlocks(rng *rand.Rand, cfg models.SimulationConfig) []*models.Block {
	n := max(cfg.NumBlocks, 0)
	blocks := make([]*models.Block, n)
	span := cfg.InitialAgeMax - cfg.InitialAgeMin + 1

	for i := range blocks {
		age := cfg.InitialAgeMin
		if span > 1 {
			age += rng.IntN(span)
		}
		blocks[i] = &models.Block{
			ID:          blockID(i + 1),
			AreaHa:      cfg.BlockAreaHa,
			Age:         max(age, 0),
			PlantedYear: 0,
		}
	}
	return blocks
}

// replant resets a capped random subset of senescent blocks to age 0.
// PlantedYear is intentionally not updated.
func replant(rng *rand.Rand, blocks []*models.Block, year int) []models.ReplantEvent {
	var eligible []*models.Block
	for _, b := range blocks {
		if b.Age > SenescentAge {
			eligible = append(eligible, b)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})

	limit := min(ReplantCap(len(blocks)), len(eligible))
	events := make([]models.ReplantEvent, 0, limit)
	for _, b := range eligible[:limit] {
		events = append(events, models.ReplantEvent{
			Year:         year,
			BlockID:      b.ID,
			AgeAtReplant: b.Age,
		})
		b.Age = 0
	}
	return events
}

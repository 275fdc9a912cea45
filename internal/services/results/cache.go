// Package results memoizes simulation runs for the dashboard.
package results

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"palmopsim/internal/models"
	"palmopsim/internal/services/simulation"
)

// Cache holds the most recent simulation results keyed by a hash of their
// configuration. Runs are deterministic, so a hit is identical to re-running.
type Cache struct {
	engine  *simulation.Engine
	logger  *zap.Logger
	entries *lru.Cache[string, *models.SimulationResult]
}

// NewCache creates a cache holding up to size results
func NewCache(engine *simulation.Engine, size int, logger *zap.Logger) *Cache {
	if engine == nil {
		engine = simulation.NewEngine()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// only a non-positive size is an error
	entries, _ := lru.New[string, *models.SimulationResult](max(size, 1))

	return &Cache{
		engine:  engine,
		logger:  logger,
		entries: entries,
	}
}

// ConfigHash returns a short stable key for cfg
func ConfigHash(cfg models.SimulationConfig) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}

// Get returns the cached result for cfg, if any
func (c *Cache) Get(cfg models.SimulationConfig) (*models.SimulationResult, bool) {
	return c.entries.Get(ConfigHash(cfg))
}

// Run returns the cached result for cfg or runs the engine and caches it.
// Cached results are shared; callers must not modify them.
func (c *Cache) Run(cfg models.SimulationConfig) *models.SimulationResult {
	key := ConfigHash(cfg)
	if res, ok := c.entries.Get(key); ok {
		c.logger.Debug("result cache hit", zap.String("run_id", res.RunID))
		return res
	}

	res := c.engine.Run(cfg)
	if ok, _ := c.entries.ContainsOrAdd(key, res); ok {
		// another request finished the same run first
		if cached, hit := c.entries.Get(key); hit {
			return cached
		}
	}
	return res
}

// Len returns the number of cached results
func (c *Cache) Len() int {
	return c.entries.Len()
}

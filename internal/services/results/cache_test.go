package results

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palmopsim/internal/models"
)

func TestConfigHash(t *testing.T) {
	a := models.DefaultSimulationConfig()
	b := models.DefaultSimulationConfig()

	assert.Equal(t, ConfigHash(a), ConfigHash(b))
	assert.Len(t, ConfigHash(a), 16)

	b.RandomSeed++
	assert.NotEqual(t, ConfigHash(a), ConfigHash(b))
}

func TestCacheRunReusesResult(t *testing.T) {
	c := NewCache(nil, 4, nil)
	cfg := models.DefaultSimulationConfig()

	first := c.Run(cfg)
	second := c.Run(cfg)

	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Len())
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(nil, 2, nil)

	cfgs := make([]models.SimulationConfig, 3)
	for i := range cfgs {
		cfgs[i] = models.DefaultSimulationConfig()
		cfgs[i].RandomSeed = int64(i)
	}

	c.Run(cfgs[0])
	c.Run(cfgs[1])
	c.Get(cfgs[0]) // touch 0 so 1 becomes the oldest
	c.Run(cfgs[2])

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(cfgs[1])
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get(cfgs[0])
	assert.True(t, ok)
	_, ok = c.Get(cfgs[2])
	assert.True(t, ok)
}

func TestCacheConcurrentRuns(t *testing.T) {
	c := NewCache(nil, 8, nil)
	cfg := models.DefaultSimulationConfig()

	var wg sync.WaitGroup
	got := make([]*models.SimulationResult, 16)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = c.Run(cfg)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, c.Len())
	for _, res := range got {
		// racing misses all settle on the first stored result
		assert.Same(t, got[0], res)
	}
}

func TestCacheSizeAtLeastOne(t *testing.T) {
	c := NewCache(nil, 0, nil)

	a := models.DefaultSimulationConfig()
	b := models.DefaultSimulationConfig()
	b.RandomSeed++

	c.Run(a)
	c.Run(b)

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(b)
	assert.True(t, ok)
}

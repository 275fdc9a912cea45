package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"palmopsim/internal/models"
)

// Presets is the YAML preset file: the form defaults plus named
// configurations selectable from the dashboard and the CLI.
type Presets struct {
	Defaults models.SimulationConfig            `yaml:"defaults"`
	Named    map[string]models.SimulationConfig `yaml:"presets,omitempty"`
}

// DefaultPresets returns the built-in presets
func DefaultPresets() *Presets {
	drought := models.DefaultSimulationConfig()
	drought.ClimateAdjustmentPct = -15
	drought.PestPressurePct = 10

	intensive := models.DefaultSimulationConfig()
	intensive.Scenario = models.ScenarioAggressive
	intensive.FertilizerPct = 15
	intensive.HarvestIntervalMonths = 10

	ageing := models.DefaultSimulationConfig()
	ageing.SimulationYears = 20
	ageing.InitialAgeMin = 18
	ageing.InitialAgeMax = 30

	return &Presets{
		Defaults: models.DefaultSimulationConfig(),
		Named: map[string]models.SimulationConfig{
			"drought":   drought,
			"intensive": intensive,
			"ageing":    ageing,
		},
	}
}

// LoadPresets loads presets from a YAML file. Built-in presets are returned
// when the file does not exist; fields missing from the file keep their
// built-in values.
func LoadPresets(path string) (*Presets, error) {
	p := DefaultPresets()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}

	var file struct {
		Defaults yaml.Node            `yaml:"defaults"`
		Named    map[string]yaml.Node `yaml:"presets"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}

	if !file.Defaults.IsZero() {
		if err := file.Defaults.Decode(&p.Defaults); err != nil {
			return nil, fmt.Errorf("failed to parse preset defaults: %w", err)
		}
	}
	for name, node := range file.Named {
		// each named preset starts from the file's defaults
		cfg := p.Defaults
		if err := node.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse preset %q: %w", name, err)
		}
		p.Named[name] = cfg
	}

	return p, nil
}

// Save writes presets to a YAML file
func (p *Presets) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create preset directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write presets: %w", err)
	}
	return nil
}

// Get returns the named preset. The empty name and "defaults" return the defaults.
func (p *Presets) Get(name string) (models.SimulationConfig, error) {
	if name == "" || name == "defaults" {
		return p.Defaults, nil
	}
	cfg, ok := p.Named[name]
	if !ok {
		return models.SimulationConfig{}, fmt.Errorf("unknown preset %q", name)
	}
	return cfg, nil
}

// Names returns the named presets in alphabetical order
func (p *Presets) Names() []string {
	names := make([]string, 0, len(p.Named))
	for n := range p.Named {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds server configuration
type Config struct {
	// Server settings
	ListenAddr string `json:"listen_addr"`
	Debug      bool   `json:"debug"`

	// Directories
	TemplatesDirectory string `json:"templates_directory"`
	StaticDirectory    string `json:"static_directory"`
	ExportDirectory    string `json:"export_directory"`

	// File paths
	PresetFile string `json:"preset_file"`

	// Encrypts files written to ExportDirectory when set
	ExportPassphrase string `json:"-"`

	// Most recent simulation results kept in memory
	CacheSize int `json:"cache_size"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}

	return &Config{
		ListenAddr:         ":8080",
		Debug:              false,
		TemplatesDirectory: filepath.Join(wd, "web", "templates"),
		StaticDirectory:    filepath.Join(wd, "web", "static"),
		ExportDirectory:    filepath.Join(wd, "data", "exports"),
		PresetFile:         filepath.Join(wd, "data", "presets.yaml"),
		CacheSize:          32,
	}
}

// Load reads .env if present, then applies PALMSIM_* environment overrides
// on top of the defaults.
func Load() *Config {
	// a missing .env is normal
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}

	c.ListenAddr = get("PALMSIM_LISTEN_ADDR", c.ListenAddr)
	if debug := strings.ToLower(os.Getenv("PALMSIM_DEBUG")); debug == "true" || debug == "1" {
		c.Debug = true
	}
	c.TemplatesDirectory = get("PALMSIM_TEMPLATES_DIR", c.TemplatesDirectory)
	c.StaticDirectory = get("PALMSIM_STATIC_DIR", c.StaticDirectory)
	c.ExportDirectory = get("PALMSIM_EXPORT_DIR", c.ExportDirectory)
	c.PresetFile = get("PALMSIM_PRESET_FILE", c.PresetFile)
	c.ExportPassphrase = get("PALMSIM_EXPORT_PASSPHRASE", c.ExportPassphrase)
}

// EnsureDirectories creates required directories if they don't exist
func (c *Config) EnsureDirectories() error {
	var errs []error
	for _, dir := range []string{c.ExportDirectory, filepath.Dir(c.PresetFile)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			errs = append(errs, fmt.Errorf("could not create directory %s: %w", dir, err))
		}
	}
	return errors.Join(errs...)
}

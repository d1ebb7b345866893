// Package config provides configuration loading and management for maskheatmap.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"maskheatmap/internal/logging"
	"maskheatmap/internal/models"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Target is the canonical grid every mask is resampled onto.
	// All three axes at 0 means the per-axis maximum of the mask dimensions.
	Target struct {
		X int `yaml:"x"`
		Y int `yaml:"y"`
		Z int `yaml:"z"`
	} `yaml:"target"`

	// Processing parameters
	Processing struct {
		// TrackBounds enables per-slice bounds of the contributing masks
		TrackBounds bool `yaml:"trackBounds"`

		// LoadWorkers is how many mask directories are opened concurrently
		LoadWorkers int `yaml:"loadWorkers"`

		// Threshold is the gray level a slice pixel must exceed to count as labeled
		Threshold int `yaml:"threshold"`
	} `yaml:"processing"`

	// Progress parameters
	Progress struct {
		// PollInterval is how often the CLI polls the running heatmap
		PollInterval time.Duration `yaml:"pollInterval"`
	} `yaml:"progress"`

	// Output parameters
	Output struct {
		// Dir is where rendered heat slices are written
		Dir string `yaml:"dir"`

		// SaveSlices determines whether colored z-slices are written
		SaveSlices bool `yaml:"saveSlices"`

		// CropToBounds cuts each slice to the box holding heat
		CropToBounds bool `yaml:"cropToBounds"`

		// STLFile, when set, receives the surface of the voxels at or above IsoLevel
		STLFile string `yaml:"stlFile"`

		// IsoLevel is the heat a voxel needs to be inside the exported surface
		IsoLevel float64 `yaml:"isoLevel"`
	} `yaml:"output"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	Metrics struct {
		// Addr serves Prometheus metrics on /metrics when non-empty
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.TrackBounds = true
	cfg.Processing.LoadWorkers = runtime.NumCPU()
	cfg.Processing.Threshold = 0

	cfg.Progress.PollInterval = 200 * time.Millisecond

	cfg.Output.Dir = "heatmap_out"
	cfg.Output.SaveSlices = true
	cfg.Output.CropToBounds = false
	cfg.Output.IsoLevel = 0.5

	cfg.Logging.Level = "info"

	return cfg
}

// TargetDims returns the configured target grid; the zero Dims means auto
func (c *Config) TargetDims() models.Dims {
	return models.Dims{X: c.Target.X, Y: c.Target.Y, Z: c.Target.Z}
}

// Validate checks the configuration for values no run can use
func (c *Config) Validate() error {
	var errs []error
	t := c.TargetDims()
	auto := t == (models.Dims{})
	if !auto && t.IsZero() {
		errs = append(errs, fmt.Errorf("target %s must be positive on every axis, or all zero for auto", t))
	}
	if c.Processing.LoadWorkers < 0 {
		errs = append(errs, fmt.Errorf("loadWorkers must not be negative, got %d", c.Processing.LoadWorkers))
	}
	if c.Processing.Threshold < 0 || c.Processing.Threshold > 255 {
		errs = append(errs, fmt.Errorf("threshold must be in [0, 255], got %d", c.Processing.Threshold))
	}
	if c.Output.IsoLevel <= 0 || c.Output.IsoLevel > 1 {
		errs = append(errs, fmt.Errorf("isoLevel must be in (0, 1], got %g", c.Output.IsoLevel))
	}
	if c.Progress.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("pollInterval must be positive, got %s", c.Progress.PollInterval))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

// Package config provides configuration loading and management for shapeio.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Image parameters control the image read/write adapters
	Image struct {
		// Interpolation selects the resampling kernel for writes:
		// "auto", "nearest" or "linear"
		Interpolation string `yaml:"interpolation"`

		// TargetSpacing resamples written images to this spacing when any
		// component is positive; zero keeps the source spacing
		TargetSpacing [3]float64 `yaml:"targetSpacing"`
	} `yaml:"image"`

	// Nifti parameters control how Nifti headers are interpreted
	Nifti struct {
		// FavourQform prefers the qform transform over the sform when a
		// header carries both
		FavourQform bool `yaml:"favourQform"`
	} `yaml:"nifti"`

	// Mesh parameters control the decimation adapter
	Mesh struct {
		// TargetVertexCount is the requested vertex count for decimation
		TargetVertexCount int `yaml:"targetVertexCount"`
	} `yaml:"mesh"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Image.Interpolation = "auto"
	cfg.Nifti.FavourQform = false
	cfg.Mesh.TargetVertexCount = 1000
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

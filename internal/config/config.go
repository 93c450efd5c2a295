// Package config loads optional reaper defaults from a YAML file. Explicit
// command-line flags always override file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File holds the recognized defaults.
type File struct {
	Label         string `yaml:"label"`
	NewSession    bool   `yaml:"newSession"`
	Respawn       bool   `yaml:"respawn"`
	MetricsListen string `yaml:"metricsListen"`
}

// Load reads a defaults file from the provided path. Unknown keys are a
// configuration error, not silently dropped.
func Load(path string) (*File, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	var doc File
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}
	return &doc, nil
}

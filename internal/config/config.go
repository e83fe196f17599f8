// Package config loads the engine's runtime tuning knobs from a YAML file,
// sharing the same decoder family persister.go uses for snapshots rather
// than pulling in a second configuration library.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RuntimeConfig holds the tuning knobs that are not structural state-tree
// data: observer queue sizing, default timing for leaves that poll rather
// than block, and how much in-memory history to retain.
type RuntimeConfig struct {
	ObserverQueueCapacity int           `yaml:"observerQueueCapacity"`
	DefaultTickInterval   time.Duration `yaml:"defaultTickInterval"`
	DefaultBackoff        time.Duration `yaml:"defaultBackoff"`
	JoinQueueCapacity     int           `yaml:"joinQueueCapacity"`
	HistoryBufferSize     int           `yaml:"historyBufferSize"`
}

// Default returns the configuration used when no config file is given.
func Default() RuntimeConfig {
	return RuntimeConfig{
		ObserverQueueCapacity: 64,
		DefaultTickInterval:   100 * time.Millisecond,
		DefaultBackoff:        500 * time.Millisecond,
		JoinQueueCapacity:     32,
		HistoryBufferSize:     1000,
	}
}

// Load reads a RuntimeConfig from path, merging it over Default() so a
// config file only needs to mention the fields it overrides. An empty path
// or a missing file both return Default() unchanged.
func Load(path string) (RuntimeConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

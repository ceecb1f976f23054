package config

import (
	"fmt"

	"github.com/kilianp07/battery-health/core/factory"
	"github.com/kilianp07/battery-health/core/prediction"
)

// ModelConfig selects where the health model is persisted and how it is
// trained when no artifact exists.
type ModelConfig struct {
	// Store is the artifact backend: "file" or "sqlite".
	Store string `json:"store"`
	// Path is the artifact file or the SQLite database.
	Path string `json:"path"`
	// Name keys the artifact inside a SQLite database.
	Name         string  `json:"name"`
	Samples      int     `json:"samples"`
	Trees        int     `json:"trees"`
	Seed         uint64  `json:"seed"`
	TestFraction float64 `json:"test_fraction"`
	MaxDepth     int     `json:"max_depth"`
	Workers      int     `json:"workers"`
}

func (c *ModelConfig) SetDefaults() {
	if c.Store == "" {
		c.Store = "file"
	}
	if c.Path == "" {
		c.Path = "battery_health_model.bhm"
	}
	if c.Samples == 0 {
		c.Samples = prediction.DefaultSamples
	}
	if c.Trees == 0 {
		c.Trees = prediction.DefaultTrees
	}
	if c.Seed == 0 {
		c.Seed = prediction.DefaultSeed
	}
	if c.TestFraction == 0 {
		c.TestFraction = prediction.DefaultTestFraction
	}
}

func (c ModelConfig) Validate() error {
	if c.Store != "file" && c.Store != "sqlite" {
		return fmt.Errorf("unknown store %s", c.Store)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.Samples < 2 {
		return fmt.Errorf("samples must be at least 2")
	}
	if c.Trees < 1 {
		return fmt.Errorf("trees must be positive")
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test_fraction must be in (0,1)")
	}
	return nil
}

// StoreConfig describes the artifact store for prediction.NewStore.
func (c ModelConfig) StoreConfig() factory.ModuleConfig {
	conf := map[string]any{"path": c.Path}
	if c.Name != "" {
		conf["name"] = c.Name
	}
	return factory.ModuleConfig{Type: c.Store, Conf: conf}
}

// TrainConfig converts the section into training parameters.
func (c ModelConfig) TrainConfig() prediction.TrainConfig {
	tc := prediction.DefaultTrainConfig()
	tc.Samples = c.Samples
	tc.Seed = c.Seed
	tc.TestFraction = c.TestFraction
	tc.Forest.Trees = c.Trees
	tc.Forest.Seed = c.Seed
	tc.Forest.Workers = c.Workers
	tc.Forest.Tree.MaxDepth = c.MaxDepth
	return tc
}

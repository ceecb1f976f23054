package config

import (
	"fmt"
	"time"
)

// SimulatorConfig controls telemetry generation.
type SimulatorConfig struct {
	RefreshInterval time.Duration `json:"refresh_interval"`
	HistoryCapacity int           `json:"history_capacity"`
	// Seed makes the readings reproducible. Zero seeds from the clock.
	Seed uint64 `json:"seed"`
}

func (c *SimulatorConfig) SetDefaults() {
	if c.RefreshInterval == 0 {
		c.RefreshInterval = 2 * time.Second
	}
	if c.HistoryCapacity == 0 {
		c.HistoryCapacity = 1000
	}
}

func (c SimulatorConfig) Validate() error {
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh_interval must be positive")
	}
	if c.HistoryCapacity < 0 {
		return fmt.Errorf("history_capacity must be positive")
	}
	return nil
}

package config

import (
	"fmt"
	"time"
)

// HTTPConfig defines the query service listener.
type HTTPConfig struct {
	Address         string        `json:"address"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	// HistoryLimit is the number of readings plotted by the dashboard and the
	// default page size of /api/history.
	HistoryLimit int `json:"history_limit"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":5000"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 100
	}
}

func (c HTTPConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative")
	}
	return nil
}

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/battery-health/core/metrics"
	"github.com/kilianp07/battery-health/infra/mqtt"
)

type Config struct {
	HTTP      HTTPConfig      `json:"http"`
	Simulator SimulatorConfig `json:"simulator"`
	Model     ModelConfig     `json:"model"`
	Metrics   metrics.Config  `json:"metrics"`
	MQTT      mqtt.Config     `json:"mqtt"`
	Logging   LoggingConfig   `json:"logging"`
	Sentry    SentryConfig    `json:"sentry"`
}

// Load reads the configuration file at path, applies K_ prefixed environment
// overrides (K_HTTP__ADDRESS sets http.address) and fills in defaults. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or override is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills unset fields of every section.
func (c *Config) SetDefaults() {
	c.HTTP.SetDefaults()
	c.Simulator.SetDefaults()
	c.Model.SetDefaults()
	c.MQTT.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.Simulator.Validate(); err != nil {
		return fmt.Errorf("simulator: %w", err)
	}
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

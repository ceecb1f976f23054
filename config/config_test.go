package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `http:
  address: ":8080"
  history_limit: 50
simulator:
  refresh_interval: 500ms
  seed: 7
model:
  store: sqlite
  path: models.db
  name: car-1
  trees: 20
metrics:
  sinks:
    - type: "nop"
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  topic: "cars/1/telemetry"
logging:
  level: debug
sentry:
  dsn: "https://key@sentry.example/1"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"http.address", cfg.HTTP.Address, ":8080"},
		{"http.history_limit", cfg.HTTP.HistoryLimit, 50},
		{"http.read_timeout", cfg.HTTP.ReadTimeout, 5 * time.Second},
		{"simulator.refresh_interval", cfg.Simulator.RefreshInterval, 500 * time.Millisecond},
		{"simulator.seed", cfg.Simulator.Seed, uint64(7)},
		{"simulator.history_capacity", cfg.Simulator.HistoryCapacity, 1000},
		{"model.store", cfg.Model.Store, "sqlite"},
		{"model.path", cfg.Model.Path, "models.db"},
		{"model.trees", cfg.Model.Trees, 20},
		{"model.samples", cfg.Model.Samples, 10000},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.topic", cfg.MQTT.Topic, "cars/1/telemetry"},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"sentry.enabled", cfg.Sentry.Enabled(), true},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}

	sc := cfg.Model.StoreConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "car-1", sc.Conf["name"])
	tc := cfg.Model.TrainConfig()
	assert.Equal(t, 20, tc.Forest.Trees)
	assert.Equal(t, uint64(42), tc.Forest.Seed)
	assert.True(t, tc.Forest.Bootstrap)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"http":{"address":"127.0.0.1:9000"}}`), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Address)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":5000", cfg.HTTP.Address)
	assert.Equal(t, 2*time.Second, cfg.Simulator.RefreshInterval)
	assert.Equal(t, "file", cfg.Model.Store)
	assert.Equal(t, "battery_health_model.bhm", cfg.Model.Path)
	assert.Equal(t, 0.2, cfg.Model.TestFraction)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Sentry.Enabled())
	assert.False(t, cfg.MQTT.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("K_HTTP__ADDRESS", ":7000")
	t.Setenv("K_SIMULATOR__REFRESH_INTERVAL", "1s")
	t.Setenv("K_MODEL__TREES", "12")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Address)
	assert.Equal(t, time.Second, cfg.Simulator.RefreshInterval)
	assert.Equal(t, 12, cfg.Model.Trees)
}

func TestLoadEnvMergesWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  address: \":9100\"\nmodel:\n  trees: 20\n  samples: 300\n"), 0o644))
	t.Setenv("K_MODEL__TREES", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.HTTP.Address)
	assert.Equal(t, 8, cfg.Model.Trees)
	assert.Equal(t, 300, cfg.Model.Samples)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "config.toml"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("model:\n  store: s3\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "model")

	lvl := filepath.Join(dir, "lvl.yaml")
	require.NoError(t, os.WriteFile(lvl, []byte("logging:\n  level: loud\n"), 0o644))
	_, err = Load(lvl)
	assert.ErrorContains(t, err, "logging")
}

func TestModelConfigValidate(t *testing.T) {
	var c ModelConfig
	c.SetDefaults()
	require.NoError(t, c.Validate())

	c.TestFraction = 1
	assert.Error(t, c.Validate())
}

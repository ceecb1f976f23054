package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkConf struct {
	URL      string        `json:"url"`
	Retries  int           `json:"retries"`
	Interval time.Duration `json:"interval"`
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*sinkConf]()
	require.NoError(t, reg.Register("influx", func(conf map[string]any) (*sinkConf, error) {
		var c sinkConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &c, nil
	}))
	got, err := reg.Create(ModuleConfig{Type: "influx", Conf: map[string]any{
		"url":      "http://localhost:8086",
		"retries":  "3",
		"interval": "250ms",
	}})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8086", got.URL)
	assert.Equal(t, 3, got.Retries)
	assert.Equal(t, 250*time.Millisecond, got.Interval)
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("file", func(map[string]any) (int, error) { return 1, nil }))
	require.NoError(t, reg.Register("sqlite", func(map[string]any) (int, error) { return 2, nil }))

	assert.Error(t, reg.Register("file", func(map[string]any) (int, error) { return 3, nil }))
	assert.Error(t, reg.Register("nil", nil))

	_, err := reg.Create(ModuleConfig{Type: "s3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file, sqlite")
	assert.Equal(t, []string{"file", "sqlite"}, reg.Types())
}

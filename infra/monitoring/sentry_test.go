package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/battery-health/config"
	coremon "github.com/kilianp07/battery-health/core/monitoring"
)

func TestNewSentryMonitorDisabled(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestNewSentryMonitorInvalidDSN(t *testing.T) {
	_, err := NewSentryMonitor(config.SentryConfig{DSN: "not a dsn"})
	assert.Error(t, err)
}

func TestSentryMonitorCapture(t *testing.T) {
	// A syntactically valid DSN; nothing is sent within the test.
	m, err := NewSentryMonitor(config.SentryConfig{DSN: "https://public@sentry.invalid/1", Environment: "test"})
	require.NoError(t, err)
	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("boom"), map[string]string{"module": "test"})
	m.CapturePanic("oops", nil)
	m.Flush(10 * time.Millisecond)
}

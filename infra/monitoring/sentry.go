package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/battery-health/config"
	coremon "github.com/kilianp07/battery-health/core/monitoring"
)

// NewSentryMonitor initializes Sentry using the provided configuration and
// returns a Monitor implementation. A configuration without DSN yields a
// NopMonitor.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if !cfg.Enabled() {
		return coremon.NopMonitor{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
	})
	if err != nil {
		return nil, err
	}
	return &sentryMonitor{hub: sentry.CurrentHub()}, nil
}

type sentryMonitor struct {
	hub *sentry.Hub
}

func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.withTags(tags, func(h *sentry.Hub) { h.CaptureException(err) })
}

func (s *sentryMonitor) CapturePanic(v any, tags map[string]string) {
	if v == nil {
		return
	}
	s.withTags(tags, func(h *sentry.Hub) { h.Recover(v) })
}

func (s *sentryMonitor) withTags(tags map[string]string, fn func(*sentry.Hub)) {
	if len(tags) == 0 {
		fn(s.hub)
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		fn(s.hub)
	})
}

func (s *sentryMonitor) Flush(timeout time.Duration) { s.hub.Flush(timeout) }

package config

// SentryConfig defines settings for Sentry error monitoring. Monitoring is
// disabled when DSN is empty.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// Enabled reports whether a DSN is configured.
func (c SentryConfig) Enabled() bool { return c.DSN != "" }

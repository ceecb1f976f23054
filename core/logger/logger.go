// Package logger defines the logging interface shared by the core packages.
// Implementations live in infra/logger.
package logger

// Logger is a leveled logger. Debugw attaches structured fields, which is how
// per-reading details are logged without formatting cost when debug is off.
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

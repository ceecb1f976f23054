// Package telemetry runs the periodic refresh of simulated readings and
// answers battery status queries from the most recent one.
package telemetry

import (
	"sync/atomic"

	"github.com/kilianp07/battery-health/core/model"
)

// Latest holds the most recent reading. One goroutine stores, any number
// load; a load observes either the previous or the new reading, never a mix.
type Latest struct {
	p atomic.Pointer[model.Reading]
}

// Store publishes r.
func (l *Latest) Store(r model.Reading) { l.p.Store(&r) }

// Load returns the last stored reading and false if none was stored yet.
func (l *Latest) Load() (model.Reading, bool) {
	r := l.p.Load()
	if r == nil {
		return model.Reading{}, false
	}
	return *r, true
}

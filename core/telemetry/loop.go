package telemetry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kilianp07/battery-health/core/logger"
	"github.com/kilianp07/battery-health/core/model"
	"github.com/kilianp07/battery-health/core/monitoring"
	"github.com/kilianp07/battery-health/internal/eventbus"
)

// DefaultPeriod is the interval between two readings.
const DefaultPeriod = 2 * time.Second

// ErrAlreadyStarted is returned when Run is called twice.
var ErrAlreadyStarted = errors.New("refresh loop already started")

// Generator produces telemetry readings.
type Generator interface {
	Generate() model.Reading
}

// Loop periodically draws a reading from a Generator and publishes it to a
// Latest cell and, optionally, a reading bus.
type Loop struct {
	gen    Generator
	latest *Latest
	bus    *eventbus.TypedBus[model.Reading]
	period time.Duration
	log    logger.Logger
	mon    monitoring.Monitor

	started  atomic.Bool
	ticks    atomic.Uint64
	panics   atomic.Uint64
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithBus publishes every reading on bus.
func WithBus(bus *eventbus.TypedBus[model.Reading]) LoopOption {
	return func(l *Loop) { l.bus = bus }
}

// WithMonitor reports recovered panics to m instead of the global monitor.
func WithMonitor(m monitoring.Monitor) LoopOption {
	return func(l *Loop) { l.mon = m }
}

// NewLoop returns a loop refreshing latest from gen every period. A
// non-positive period uses DefaultPeriod.
func NewLoop(gen Generator, latest *Latest, period time.Duration, log logger.Logger, opts ...LoopOption) *Loop {
	if period <= 0 {
		period = DefaultPeriod
	}
	l := &Loop{
		gen:    gen,
		latest: latest,
		period: period,
		log:    log,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Prime stores one reading immediately so queries never wait a full period
// after startup.
func (l *Loop) Prime() {
	l.tick()
}

// Run refreshes the reading every period until ctx is cancelled or Stop is
// called. If no reading was stored yet, the cell is primed first. A panic
// while producing a reading is recovered and reported; the loop keeps going.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer close(l.done)
	if _, ok := l.latest.Load(); !ok {
		l.tick()
	}
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()
	l.log.Infof("refresh loop started, period %s", l.period)
	for {
		select {
		case <-ticker.C:
			l.tick()
		case <-l.stop:
			l.log.Infof("refresh loop stopped after %d ticks", l.ticks.Load())
			return nil
		case <-ctx.Done():
			l.log.Infof("refresh loop stopped after %d ticks", l.ticks.Load())
			return nil
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Ticks returns the number of readings published.
func (l *Loop) Ticks() uint64 { return l.ticks.Load() }

// Panics returns the number of recovered panics.
func (l *Loop) Panics() uint64 { return l.panics.Load() }

func (l *Loop) tick() {
	defer func() {
		if v := recover(); v != nil {
			l.panics.Add(1)
			l.log.Errorf("refresh tick: %v", monitoring.PanicError(v))
			tags := map[string]string{"module": "telemetry"}
			if l.mon != nil {
				l.mon.CapturePanic(v, tags)
			} else {
				monitoring.CapturePanic(v, tags)
			}
		}
	}()
	r := l.gen.Generate()
	l.latest.Store(r)
	l.ticks.Add(1)
	if l.bus != nil {
		l.bus.Publish(r)
	}
	l.log.Debugw("reading generated", map[string]any{
		"temperature": r.Temperature,
		"dod":         r.DoD,
		"health":      r.Health,
	})
}

package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/battery-health/core/metrics"
	"github.com/kilianp07/battery-health/core/model"
	"github.com/kilianp07/battery-health/infra/logger"
	"github.com/kilianp07/battery-health/internal/eventbus"
)

// StartReadingCollector subscribes to the reading bus and records every
// reading on sink. It stops when the context is canceled or the bus closes.
// The returned channel is closed once the collector has exited.
func StartReadingCollector(ctx context.Context, bus *eventbus.TypedBus[model.Reading], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-sub:
				if !ok {
					return
				}
				if err := sink.RecordReading(r); err != nil {
					log.Warnf("record reading: %v", err)
				}
			}
		}
	}()
	return done
}

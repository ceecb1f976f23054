package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/battery-health/core/model"
	"github.com/kilianp07/battery-health/infra/logger"
	"github.com/kilianp07/battery-health/internal/eventbus"
)

type countingSink struct {
	mu sync.Mutex
	n  int
}

func (c *countingSink) RecordReading(model.Reading) error {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return nil
}

func (c *countingSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestStartReadingCollector(t *testing.T) {
	bus := eventbus.NewTyped[model.Reading]()
	sink := &countingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := StartReadingCollector(ctx, bus, sink, logger.NopLogger{})
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, time.Millisecond)
	bus.Publish(model.Reading{Health: 100})
	bus.Publish(model.Reading{Health: 99.9})
	assert.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
	assert.Equal(t, 0, bus.Subscribers())
}

func TestStartReadingCollectorBusClosed(t *testing.T) {
	bus := eventbus.NewTyped[model.Reading]()
	done := StartReadingCollector(context.Background(), bus, &countingSink{}, logger.NopLogger{})
	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestStartReadingCollectorNil(t *testing.T) {
	done := StartReadingCollector(context.Background(), nil, &countingSink{}, logger.NopLogger{})
	_, open := <-done
	assert.False(t, open)
}

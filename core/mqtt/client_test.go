package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/battery-health/core/model"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

type recordPublisher struct {
	mu   sync.Mutex
	got  []model.Reading
	fail bool
}

func (p *recordPublisher) PublishReading(r model.Reading) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, r)
	if p.fail {
		return "", ErrNotConnected
	}
	return "id", nil
}

func TestForwardUntilClosed(t *testing.T) {
	ch := make(chan model.Reading, 3)
	ch <- model.Reading{Health: 99}
	ch <- model.Reading{Health: 98}
	close(ch)
	p := &recordPublisher{}
	Forward(context.Background(), ch, p, nopLogger{})
	assert.Len(t, p.got, 2)
}

func TestForwardContinuesOnError(t *testing.T) {
	ch := make(chan model.Reading, 2)
	ch <- model.Reading{}
	ch <- model.Reading{}
	close(ch)
	p := &recordPublisher{fail: true}
	Forward(context.Background(), ch, p, nopLogger{})
	assert.Len(t, p.got, 2)
}

func TestForwardStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Forward(ctx, make(chan model.Reading), &recordPublisher{}, nopLogger{})
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal(errors.New("forward did not stop"))
	}
}

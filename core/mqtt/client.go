package mqtt

import (
	"context"

	"github.com/kilianp07/battery-health/core/logger"
	"github.com/kilianp07/battery-health/core/model"
)

// Publisher mirrors telemetry readings to a message broker.
type Publisher interface {
	// PublishReading sends r and returns the message identifier.
	PublishReading(r model.Reading) (messageID string, err error)
}

// Forward publishes every reading received on ch until ch is closed or ctx
// is done. Publication failures are logged and do not stop forwarding.
func Forward(ctx context.Context, ch <-chan model.Reading, p Publisher, log logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-ch:
			if !ok {
				return
			}
			id, err := p.PublishReading(r)
			if err != nil {
				log.Errorf("publish reading: %v", err)
				continue
			}
			log.Debugw("reading published", map[string]any{"message_id": id, "health": r.Health})
		}
	}
}

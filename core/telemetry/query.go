package telemetry

import (
	"time"

	"github.com/kilianp07/battery-health/core/logger"
	coremetrics "github.com/kilianp07/battery-health/core/metrics"
	"github.com/kilianp07/battery-health/core/model"
	"github.com/kilianp07/battery-health/core/prediction"
)

// HistorySource returns up to n recent readings, oldest first.
type HistorySource interface {
	Recent(n int) []model.Reading
}

// QueryService answers battery status queries from the latest reading and
// the health predictor.
type QueryService struct {
	latest  *Latest
	engine  prediction.Engine
	history HistorySource
	sink    coremetrics.PredictionRecorder
	log     logger.Logger
	now     func() time.Time
}

// NewQueryService builds a QueryService. history and sink may be nil.
func NewQueryService(latest *Latest, engine prediction.Engine, history HistorySource, sink coremetrics.PredictionRecorder, log logger.Logger) *QueryService {
	return &QueryService{latest: latest, engine: engine, history: history, sink: sink, log: log, now: time.Now}
}

// Current merges the latest reading with a prediction for its features. The
// predicted health replaces the simulated one. It returns false until the
// first reading is available.
func (q *QueryService) Current() (model.BatteryStatus, bool) {
	r, ok := q.latest.Load()
	if !ok {
		return model.BatteryStatus{}, false
	}
	f := r.Features()
	p := q.engine.Predict(f)
	if q.sink != nil {
		if err := q.sink.RecordPrediction(coremetrics.PredictionEvent{Features: f, Prediction: p, Time: q.now()}); err != nil {
			q.log.Warnf("record prediction: %v", err)
		}
	}
	return model.NewBatteryStatus(r, p), true
}

// History returns up to n recent readings, oldest first.
func (q *QueryService) History(n int) []model.Reading {
	if q.history == nil || n <= 0 {
		return []model.Reading{}
	}
	return q.history.Recent(n)
}

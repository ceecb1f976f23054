package metrics

import (
	"time"

	"github.com/kilianp07/battery-health/core/model"
)

// MetricsSink records telemetry readings for observability purposes.
type MetricsSink interface {
	RecordReading(r model.Reading) error
}

// PredictionEvent is one answered health query.
type PredictionEvent struct {
	Features   model.Features
	Prediction model.Prediction
	Time       time.Time
}

// PredictionRecorder records served predictions.
type PredictionRecorder interface {
	RecordPrediction(ev PredictionEvent) error
}

// TrainingEvent summarises a model training run.
type TrainingEvent struct {
	Samples  int
	Trees    int
	Nodes    int
	TrainR2  float64
	TestR2   float64
	Duration time.Duration
	Time     time.Time
}

// TrainingRecorder records model training runs.
type TrainingRecorder interface {
	RecordTraining(ev TrainingEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordReading(model.Reading) error       { return nil }
func (NopSink) RecordPrediction(PredictionEvent) error { return nil }
func (NopSink) RecordTraining(TrainingEvent) error     { return nil }

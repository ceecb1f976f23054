package metrics

import (
	"errors"

	"github.com/kilianp07/battery-health/core/model"
)

// MultiSink fans out records to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordReading forwards the reading to all sinks. Every sink is called;
// the errors are joined.
func (m *MultiSink) RecordReading(r model.Reading) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordReading(r))
	}
	return errors.Join(errs...)
}

// RecordPrediction forwards prediction events to the sinks supporting them.
func (m *MultiSink) RecordPrediction(ev PredictionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(PredictionRecorder); ok {
			errs = append(errs, rec.RecordPrediction(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordTraining forwards training events to the sinks supporting them.
func (m *MultiSink) RecordTraining(ev TrainingEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TrainingRecorder); ok {
			errs = append(errs, rec.RecordTraining(ev))
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks holding resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}

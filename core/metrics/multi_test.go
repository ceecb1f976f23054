package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/battery-health/core/model"
)

type recordSink struct {
	readings int
	err      error
}

func (r *recordSink) RecordReading(model.Reading) error {
	r.readings++
	return r.err
}

type fullSink struct {
	recordSink
	predictions int
	trainings   int
}

func (f *fullSink) RecordPrediction(PredictionEvent) error {
	f.predictions++
	return nil
}

func (f *fullSink) RecordTraining(TrainingEvent) error {
	f.trainings++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &fullSink{}
	m := NewMultiSink(s1, s2)

	assert.NoError(t, m.RecordReading(model.Reading{}))
	assert.NoError(t, m.RecordPrediction(PredictionEvent{}))
	assert.NoError(t, m.RecordTraining(TrainingEvent{}))

	assert.Equal(t, 1, s1.readings)
	assert.Equal(t, 1, s2.readings)
	assert.Equal(t, 1, s2.predictions)
	assert.Equal(t, 1, s2.trainings)
}

func TestMultiSinkCallsEverySinkOnError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	err := NewMultiSink(s1, s2).RecordReading(model.Reading{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s2.readings)
}

func TestNopSinkImplementsRecorders(t *testing.T) {
	var s MetricsSink = NopSink{}
	_, ok := s.(PredictionRecorder)
	assert.True(t, ok)
	_, ok = s.(TrainingRecorder)
	assert.True(t, ok)
}

type closingSink struct {
	recordSink
	closed bool
}

func (c *closingSink) Close() { c.closed = true }

func TestMultiSinkCloseClosesResources(t *testing.T) {
	c := &closingSink{}
	NewMultiSink(&recordSink{}, c).Close()
	assert.True(t, c.closed)
}

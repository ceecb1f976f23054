package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/battery-health/core/metrics"
	"github.com/kilianp07/battery-health/core/model"
)

// PromSink exposes the latest reading, prediction and training run as
// Prometheus gauges.
type PromSink struct {
	readings    prometheus.Counter
	telemetry   *prometheus.GaugeVec
	predictions prometheus.Counter
	health      prometheus.Gauge
	distance    prometheus.Gauge
	r2          *prometheus.GaugeVec
	trainTime   prometheus.Gauge
	nodes       prometheus.Gauge
}

// NewPromSink registers battery metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		readings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "battery_readings_total",
			Help: "Number of simulated telemetry readings",
		}),
		telemetry: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "battery_telemetry",
			Help: "Latest simulated telemetry value by field",
		}, []string{"field"}),
		predictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "battery_predictions_total",
			Help: "Number of health predictions served",
		}),
		health: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "battery_predicted_health_percent",
			Help: "Last predicted battery health",
		}),
		distance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "battery_predicted_remaining_distance_km",
			Help: "Last predicted remaining distance",
		}),
		r2: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "battery_model_r2",
			Help: "Coefficient of determination of the health model",
		}, []string{"set"}),
		trainTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "battery_model_training_seconds",
			Help: "Duration of the last model training",
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "battery_model_nodes",
			Help: "Total number of tree nodes in the health model",
		}),
	}
	var err error
	if s.readings, err = register(reg, s.readings); err != nil {
		return nil, err
	}
	if s.telemetry, err = register(reg, s.telemetry); err != nil {
		return nil, err
	}
	if s.predictions, err = register(reg, s.predictions); err != nil {
		return nil, err
	}
	if s.health, err = register(reg, s.health); err != nil {
		return nil, err
	}
	if s.distance, err = register(reg, s.distance); err != nil {
		return nil, err
	}
	if s.r2, err = register(reg, s.r2); err != nil {
		return nil, err
	}
	if s.trainTime, err = register(reg, s.trainTime); err != nil {
		return nil, err
	}
	if s.nodes, err = register(reg, s.nodes); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordReading increments the reading counter and updates the telemetry
// gauges.
func (s *PromSink) RecordReading(r model.Reading) error {
	s.readings.Inc()
	for field, v := range readingFields(r) {
		s.telemetry.WithLabelValues(field).Set(v)
	}
	return nil
}

// RecordPrediction updates the prediction gauges.
func (s *PromSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	s.predictions.Inc()
	s.health.Set(ev.Prediction.Health)
	s.distance.Set(ev.Prediction.RemainingDistance)
	return nil
}

// RecordTraining exposes the quality of the last training run.
func (s *PromSink) RecordTraining(ev coremetrics.TrainingEvent) error {
	s.r2.WithLabelValues("train").Set(ev.TrainR2)
	s.r2.WithLabelValues("test").Set(ev.TestR2)
	s.trainTime.Set(ev.Duration.Seconds())
	s.nodes.Set(float64(ev.Nodes))
	return nil
}

func readingFields(r model.Reading) map[string]float64 {
	return map[string]float64{
		"temperature":       r.Temperature,
		"dod":               float64(r.DoD),
		"c_rate":            r.CRate,
		"inclination":       float64(r.Inclination),
		"load":              float64(r.Load),
		"jerk":              r.Jerk,
		"power_consumption": r.PowerConsumption,
		"health":            r.Health,
		"voltage":           r.Voltage,
		"current":           r.Current,
	}
}

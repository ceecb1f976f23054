package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/battery-health/core/metrics"
	"github.com/kilianp07/battery-health/core/model"
	"github.com/kilianp07/battery-health/infra/logger"
)

// InfluxSink writes readings, predictions and training runs to an InfluxDB
// instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordReading writes the reading as a battery_reading point.
func (s *InfluxSink) RecordReading(r model.Reading) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("battery_reading").
		AddTag("component", "simulator").
		AddField("temperature", r.Temperature).
		AddField("dod", r.DoD).
		AddField("c_rate", r.CRate).
		AddField("inclination", r.Inclination).
		AddField("load", r.Load).
		AddField("jerk", r.Jerk).
		AddField("power_consumption", round3(r.PowerConsumption)).
		AddField("health", r.Health).
		AddField("voltage", r.Voltage).
		AddField("current", r.Current).
		SetTime(r.Timestamp)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPrediction writes a served prediction.
func (s *InfluxSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("battery_prediction").
		AddTag("component", "predictor").
		AddField("health", ev.Prediction.Health).
		AddField("remaining_distance", ev.Prediction.RemainingDistance).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTraining writes the result of a training run.
func (s *InfluxSink) RecordTraining(ev coremetrics.TrainingEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("model_training").
		AddTag("component", "predictor").
		AddField("samples", ev.Samples).
		AddField("trees", ev.Trees).
		AddField("nodes", ev.Nodes).
		AddField("train_r2", round3(ev.TrainR2)).
		AddField("test_r2", round3(ev.TestR2)).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

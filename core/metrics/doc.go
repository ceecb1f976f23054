// Package metrics defines the sinks that observe the battery service.
// Every sink records telemetry readings; sinks may additionally implement
// PredictionRecorder and TrainingRecorder. Sinks are built by type name from
// configuration and combined with NewMultiSink when several are configured.
package metrics

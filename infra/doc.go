// Package infra contains technical adapters: model artifact stores, the
// MQTT telemetry mirror, metrics sinks, logging and error monitoring. These
// packages should depend only on the interfaces defined in the core
// packages.
package infra

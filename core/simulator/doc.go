// Package simulator generates synthetic battery telemetry. Each call to
// Generate draws a new set of operating conditions, applies the resulting
// degradation to the cumulative battery health and stores the reading in a
// bounded history buffer.
package simulator

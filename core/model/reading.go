package model

import (
	"math"
	"time"
)

// Reading is one synthetic telemetry sample produced by the simulator.
type Reading struct {
	Timestamp        time.Time `json:"timestamp"`
	Temperature      float64   `json:"temperature"`       // °C
	DoD              int       `json:"dod"`               // depth of discharge %
	CRate            float64   `json:"c_rate"`            // charge/discharge rate
	Inclination      int       `json:"inclination"`       // degrees
	Load             int       `json:"load"`              // kg
	Jerk             float64   `json:"jerk"`              // m/s³
	PowerConsumption float64   `json:"power_consumption"` // kWh
	Health           float64   `json:"health"`            // cumulative health %
	Voltage          float64   `json:"voltage"`           // V
	Current          float64   `json:"current"`           // A
}

// Features returns the six operating parameters of the reading.
func (r Reading) Features() Features {
	return Features{
		Temperature: r.Temperature,
		DoD:         float64(r.DoD),
		CRate:       r.CRate,
		Inclination: float64(r.Inclination),
		Load:        float64(r.Load),
		Jerk:        r.Jerk,
	}
}

// NumFeatures is the width of a feature vector.
const NumFeatures = 6

// FeatureNames lists the feature columns in vector order.
var FeatureNames = [NumFeatures]string{"temperature", "dod", "c_rate", "inclination", "load", "jerk"}

// Features are the operating parameters fed to the health predictor.
type Features struct {
	Temperature float64 `json:"temperature"`
	DoD         float64 `json:"dod"`
	CRate       float64 `json:"c_rate"`
	Inclination float64 `json:"inclination"`
	Load        float64 `json:"load"`
	Jerk        float64 `json:"jerk"`
}

// Vector returns the features in FeatureNames order.
func (f Features) Vector() []float64 {
	return []float64{f.Temperature, f.DoD, f.CRate, f.Inclination, f.Load, f.Jerk}
}

// Prediction is the estimated battery state for a set of features.
type Prediction struct {
	Health            float64 `json:"health"`             // %, in [0,100]
	RemainingDistance float64 `json:"remaining_distance"` // km, >= 0
}

// BatteryStatus is the reading served to clients. Its Health shadows the
// simulator value with the predicted one.
type BatteryStatus struct {
	Reading
	Health            float64 `json:"health"`
	RemainingDistance float64 `json:"remaining_distance"`
}

// NewBatteryStatus merges a reading with a prediction for it.
func NewBatteryStatus(r Reading, p Prediction) BatteryStatus {
	return BatteryStatus{Reading: r, Health: p.Health, RemainingDistance: p.RemainingDistance}
}

// Round1 rounds x to one decimal place, half away from zero.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Clamp bounds x to [lo,hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

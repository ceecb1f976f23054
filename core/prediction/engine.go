package prediction

import "github.com/kilianp07/battery-health/core/model"

// Engine maps operating parameters to a health and range estimate.
type Engine interface {
	Predict(f model.Features) model.Prediction
}

// StaticEngine returns a fixed prediction. It is used where a trained model
// is not needed, such as handler tests.
type StaticEngine struct {
	Result model.Prediction
	Calls  int
}

// Predict returns the configured result.
func (s *StaticEngine) Predict(model.Features) model.Prediction {
	s.Calls++
	return s.Result
}

package prediction

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/battery-health/core/logger"
	"github.com/kilianp07/battery-health/core/model"
)

// Predictor serves health and range estimates from a fitted forest.
type Predictor struct {
	forest *Forest
}

// NewPredictor wraps a fitted forest.
func NewPredictor(f *Forest) *Predictor { return &Predictor{forest: f} }

// Forest returns the underlying model.
func (p *Predictor) Forest() *Forest { return p.forest }

// Predict feeds the raw features to the forest. Inputs outside the training
// ranges are not rejected; outputs are clamped to health in [0,100] and a
// non-negative distance, both rounded to one decimal.
func (p *Predictor) Predict(f model.Features) model.Prediction {
	out := p.forest.Predict(f.Vector())
	return model.Prediction{
		Health:            model.Clamp(model.Round1(out[0]), 0, 100),
		RemainingDistance: math.Max(0, model.Round1(out[1])),
	}
}

// Load reads and decodes the artifact held by store. It returns
// ErrArtifactNotFound when the store is empty.
func Load(ctx context.Context, store Store) (*Forest, error) {
	b, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return DecodeForest(b)
}

// Save encodes f and writes it to store.
func Save(ctx context.Context, store Store, f *Forest) error {
	b, err := EncodeForest(f)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, b); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

// LoadOrTrain returns a predictor backed by the artifact in store, training
// and persisting a new forest only when none exists. The returned report is
// nil when the model was loaded. A corrupt artifact is an error, never a
// reason to retrain.
func LoadOrTrain(ctx context.Context, store Store, cfg TrainConfig, log logger.Logger) (*Predictor, *TrainingReport, error) {
	f, err := Load(ctx, store)
	switch {
	case err == nil:
		log.Infof("loaded model artifact: %d trees, %d nodes", len(f.Trees), f.Nodes())
		return NewPredictor(f), nil, nil
	case !errors.Is(err, ErrArtifactNotFound):
		return nil, nil, fmt.Errorf("load model: %w", err)
	}

	log.Infof("no model artifact found, training %d trees on %d samples", cfg.Forest.Trees, cfg.Samples)
	f, rep, err := Train(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("train model: %w", err)
	}
	log.Infof("model trained in %s. Train R²: %.3f, Test R²: %.3f", rep.Duration, rep.TrainR2, rep.TestR2)
	if err := Save(ctx, store, f); err != nil {
		return nil, nil, err
	}
	return NewPredictor(f), &rep, nil
}

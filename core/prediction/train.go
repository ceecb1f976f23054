package prediction

import (
	"context"
	"fmt"
	"time"
)

// Training defaults.
const (
	DefaultSeed         = 42
	DefaultSamples      = 10000
	DefaultTrees        = 100
	DefaultTestFraction = 0.2
)

// TrainConfig describes one training run.
type TrainConfig struct {
	Samples      int
	Seed         uint64
	TestFraction float64
	Forest       ForestConfig
}

// DefaultTrainConfig returns the configuration used by the service: 10 000
// samples, an 80/20 split and 100 bootstrapped trees, all seeded with 42.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Samples:      DefaultSamples,
		Seed:         DefaultSeed,
		TestFraction: DefaultTestFraction,
		Forest: ForestConfig{
			Trees:     DefaultTrees,
			Seed:      DefaultSeed,
			Bootstrap: true,
		},
	}
}

// TrainingReport summarises fit quality. Training never fails on quality;
// the report is informational.
type TrainingReport struct {
	Samples   int           `json:"samples"`
	TrainSize int           `json:"train_size"`
	TestSize  int           `json:"test_size"`
	Trees     int           `json:"trees"`
	Nodes     int           `json:"nodes"`
	TrainR2   float64       `json:"train_r2"`
	TestR2    float64       `json:"test_r2"`
	Duration  time.Duration `json:"duration"`
}

// Train synthesises a data set, splits it and fits a forest on the training
// part.
func Train(ctx context.Context, cfg TrainConfig) (*Forest, TrainingReport, error) {
	start := time.Now()
	if cfg.Samples <= 0 {
		return nil, TrainingReport{}, fmt.Errorf("samples must be positive, got %d", cfg.Samples)
	}
	if cfg.TestFraction < 0 || cfg.TestFraction >= 1 {
		return nil, TrainingReport{}, fmt.Errorf("test fraction must be in [0,1), got %v", cfg.TestFraction)
	}
	data := Synthesize(cfg.Samples, cfg.Seed)
	train, test := TrainTestSplit(data, cfg.TestFraction, cfg.Seed)
	forest, err := FitForest(ctx, train, cfg.Forest)
	if err != nil {
		return nil, TrainingReport{}, fmt.Errorf("fit forest: %w", err)
	}
	rep := TrainingReport{
		Samples:   data.Len(),
		TrainSize: train.Len(),
		TestSize:  test.Len(),
		Trees:     len(forest.Trees),
		Nodes:     forest.Nodes(),
		TrainR2:   forest.Score(train),
		TestR2:    forest.Score(test),
		Duration:  time.Since(start),
	}
	return forest, rep, nil
}

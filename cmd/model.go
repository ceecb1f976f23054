package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/battery-health/config"
	"github.com/kilianp07/battery-health/core/model"
	"github.com/kilianp07/battery-health/core/prediction"
	_ "github.com/kilianp07/battery-health/infra/artifact"
	"github.com/kilianp07/battery-health/infra/logger"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage the health prediction model",
}

var (
	forceTrain bool
	features   model.Features
)

var modelTrainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the model and save it to the configured store",
	RunE:  runModelTrain,
}

var modelPredictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict health and remaining distance for the given features",
	RunE:  runModelPredict,
}

func init() {
	modelTrainCmd.Flags().BoolVar(&forceTrain, "force", false, "replace an existing artifact")

	f := modelPredictCmd.Flags()
	f.Float64Var(&features.Temperature, "temperature", 25, "battery temperature in °C")
	f.Float64Var(&features.DoD, "dod", 50, "depth of discharge in %")
	f.Float64Var(&features.CRate, "c-rate", 1, "charge/discharge rate")
	f.Float64Var(&features.Inclination, "inclination", 0, "road inclination in degrees")
	f.Float64Var(&features.Load, "load", 200, "vehicle load in kg")
	f.Float64Var(&features.Jerk, "jerk", 0, "jerk in m/s³")

	modelCmd.AddCommand(modelTrainCmd, modelPredictCmd)
	rootCmd.AddCommand(modelCmd)
}

func openStore(cfg *config.Config) (prediction.Store, func(), error) {
	store, err := prediction.NewStore(cfg.Model.StoreConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("model store: %w", err)
	}
	closeFn := func() {
		if c, ok := store.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return store, closeFn, nil
}

func runModelTrain(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	var rep *prediction.TrainingReport
	if forceTrain {
		// Save replaces the artifact in place, so a failed run keeps the old one.
		f, r, err := prediction.Train(ctx, cfg.Model.TrainConfig())
		if err != nil {
			return fmt.Errorf("train model: %w", err)
		}
		if err := prediction.Save(ctx, store, f); err != nil {
			return err
		}
		rep = &r
	} else {
		_, rep, err = prediction.LoadOrTrain(ctx, store, cfg.Model.TrainConfig(), logger.New("prediction"))
		if err != nil {
			return err
		}
	}
	if rep == nil {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "model artifact already present, use --force to retrain")
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func runModelPredict(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	p, _, err := prediction.LoadOrTrain(cmd.Context(), store, cfg.Model.TrainConfig(), logger.New("prediction"))
	if err != nil {
		return err
	}
	return json.NewEncoder(cmd.OutOrStdout()).Encode(p.Predict(features))
}

package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ml-audit-platform/internal/adapters/secondary/artifactfs"
	"ml-audit-platform/internal/ml"
)

var (
	trainData      string
	trainOut       string
	trainTrees     int
	trainMaxDepth  int
	trainTestRatio float64
	trainSeed      int64
	trainVersion   string
	trainWorkers   int
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the survival classifier and write its artifacts",
	Long: `Reads the Titanic training CSV, imputes missing Age (median) and Embarked
(mode), fits a standard scaler and a random forest on a stratified split, and
writes the classifier, scaler, metadata and metrics files the server loads.

Example:
  mlctl train --data data/train.csv --out models --trees 100 --max-depth 10`,
	RunE: runTrain,
}

func init() {
	defaults := ml.DefaultForestConfig()
	trainCmd.Flags().StringVar(&trainData, "data", "data/train.csv", "Training CSV path")
	trainCmd.Flags().StringVar(&trainOut, "out", "", "Artifact directory (default: MODEL_DIR)")
	trainCmd.Flags().IntVar(&trainTrees, "trees", defaults.Trees, "Number of trees")
	trainCmd.Flags().IntVar(&trainMaxDepth, "max-depth", defaults.MaxDepth, "Maximum tree depth")
	trainCmd.Flags().Float64Var(&trainTestRatio, "test-ratio", 0.2, "Fraction of rows held out for evaluation")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", defaults.Seed, "Random seed for the split and the forest")
	trainCmd.Flags().StringVar(&trainVersion, "version", "1.0", "Model version recorded in the metadata")
	trainCmd.Flags().IntVar(&trainWorkers, "workers", 0, "Concurrent tree builders (default: GOMAXPROCS)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	outDir := trainOut
	if outDir == "" {
		outDir = cfg.Model.Dir
	}

	f, err := os.Open(trainData)
	if err != nil {
		return fmt.Errorf("open training data: %w", err)
	}
	defer f.Close()

	ds, err := ml.ReadTitanicCSV(f)
	if err != nil {
		return fmt.Errorf("read training data: %w", err)
	}
	counts := ds.ClassCounts()
	log.WithFields(log.Fields{
		"rows":     ds.Len(),
		"survived": counts[1],
		"died":     counts[0],
	}).Info("Dataset loaded")

	forest := ml.DefaultForestConfig()
	forest.Trees = trainTrees
	forest.MaxDepth = trainMaxDepth
	forest.Seed = trainSeed
	forest.Workers = trainWorkers

	result, err := ml.TrainTitanic(ctx, ds, ml.TrainingOptions{
		Forest:    forest,
		TestRatio: trainTestRatio,
		Version:   trainVersion,
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"train_size":     result.TrainSize,
		"test_size":      result.TestSize,
		"train_accuracy": result.Metrics.TrainAccuracy,
		"test_accuracy":  result.Metrics.TestAccuracy,
		"precision":      result.Metrics.Precision,
		"recall":         result.Metrics.Recall,
		"f1":             result.Metrics.F1,
	}).Info("Model trained")
	for _, imp := range result.Importances {
		log.WithFields(log.Fields{"feature": imp.Feature, "importance": imp.Importance}).Info("Feature importance")
	}

	files := ml.ArtifactFiles{
		Model:   cfg.Model.File,
		Scaler:  cfg.Model.ScalerFile,
		Info:    cfg.Model.InfoFile,
		Metrics: ml.DefaultArtifactFiles().Metrics,
	}
	written, err := ml.WriteArtifacts(outDir, files, result)
	if err != nil {
		return err
	}

	// Read the artifacts back through the same store the server uses.
	store := artifactfs.NewFileStore(outDir, files.Model, files.Scaler, files.Info)
	if _, err := ml.LoadBundle(ctx, store); err != nil {
		return fmt.Errorf("verify artifacts: %w", err)
	}

	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"ml-audit-platform/internal/core/domain"
)

type TrainingOptions struct {
	Forest    ForestConfig
	TestRatio float64
	Version   string
}

type TrainingResult struct {
	Forest      *RandomForest
	Scaler      *StandardScaler
	Metrics     domain.TrainingMetrics
	Importances []domain.FeatureImportance
	TrainSize   int
	TestSize    int
	Version     string
}

// TrainTitanic splits, scales, fits and scores a forest on a preprocessed dataset.
func TrainTitanic(ctx context.Context, ds *Dataset, opts TrainingOptions) (*TrainingResult, error) {
	if opts.Version == "" {
		opts.Version = "1.0"
	}
	train, test, err := StratifiedSplit(ds, opts.TestRatio, opts.Forest.Seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}

	scaler, err := FitScaler(train.Features)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	trainX, err := scaler.TransformAll(train.Features)
	if err != nil {
		return nil, err
	}
	testX, err := scaler.TransformAll(test.Features)
	if err != nil {
		return nil, err
	}

	forest, err := TrainForest(ctx, trainX, train.Labels, opts.Forest)
	if err != nil {
		return nil, fmt.Errorf("train forest: %w", err)
	}

	trainPred, err := PredictAll(forest, trainX)
	if err != nil {
		return nil, err
	}
	testPred, err := PredictAll(forest, testX)
	if err != nil {
		return nil, err
	}
	trainScores := Score(train.Labels, trainPred)
	testScores := Score(test.Labels, testPred)

	return &TrainingResult{
		Forest: forest,
		Scaler: scaler,
		Metrics: domain.TrainingMetrics{
			TrainAccuracy: trainScores.Accuracy,
			TestAccuracy:  testScores.Accuracy,
			Precision:     testScores.Precision,
			Recall:        testScores.Recall,
			F1:            testScores.F1,
		},
		Importances: rankImportances(forest.FeatureImportances()),
		TrainSize:   train.Len(),
		TestSize:    test.Len(),
		Version:     opts.Version,
	}, nil
}

// rankImportances pairs importances with feature names, highest first.
func rankImportances(values []float64) []domain.FeatureImportance {
	out := make([]domain.FeatureImportance, 0, len(values))
	for i, v := range values {
		if i >= len(domain.FeatureNames) {
			break
		}
		out = append(out, domain.FeatureImportance{Feature: domain.FeatureNames[i], Importance: v})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out
}

func (r *TrainingResult) ModelInfo() domain.ModelInfo {
	metrics := r.Metrics
	return domain.ModelInfo{
		ModelType: ModelTypeRandomForest,
		NFeatures: domain.FeatureCount,
		Features:  append([]string(nil), domain.FeatureNames...),
		Version:   r.Version,
		Metrics:   &metrics,
	}
}

// ArtifactFiles names the files WriteArtifacts produces.
type ArtifactFiles struct {
	Model   string
	Scaler  string
	Info    string
	Metrics string
}

func DefaultArtifactFiles() ArtifactFiles {
	return ArtifactFiles{
		Model:   "titanic_model.json",
		Scaler:  "titanic_scaler.json",
		Info:    "model_info.json",
		Metrics: "metrics.json",
	}
}

// WriteArtifacts writes the classifier, scaler, metadata and metrics into dir and
// returns the written paths.
func WriteArtifacts(dir string, files ArtifactFiles, r *TrainingResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}

	model, err := EncodeForest(r.Forest)
	if err != nil {
		return nil, fmt.Errorf("encode forest: %w", err)
	}

	docs := []struct {
		name string
		data func() ([]byte, error)
	}{
		{files.Model, func() ([]byte, error) { return model, nil }},
		{files.Scaler, func() ([]byte, error) { return json.MarshalIndent(r.Scaler, "", "  ") }},
		{files.Metrics, func() ([]byte, error) { return json.MarshalIndent(r.Metrics, "", "  ") }},
		{files.Info, func() ([]byte, error) { return json.MarshalIndent(r.ModelInfo(), "", "  ") }},
	}

	written := make([]string, 0, len(docs))
	for _, doc := range docs {
		data, err := doc.data()
		if err != nil {
			return written, fmt.Errorf("encode %s: %w", doc.name, err)
		}
		path := filepath.Join(dir, doc.name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

package ports

import "ml-audit-platform/internal/core/domain"

// Classifier is a fitted model that maps a feature vector to a class label.
type Classifier interface {
	// Type names the estimator, e.g. "RandomForestClassifier".
	Type() string

	// NumFeatures is the vector width the classifier was fitted on.
	NumFeatures() int

	Predict(features []float64) (int, error)

	// SupportsProbability reports whether PredictProbability is usable.
	SupportsProbability() bool

	// PredictProbability returns the class-1 probability.
	PredictProbability(features []float64) (float64, error)
}

// Scaler is a fitted feature transform applied before the classifier.
type Scaler interface {
	NumFeatures() int
	Transform(features []float64) ([]float64, error)
}

// ArtifactBundle is the decoded, read-only model state shared by all requests.
type ArtifactBundle struct {
	Classifier Classifier
	Scaler     Scaler // nil when no scaler artifact was shipped
	Info       domain.ModelInfo
	Origin     string
}

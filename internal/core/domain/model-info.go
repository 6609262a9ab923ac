package domain

// TrainingMetrics are the scores recorded by the training run.
type TrainingMetrics struct {
	TrainAccuracy float64 `json:"train_accuracy"`
	TestAccuracy  float64 `json:"test_accuracy"`
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	F1            float64 `json:"f1"`
}

// ModelInfo is the metadata document shipped next to the classifier.
type ModelInfo struct {
	ModelType string           `json:"model_type"`
	NFeatures int              `json:"n_features"`
	Features  []string         `json:"features"`
	Version   string           `json:"version"`
	Metrics   *TrainingMetrics `json:"metrics,omitempty"`
}

// FeatureImportance pairs a feature name with its mean impurity decrease.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

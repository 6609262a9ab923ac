package ml

import (
	"fmt"

	"ml-audit-platform/internal/core/domain"
)

const (
	ModelTypeRandomForest = "RandomForestClassifier"
	ModelTypeDecisionTree = "DecisionTreeClassifier"
)

var errProbabilityUnsupported = domain.ErrProbabilityUnsupported

// RandomForest averages the leaf class distributions of its trees.
type RandomForest struct {
	nFeatures   int
	classes     []int
	trees       []*DecisionTree
	importances []float64
}

func NewRandomForest(nFeatures int, classes []int, trees []*DecisionTree) *RandomForest {
	return &RandomForest{nFeatures: nFeatures, classes: classes, trees: trees}
}

func (f *RandomForest) Type() string { return ModelTypeRandomForest }

func (f *RandomForest) NumFeatures() int { return f.nFeatures }

func (f *RandomForest) Classes() []int { return f.classes }

func (f *RandomForest) Trees() []*DecisionTree { return f.trees }

// FeatureImportances is only populated for forests fitted in-process.
func (f *RandomForest) FeatureImportances() []float64 { return f.importances }

func (f *RandomForest) SupportsProbability() bool { return true }

// PredictProba returns the mean class distribution, aligned with Classes().
func (f *RandomForest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.nFeatures {
		return nil, fmt.Errorf("expected %d features, got %d", f.nFeatures, len(x))
	}
	if len(f.trees) == 0 {
		return nil, errEmptyTree
	}
	proba := make([]float64, len(f.classes))
	for i, tree := range f.trees {
		dist, err := tree.distribution(x)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		total := 0.0
		for _, v := range dist {
			total += v
		}
		if total <= 0 {
			return nil, fmt.Errorf("tree %d: empty leaf distribution", i)
		}
		for c := range proba {
			proba[c] += dist[c] / total
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.trees))
	}
	return proba, nil
}

func (f *RandomForest) Predict(x []float64) (int, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return f.classes[best], nil
}

// PredictProbability returns the probability of class label 1.
func (f *RandomForest) PredictProbability(x []float64) (float64, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	for i, class := range f.classes {
		if class == domain.LabelSurvived {
			return proba[i], nil
		}
	}
	return 0, fmt.Errorf("class %d not among fitted classes %v", domain.LabelSurvived, f.classes)
}

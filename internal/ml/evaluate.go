package ml

import (
	"fmt"

	"ml-audit-platform/internal/core/domain"
)

// Scores are binary classification scores with class 1 as the positive class.
// A zero denominator yields 0.
type Scores struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
}

func Score(yTrue, yPred []int) Scores {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return Scores{}
	}
	var correct, tp, fp, fn int
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
		switch {
		case yPred[i] == domain.LabelSurvived && yTrue[i] == domain.LabelSurvived:
			tp++
		case yPred[i] == domain.LabelSurvived:
			fp++
		case yTrue[i] == domain.LabelSurvived:
			fn++
		}
	}

	s := Scores{Accuracy: float64(correct) / float64(len(yTrue))}
	if tp+fp > 0 {
		s.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		s.Recall = float64(tp) / float64(tp+fn)
	}
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s
}

// PredictAll runs the forest over every row.
func PredictAll(f *RandomForest, X [][]float64) ([]int, error) {
	out := make([]int, len(X))
	for i, row := range X {
		label, err := f.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = label
	}
	return out, nil
}

package domain

import "fmt"

const (
	LabelDidNotSurvive = 0
	LabelSurvived      = 1
)

// ProbabilitySource tells clients whether Probability came from the model or
// was derived from the discrete label.
type ProbabilitySource string

const (
	ProbabilityFromModel      ProbabilitySource = "model"
	ProbabilityFromPrediction ProbabilitySource = "prediction"
)

type Prediction struct {
	Label       int
	Probability float64
	Source      ProbabilitySource
}

func (p Prediction) Text() string {
	if p.Label == LabelSurvived {
		return "Survived"
	}
	return "Did not survive"
}

func (p Prediction) Message() string {
	if p.Source == ProbabilityFromPrediction {
		return fmt.Sprintf("%s (model reports no probability; value mirrors the predicted class)", p.Text())
	}
	return fmt.Sprintf("%s with survival probability %.2f", p.Text(), p.Probability)
}

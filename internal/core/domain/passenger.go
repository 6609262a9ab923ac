package domain

import (
	"fmt"
	"math"
)

// FeatureCount is the width of every feature vector the classifier accepts.
const FeatureCount = 7

// FeatureNames lists the training-time column order. Vector() must follow it exactly.
var FeatureNames = []string{"Pclass", "Sex", "Age", "SibSp", "Parch", "Fare", "Embarked"}

// Sex codes
const (
	SexMale   = 0
	SexFemale = 1
)

// Embarkation codes
const (
	EmbarkedSouthampton = 0
	EmbarkedCherbourg   = 1
	EmbarkedQueenstown  = 2
)

type PassengerRecord struct {
	Pclass   int
	Sex      int
	Age      float64
	SibSp    int
	Parch    int
	Fare     float64
	Embarked int
}

// Vector encodes the record as [class, sex, age, siblings/spouses, parents/children, fare, embarkation].
func (p PassengerRecord) Vector() []float64 {
	return []float64{
		float64(p.Pclass),
		float64(p.Sex),
		p.Age,
		float64(p.SibSp),
		float64(p.Parch),
		p.Fare,
		float64(p.Embarked),
	}
}

func (p PassengerRecord) Validate() error {
	switch {
	case p.Pclass < 1 || p.Pclass > 3:
		return fmt.Errorf("%w: pclass must be 1, 2 or 3, got %d", ErrInvalidInput, p.Pclass)
	case p.Sex != SexMale && p.Sex != SexFemale:
		return fmt.Errorf("%w: sex must be 0 (male) or 1 (female), got %d", ErrInvalidInput, p.Sex)
	case !finite(p.Age) || p.Age < 0:
		return fmt.Errorf("%w: age must be a non-negative number", ErrInvalidInput)
	case p.SibSp < 0:
		return fmt.Errorf("%w: sibsp must be non-negative, got %d", ErrInvalidInput, p.SibSp)
	case p.Parch < 0:
		return fmt.Errorf("%w: parch must be non-negative, got %d", ErrInvalidInput, p.Parch)
	case !finite(p.Fare) || p.Fare < 0:
		return fmt.Errorf("%w: fare must be a non-negative number", ErrInvalidInput)
	case p.Embarked < EmbarkedSouthampton || p.Embarked > EmbarkedQueenstown:
		return fmt.Errorf("%w: embarked must be 0 (S), 1 (C) or 2 (Q), got %d", ErrInvalidInput, p.Embarked)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

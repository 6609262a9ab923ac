package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"ml-audit-platform/internal/core/domain"
	ports "ml-audit-platform/internal/core/ports/output"
	"ml-audit-platform/internal/observability"
)

// PredictionService serves predictions from a bundle fixed at construction.
// A nil bundle means the model is not loaded.
type PredictionService struct {
	bundle       *ports.ArtifactBundle
	maxBatchSize int
}

// NewPredictionService creates a prediction service. bundle may be nil.
func NewPredictionService(bundle *ports.ArtifactBundle, maxBatchSize int) *PredictionService {
	loaded := 0.0
	if bundle != nil {
		loaded = 1
	}
	observability.ModelLoaded.Set(loaded)
	return &PredictionService{bundle: bundle, maxBatchSize: maxBatchSize}
}

func (s *PredictionService) ModelLoaded() bool {
	return s.bundle != nil
}

func (s *PredictionService) MaxBatchSize() int {
	return s.maxBatchSize
}

// ModelDetails describes the loaded bundle for the model-info endpoint.
type ModelDetails struct {
	Info                domain.ModelInfo
	SupportsProbability bool
	Scaled              bool
	Origin              string
}

func (s *PredictionService) ModelInfo(ctx context.Context) (*ModelDetails, error) {
	if s.bundle == nil {
		return nil, domain.ErrModelUnavailable
	}
	return &ModelDetails{
		Info:                s.bundle.Info,
		SupportsProbability: s.bundle.Classifier.SupportsProbability(),
		Scaled:              s.bundle.Scaler != nil,
		Origin:              s.bundle.Origin,
	}, nil
}

// Predict runs one record through the classifier.
func (s *PredictionService) Predict(ctx context.Context, record domain.PassengerRecord) (*domain.Prediction, error) {
	if s.bundle == nil {
		observability.PredictionErrors.WithLabelValues(observability.ReasonUnavailable).Inc()
		return nil, domain.ErrModelUnavailable
	}
	pred, err := s.predict(record)
	if err != nil {
		observability.PredictionErrors.WithLabelValues(errorReason(err)).Inc()
		log.WithError(err).WithField("input", record).Warn("Prediction failed")
		return nil, err
	}

	observability.Predictions.WithLabelValues(strconv.Itoa(pred.Label), string(pred.Source)).Inc()
	log.WithFields(log.Fields{
		"input":              record,
		"prediction":         pred.Label,
		"probability":        pred.Probability,
		"probability_source": pred.Source,
	}).Info("Prediction served")
	return pred, nil
}

func (s *PredictionService) predict(record domain.PassengerRecord) (*domain.Prediction, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	x := record.Vector()
	if s.bundle.Scaler != nil {
		scaled, err := s.bundle.Scaler.Transform(x)
		if err != nil {
			return nil, fmt.Errorf("%w: scale features: %v", domain.ErrInferenceFailed, err)
		}
		x = scaled
	}

	start := time.Now()
	defer func() { observability.InferenceLatency.Observe(time.Since(start).Seconds()) }()

	clf := s.bundle.Classifier
	label, err := clf.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInferenceFailed, err)
	}
	if label != domain.LabelDidNotSurvive && label != domain.LabelSurvived {
		return nil, fmt.Errorf("%w: classifier returned label %d", domain.ErrInferenceFailed, label)
	}

	pred := &domain.Prediction{
		Label:       label,
		Probability: float64(label),
		Source:      domain.ProbabilityFromPrediction,
	}
	if clf.SupportsProbability() {
		p, err := clf.PredictProbability(x)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInferenceFailed, err)
		}
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("%w: probability %v outside [0,1]", domain.ErrInferenceFailed, p)
		}
		pred.Probability = p
		pred.Source = domain.ProbabilityFromModel
	}
	return pred, nil
}

// BatchInput is one decoded element of a batch request. Err is set when the element
// could not be decoded into a record.
type BatchInput struct {
	Record domain.PassengerRecord
	Err    error
}

// BatchResult holds either a prediction or the error for input Index.
type BatchResult struct {
	Index      int
	Prediction *domain.Prediction
	Err        error
}

// PredictBatch predicts every item independently and returns one result per input,
// in input order. Only an unloaded model or an oversized batch fails the whole call.
func (s *PredictionService) PredictBatch(ctx context.Context, inputs []BatchInput) ([]BatchResult, error) {
	if s.bundle == nil {
		observability.PredictionErrors.WithLabelValues(observability.ReasonUnavailable).Inc()
		return nil, domain.ErrModelUnavailable
	}
	if s.maxBatchSize > 0 && len(inputs) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d exceeds limit of %d", domain.ErrInvalidInput, len(inputs), s.maxBatchSize)
	}
	observability.BatchSize.Observe(float64(len(inputs)))

	results := make([]BatchResult, len(inputs))
	failed := 0
	for i, in := range inputs {
		results[i].Index = i
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			failed++
			continue
		}
		if in.Err != nil {
			results[i].Err = in.Err
			failed++
			observability.PredictionErrors.WithLabelValues(observability.ReasonInvalidInput).Inc()
			continue
		}
		pred, err := s.predict(in.Record)
		if err != nil {
			results[i].Err = err
			failed++
			observability.PredictionErrors.WithLabelValues(errorReason(err)).Inc()
			continue
		}
		observability.Predictions.WithLabelValues(strconv.Itoa(pred.Label), string(pred.Source)).Inc()
		results[i].Prediction = pred
	}

	log.WithFields(log.Fields{
		"total":     len(inputs),
		"succeeded": len(inputs) - failed,
		"failed":    failed,
	}).Info("Batch prediction served")
	return results, nil
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return observability.ReasonInvalidInput
	case errors.Is(err, domain.ErrModelUnavailable):
		return observability.ReasonUnavailable
	default:
		return observability.ReasonInference
	}
}

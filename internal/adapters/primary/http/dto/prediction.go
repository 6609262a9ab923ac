package dto

import (
	"ml-audit-platform/internal/core/domain"
	"ml-audit-platform/internal/core/services"
)

// ============================================================================
// Prediction DTOs
// ============================================================================

// PassengerRequest uses pointers so that a missing field is distinguishable from zero.
type PassengerRequest struct {
	Pclass   *int     `json:"pclass" binding:"required"`
	Sex      *int     `json:"sex" binding:"required"`
	Age      *float64 `json:"age" binding:"required"`
	SibSp    *int     `json:"sibsp" binding:"required"`
	Parch    *int     `json:"parch" binding:"required"`
	Fare     *float64 `json:"fare" binding:"required"`
	Embarked *int     `json:"embarked" binding:"required"`
}

// ToDomain must only be called after binding validation succeeded.
func (r *PassengerRequest) ToDomain() domain.PassengerRecord {
	return domain.PassengerRecord{
		Pclass:   *r.Pclass,
		Sex:      *r.Sex,
		Age:      *r.Age,
		SibSp:    *r.SibSp,
		Parch:    *r.Parch,
		Fare:     *r.Fare,
		Embarked: *r.Embarked,
	}
}

type PassengerInput struct {
	Pclass   int     `json:"pclass"`
	Sex      int     `json:"sex"`
	Age      float64 `json:"age"`
	SibSp    int     `json:"sibsp"`
	Parch    int     `json:"parch"`
	Fare     float64 `json:"fare"`
	Embarked int     `json:"embarked"`
}

type PredictionResponse struct {
	Prediction        int            `json:"prediction"`
	Probability       float64        `json:"probability"`
	ProbabilitySource string         `json:"probability_source"`
	PredictionText    string         `json:"prediction_text"`
	Message           string         `json:"message"`
	Input             PassengerInput `json:"input"`
}

func ToPredictionResponse(record domain.PassengerRecord, pred *domain.Prediction) *PredictionResponse {
	return &PredictionResponse{
		Prediction:        pred.Label,
		Probability:       pred.Probability,
		ProbabilitySource: string(pred.Source),
		PredictionText:    pred.Text(),
		Message:           pred.Message(),
		Input: PassengerInput{
			Pclass:   record.Pclass,
			Sex:      record.Sex,
			Age:      record.Age,
			SibSp:    record.SibSp,
			Parch:    record.Parch,
			Fare:     record.Fare,
			Embarked: record.Embarked,
		},
	}
}

// ============================================================================
// Batch DTOs
// ============================================================================

// BatchItemResponse carries either the prediction fields or Error.
type BatchItemResponse struct {
	Index int `json:"index"`
	*PredictionResponse
	Error string `json:"error,omitempty"`
}

type BatchPredictResponse struct {
	Results   []BatchItemResponse `json:"results"`
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

// ToBatchPredictResponse pairs results with their inputs. errText renders a failed item.
func ToBatchPredictResponse(inputs []services.BatchInput, results []services.BatchResult, errText func(error) string) BatchPredictResponse {
	resp := BatchPredictResponse{
		Results: make([]BatchItemResponse, 0, len(results)),
		Total:   len(results),
	}
	for _, r := range results {
		item := BatchItemResponse{Index: r.Index}
		if r.Err != nil {
			item.Error = errText(r.Err)
			resp.Failed++
		} else {
			item.PredictionResponse = ToPredictionResponse(inputs[r.Index].Record, r.Prediction)
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}

// ============================================================================
// Model Info DTOs
// ============================================================================

type ModelInfoResponse struct {
	ModelType           string                  `json:"model_type"`
	NFeatures           int                     `json:"n_features"`
	Features            []string                `json:"features"`
	Version             string                  `json:"version"`
	Metrics             *domain.TrainingMetrics `json:"metrics,omitempty"`
	SupportsProbability bool                    `json:"supports_probability"`
	Scaled              bool                    `json:"scaled"`
	Source              string                  `json:"source"`
}

func ToModelInfoResponse(d *services.ModelDetails) ModelInfoResponse {
	return ModelInfoResponse{
		ModelType:           d.Info.ModelType,
		NFeatures:           d.Info.NFeatures,
		Features:            d.Info.Features,
		Version:             d.Info.Version,
		Metrics:             d.Info.Metrics,
		SupportsProbability: d.SupportsProbability,
		Scaled:              d.Scaled,
		Source:              d.Origin,
	}
}

// ============================================================================
// Service DTOs
// ============================================================================

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Model       string `json:"model"`
	Service     string `json:"service"`
}

type InfoResponse struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	ModelStatus string            `json:"model_status"`
	Endpoints   map[string]string `json:"endpoints"`
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "titanic_service"

var (
	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Predictions served by label and probability source",
		},
		[]string{"label", "probability_source"},
	)

	PredictionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Rejected or failed predictions by reason",
		},
		[]string{"reason"},
	)

	InferenceLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Time spent inside the classifier per record",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Records per batch-predict request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
		},
	)

	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 when the classifier bundle is loaded",
		},
	)
)

// Error reasons used with PredictionErrors.
const (
	ReasonUnavailable  = "unavailable"
	ReasonInvalidInput = "invalid_input"
	ReasonInference    = "inference"
)

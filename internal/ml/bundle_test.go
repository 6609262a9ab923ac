package ml

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ml-audit-platform/internal/core/domain"
	ports "ml-audit-platform/internal/core/ports/output"
	"ml-audit-platform/internal/testutil"
)

func sevenFeatureForest(t *testing.T) []byte {
	t.Helper()
	forest := NewRandomForest(domain.FeatureCount, []int{0, 1}, []*DecisionTree{
		stumpOn(1, 0.5, []float64{0.9, 0.1}, []float64{0.2, 0.8}),
	})
	data, err := EncodeForest(forest)
	require.NoError(t, err)
	return data
}

func infoJSON(t *testing.T, info domain.ModelInfo) []byte {
	t.Helper()
	data, err := json.Marshal(info)
	require.NoError(t, err)
	return data
}

func validInfo() domain.ModelInfo {
	return domain.ModelInfo{
		ModelType: ModelTypeRandomForest,
		NFeatures: domain.FeatureCount,
		Features:  append([]string(nil), domain.FeatureNames...),
		Version:   "1.0",
		Metrics:   &domain.TrainingMetrics{TrainAccuracy: 0.9, TestAccuracy: 0.8, Precision: 0.7, Recall: 0.6, F1: 0.65},
	}
}

// ============================================================================
// DecodeBundle Tests
// ============================================================================

func TestDecodeBundle_RoundTrip(t *testing.T) {
	bundle, err := DecodeBundle(&ports.RawArtifacts{
		Model:  sevenFeatureForest(t),
		Scaler: []byte(`{"mean":[0,0,0,0,0,0,0],"scale":[1,1,1,1,1,1,1]}`),
		Info:   infoJSON(t, validInfo()),
		Origin: "test",
	})
	require.NoError(t, err)

	assert.Equal(t, ModelTypeRandomForest, bundle.Classifier.Type())
	assert.NotNil(t, bundle.Scaler)
	assert.Equal(t, "1.0", bundle.Info.Version)
	assert.Equal(t, "test", bundle.Origin)

	p, err := bundle.Classifier.PredictProbability([]float64{1, 1, 30, 0, 0, 100, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, p, 1e-9)
}

func TestDecodeBundle_SynthesizesMissingInfo(t *testing.T) {
	bundle, err := DecodeBundle(&ports.RawArtifacts{Model: sevenFeatureForest(t)})
	require.NoError(t, err)

	assert.Nil(t, bundle.Scaler)
	assert.Equal(t, "unknown", bundle.Info.Version)
	assert.Equal(t, domain.FeatureNames, bundle.Info.Features)
	assert.Nil(t, bundle.Info.Metrics)
}

func TestDecodeBundle_Errors(t *testing.T) {
	reordered := validInfo()
	reordered.Features[0], reordered.Features[1] = reordered.Features[1], reordered.Features[0]

	wrongType := validInfo()
	wrongType.ModelType = ModelTypeDecisionTree

	narrow, err := EncodeForest(NewRandomForest(3, []int{0, 1}, []*DecisionTree{{Nodes: []Node{leaf(1, 0)}}}))
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  *ports.RawArtifacts
		want error
	}{
		{"nil artifacts", nil, domain.ErrArtifactNotFound},
		{"empty model", &ports.RawArtifacts{}, domain.ErrArtifactNotFound},
		{"not json", &ports.RawArtifacts{Model: []byte("pickle")}, domain.ErrArtifactInvalid},
		{"unsupported type", &ports.RawArtifacts{Model: []byte(`{"model_type":"SVC","n_features":7}`)}, domain.ErrUnsupportedModelType},
		{"feature width", &ports.RawArtifacts{Model: narrow}, domain.ErrArtifactInvalid},
		{"scaler width", &ports.RawArtifacts{Model: sevenFeatureForest(t), Scaler: []byte(`{"mean":[0],"scale":[1]}`)}, domain.ErrArtifactInvalid},
		{"feature order", &ports.RawArtifacts{Model: sevenFeatureForest(t), Info: infoJSON(t, reordered)}, domain.ErrArtifactInvalid},
		{"type mismatch", &ports.RawArtifacts{Model: sevenFeatureForest(t), Info: infoJSON(t, wrongType)}, domain.ErrArtifactInvalid},
		{"schema violation", &ports.RawArtifacts{Model: sevenFeatureForest(t), Info: []byte(`{"model_type":"RandomForestClassifier","n_features":"seven"}`)}, domain.ErrArtifactInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBundle(tt.raw)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeBundle_DecisionTreeArtifact(t *testing.T) {
	model := []byte(`{
		"model_type": "DecisionTreeClassifier",
		"n_features": 7,
		"trees": [{"nodes": [
			{"feature": 1, "threshold": 0.5, "left": 1, "right": 2, "label": 0},
			{"feature": -1, "threshold": 0, "left": -1, "right": -1, "label": 0},
			{"feature": -1, "threshold": 0, "left": -1, "right": -1, "label": 1}
		]}]
	}`)

	bundle, err := DecodeBundle(&ports.RawArtifacts{Model: model})
	require.NoError(t, err)

	assert.False(t, bundle.Classifier.SupportsProbability())
	label, err := bundle.Classifier.Predict([]float64{1, 1, 30, 0, 0, 100, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestDecodeModelInfo_SchemaErrorsAreReported(t *testing.T) {
	_, err := DecodeModelInfo([]byte(`{"model_type":"","n_features":0,"features":[]}`))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrArtifactInvalid)
	assert.Contains(t, err.Error(), "n_features")
}

func TestLoadBundle_PropagatesStoreError(t *testing.T) {
	boom := errors.New("boom")
	store := new(testutil.MockArtifactStore)
	store.On("Fetch", mock.Anything).Return(nil, boom)

	_, err := LoadBundle(context.Background(), store)

	assert.ErrorIs(t, err, boom)
	store.AssertExpectations(t)
}

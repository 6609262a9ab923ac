package ml

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"ml-audit-platform/internal/core/domain"
	ports "ml-audit-platform/internal/core/ports/output"
)

// modelDocument is the on-disk form of a classifier artifact.
type modelDocument struct {
	ModelType string          `json:"model_type"`
	NFeatures int             `json:"n_features"`
	Classes   []int           `json:"classes"`
	Trees     []*DecisionTree `json:"trees"`
}

// DecodeClassifier parses a classifier document into a ready-to-use Classifier.
func DecodeClassifier(data []byte) (ports.Classifier, error) {
	var doc modelDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode classifier: %v", domain.ErrArtifactInvalid, err)
	}
	if doc.NFeatures <= 0 {
		return nil, fmt.Errorf("%w: n_features must be positive", domain.ErrArtifactInvalid)
	}

	switch doc.ModelType {
	case ModelTypeRandomForest:
		if len(doc.Classes) < 2 {
			return nil, fmt.Errorf("%w: forest needs at least two classes", domain.ErrArtifactInvalid)
		}
		if len(doc.Trees) == 0 {
			return nil, fmt.Errorf("%w: forest has no trees", domain.ErrArtifactInvalid)
		}
		for i, tree := range doc.Trees {
			if tree == nil {
				return nil, fmt.Errorf("%w: tree %d is null", domain.ErrArtifactInvalid, i)
			}
			if err := tree.validate(doc.NFeatures, len(doc.Classes), true); err != nil {
				return nil, fmt.Errorf("%w: tree %d: %v", domain.ErrArtifactInvalid, i, err)
			}
		}
		return NewRandomForest(doc.NFeatures, doc.Classes, doc.Trees), nil

	case ModelTypeDecisionTree:
		if len(doc.Trees) != 1 || doc.Trees[0] == nil {
			return nil, fmt.Errorf("%w: decision tree artifact must hold exactly one tree", domain.ErrArtifactInvalid)
		}
		if err := doc.Trees[0].validate(doc.NFeatures, 0, false); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrArtifactInvalid, err)
		}
		return NewTreeClassifier(doc.Trees[0], doc.NFeatures), nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedModelType, doc.ModelType)
	}
}

// EncodeForest serializes a forest in the form DecodeClassifier reads.
func EncodeForest(f *RandomForest) ([]byte, error) {
	return json.Marshal(modelDocument{
		ModelType: ModelTypeRandomForest,
		NFeatures: f.nFeatures,
		Classes:   f.classes,
		Trees:     f.trees,
	})
}

func DecodeScaler(data []byte) (*StandardScaler, error) {
	var s StandardScaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: decode scaler: %v", domain.ErrArtifactInvalid, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrArtifactInvalid, err)
	}
	return &s, nil
}

const modelInfoSchemaJSON = `{
	"type": "object",
	"required": ["model_type", "n_features", "features"],
	"properties": {
		"model_type": {"type": "string", "minLength": 1},
		"n_features": {"type": "integer", "minimum": 1},
		"features": {"type": "array", "minItems": 1, "items": {"type": "string"}},
		"version": {"type": "string"},
		"metrics": {
			"type": "object",
			"properties": {
				"train_accuracy": {"type": "number", "minimum": 0, "maximum": 1},
				"test_accuracy": {"type": "number", "minimum": 0, "maximum": 1},
				"precision": {"type": "number", "minimum": 0, "maximum": 1},
				"recall": {"type": "number", "minimum": 0, "maximum": 1},
				"f1": {"type": "number", "minimum": 0, "maximum": 1}
			}
		}
	}
}`

var modelInfoSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(modelInfoSchemaJSON))
})

// DecodeModelInfo validates the metadata document against its schema before decoding it.
func DecodeModelInfo(data []byte) (domain.ModelInfo, error) {
	schema, err := modelInfoSchema()
	if err != nil {
		return domain.ModelInfo{}, fmt.Errorf("compile model info schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return domain.ModelInfo{}, fmt.Errorf("%w: model info: %v", domain.ErrArtifactInvalid, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return domain.ModelInfo{}, fmt.Errorf("%w: model info: %s", domain.ErrArtifactInvalid, strings.Join(errs, "; "))
	}

	var info domain.ModelInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return domain.ModelInfo{}, fmt.Errorf("%w: decode model info: %v", domain.ErrArtifactInvalid, err)
	}
	return info, nil
}

package ml

import (
	"context"
	"fmt"

	"ml-audit-platform/internal/core/domain"
	ports "ml-audit-platform/internal/core/ports/output"
)

// LoadBundle fetches and decodes the artifact set, checking that every part agrees
// on the training-time feature layout.
func LoadBundle(ctx context.Context, store ports.ArtifactStore) (*ports.ArtifactBundle, error) {
	raw, err := store.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return DecodeBundle(raw)
}

func DecodeBundle(raw *ports.RawArtifacts) (*ports.ArtifactBundle, error) {
	if raw == nil || len(raw.Model) == 0 {
		return nil, domain.ErrArtifactNotFound
	}

	clf, err := DecodeClassifier(raw.Model)
	if err != nil {
		return nil, err
	}
	if clf.NumFeatures() != domain.FeatureCount {
		return nil, fmt.Errorf("%w: classifier expects %d features, service sends %d",
			domain.ErrArtifactInvalid, clf.NumFeatures(), domain.FeatureCount)
	}

	bundle := &ports.ArtifactBundle{Classifier: clf, Origin: raw.Origin}

	if raw.Scaler != nil {
		scaler, err := DecodeScaler(raw.Scaler)
		if err != nil {
			return nil, err
		}
		if scaler.NumFeatures() != domain.FeatureCount {
			return nil, fmt.Errorf("%w: scaler expects %d features, service sends %d",
				domain.ErrArtifactInvalid, scaler.NumFeatures(), domain.FeatureCount)
		}
		bundle.Scaler = scaler
	}

	if raw.Info == nil {
		bundle.Info = domain.ModelInfo{
			ModelType: clf.Type(),
			NFeatures: clf.NumFeatures(),
			Features:  append([]string(nil), domain.FeatureNames...),
			Version:   "unknown",
		}
		return bundle, nil
	}

	info, err := DecodeModelInfo(raw.Info)
	if err != nil {
		return nil, err
	}
	if err := checkInfo(info, clf); err != nil {
		return nil, err
	}
	bundle.Info = info
	return bundle, nil
}

func checkInfo(info domain.ModelInfo, clf ports.Classifier) error {
	if info.ModelType != clf.Type() {
		return fmt.Errorf("%w: metadata describes %q but classifier is %q",
			domain.ErrArtifactInvalid, info.ModelType, clf.Type())
	}
	if info.NFeatures != domain.FeatureCount || len(info.Features) != domain.FeatureCount {
		return fmt.Errorf("%w: metadata lists %d features, want %d",
			domain.ErrArtifactInvalid, len(info.Features), domain.FeatureCount)
	}
	for i, name := range domain.FeatureNames {
		if info.Features[i] != name {
			return fmt.Errorf("%w: feature %d is %q, want %q (training order changed)",
				domain.ErrArtifactInvalid, i, info.Features[i], name)
		}
	}
	return nil
}

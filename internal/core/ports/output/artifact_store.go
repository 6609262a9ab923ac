package ports

import "context"

// RawArtifacts holds undecoded artifact documents. Scaler and Info are nil when absent.
type RawArtifacts struct {
	Model  []byte
	Scaler []byte
	Info   []byte
	Origin string
}

// ArtifactStore fetches the artifact documents produced by the training job.
type ArtifactStore interface {
	// Fetch returns domain.ErrArtifactNotFound when the classifier document is missing.
	Fetch(ctx context.Context) (*RawArtifacts, error)
}

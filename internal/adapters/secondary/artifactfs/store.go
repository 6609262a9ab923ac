package artifactfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ml-audit-platform/internal/core/domain"
	ports "ml-audit-platform/internal/core/ports/output"
)

type fileStore struct {
	dir        string
	modelFile  string
	scalerFile string
	infoFile   string
}

// NewFileStore reads artifacts from dir. An empty scalerFile or infoFile disables that artifact.
func NewFileStore(dir, modelFile, scalerFile, infoFile string) ports.ArtifactStore {
	return &fileStore{dir: dir, modelFile: modelFile, scalerFile: scalerFile, infoFile: infoFile}
}

func (s *fileStore) Fetch(ctx context.Context) (*ports.RawArtifacts, error) {
	modelPath := filepath.Join(s.dir, s.modelFile)
	model, err := os.ReadFile(modelPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, modelPath)
	}
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", modelPath, err)
	}

	scaler, err := s.readOptional(s.scalerFile)
	if err != nil {
		return nil, err
	}
	info, err := s.readOptional(s.infoFile)
	if err != nil {
		return nil, err
	}

	return &ports.RawArtifacts{
		Model:  model,
		Scaler: scaler,
		Info:   info,
		Origin: "file://" + modelPath,
	}, nil
}

// readOptional returns nil, nil when the file is not configured or absent.
func (s *fileStore) readOptional(name string) ([]byte, error) {
	if name == "" {
		return nil, nil
	}
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

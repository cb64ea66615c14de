package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"FraudSight/internal/registry"
)

// FSModelStore persists model artifacts as JSON files under a single
// directory, one file per version.
type FSModelStore struct {
	dir string
}

func NewFSModelStore(dir string) (*FSModelStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create models dir: %w", err)
	}
	return &FSModelStore{dir: dir}, nil
}

// Save writes the artifact atomically: a temp file in the same
// directory renamed over the final name, so the registry cache never
// reads a partial artifact.
func (s *FSModelStore) Save(_ context.Context, version string, art *registry.Artifact) (string, error) {
	data, err := json.Marshal(art)
	if err != nil {
		return "", fmt.Errorf("encode artifact: %w", err)
	}

	final := filepath.Join(s.dir, version+".json")
	tmp, err := os.CreateTemp(s.dir, version+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create artifact file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("publish artifact: %w", err)
	}
	return final, nil
}

// List returns the artifact files currently on disk.
func (s *FSModelStore) List() ([]string, error) {
	return filepath.Glob(filepath.Join(s.dir, "*.json"))
}

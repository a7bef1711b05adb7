// Package artifactfs stores CLV artifacts as JSON files in a directory, with
// a LATEST file naming the version to serve.
package artifactfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"salesInsight/business/clv"
	"salesInsight/domain"
)

const latestFile = "LATEST"

type Store struct {
	dir string
}

var _ clv.ArtifactStore = (*Store)(nil)

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(version string) string {
	return filepath.Join(s.dir, "clv_model_"+version+".json")
}

// Save writes the artifact file unless that version already exists, then
// points LATEST at it.
func (s *Store) Save(ctx context.Context, a *clv.Artifact) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact dir: %w", err)
	}

	path := s.path(a.Version())
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		raw, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal artifact: %w", err)
		}
		if err := s.writeAtomic(path, raw); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return s.writeAtomic(filepath.Join(s.dir, latestFile), []byte(a.Version()+"\n"))
}

// Latest returns nil when no artifact has been saved.
func (s *Store) Latest(ctx context.Context) (*clv.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, latestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", latestFile, err)
	}

	version := strings.TrimSpace(string(raw))
	if version == "" {
		return nil, fmt.Errorf("%s is empty: %w", latestFile, domain.ErrCorruptArtifact)
	}
	return s.Get(ctx, version)
}

func (s *Store) Get(ctx context.Context, version string) (*clv.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	raw, err := os.ReadFile(s.path(version))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("artifact %s: %w", version, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", version, err)
	}

	a, err := clv.DecodeArtifact(raw)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", version, err)
	}
	if a.Version() != version {
		return nil, fmt.Errorf("artifact file %s holds version %s: %w", version, a.Version(), domain.ErrCorruptArtifact)
	}
	return a, nil
}

func (s *Store) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to publish %s: %w", path, err)
	}
	return nil
}

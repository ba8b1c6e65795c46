package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/carefinder/internal/domain"
	"github.com/kailas-cloud/carefinder/internal/domain/provider"
)

// FileLoader reads a snapshot from one YAML or JSON document.
type FileLoader struct {
	path string
}

// NewFileLoader creates a loader for the document at path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: filepath.Clean(path)}
}

// Name identifies the source in logs and health checks.
func (l *FileLoader) Name() string { return "file:" + l.path }

// Ping checks that the document is readable.
func (l *FileLoader) Ping(_ context.Context) error {
	if _, err := os.Stat(l.path); err != nil {
		return fmt.Errorf("stat snapshot: %w", err)
	}
	return nil
}

// Load reads and decodes the whole document.
func (l *FileLoader) Load(ctx context.Context) (provider.Sources, error) {
	if err := ctx.Err(); err != nil {
		return provider.Sources{}, err //nolint:wrapcheck // context error
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return provider.Sources{}, fmt.Errorf("read snapshot %s: %w", l.path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return provider.Sources{}, fmt.Errorf("%w: decode %s: %v", domain.ErrInvalidSource, l.path, err)
	}

	src, err := doc.sources()
	if err != nil {
		return provider.Sources{}, fmt.Errorf("decode %s: %w", l.path, err)
	}
	return src, nil
}

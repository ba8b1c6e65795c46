package sdk

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/carefinder/internal/repository/snapshot"
)

// LoadFile reads a YAML or JSON snapshot document.
func LoadFile(ctx context.Context, path string) (Sources, error) {
	src, err := snapshot.NewFileLoader(path).Load(ctx)
	if err != nil {
		return Sources{}, fmt.Errorf("carefinder: %w", err)
	}
	return src, nil
}

// LoadParquet reads a directory of parquet datasets.
func LoadParquet(ctx context.Context, dir string) (Sources, error) {
	src, err := snapshot.NewParquetLoader(dir).Load(ctx)
	if err != nil {
		return Sources{}, fmt.Errorf("carefinder: %w", err)
	}
	return src, nil
}

package catalog

import (
	"context"

	"github.com/kailas-cloud/carefinder/internal/domain/provider"
)

// SourceLoader reads one complete snapshot of the source datasets.
type SourceLoader interface {
	Load(ctx context.Context) (provider.Sources, error)
}

package health

import "context"

// SourcePinger checks that the snapshot source is reachable.
type SourcePinger interface {
	Ping(ctx context.Context) error
}

// IndexState reports whether a doctor index is being served.
type IndexState interface {
	Ready() bool
}

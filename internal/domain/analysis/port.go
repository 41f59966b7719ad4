package analysis

import "context"

// RecordStore port (interface for persistence backends)
// Implemented by the remote record store and the local cache; the records
// facade chains them in order.
type RecordStore interface {
	// Create persists the record and assigns its ID.
	Create(ctx context.Context, r *Result) error
	// List returns records newest first.
	List(ctx context.Context) ([]*Result, error)
	// Clear removes all records the store will allow to be removed.
	Clear(ctx context.Context) error
	// Name identifies the backend in logs.
	Name() string
}

// AIClient port (interface for the external inference capability)
type AIClient interface {
	Analyze(ctx context.Context, in Input) (string, error)
}

// ArtifactStore port (interface for evidence archival)
type ArtifactStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

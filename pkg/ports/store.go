package ports

import (
	"context"
)

// SnapshotStore persists the last observed JSON value per key.
// Implementations must be usable from separate, non-overlapping process
// invocations; they are not required to serialize concurrent writers.
type SnapshotStore interface {
	// Load returns the stored value in domain.NormalizeJSON form.
	// Returns domain.ErrSnapshotNotFound if the key was never saved.
	Load(ctx context.Context, key string) (any, error)

	// Save replaces the value for key. Values must be JSON-encodable.
	Save(ctx context.Context, key string, value any) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all stored keys.
	List(ctx context.Context) ([]string, error)
}

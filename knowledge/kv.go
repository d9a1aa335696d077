// Package knowledge persists framework knowledge artifacts and the analysis
// state machine that guards them. Storage goes through a narrow key-value
// interface so the JetStream-backed store and the in-memory test store share
// the same compare-and-swap semantics.
package knowledge

import "context"

// Entry is a stored value with its revision for optimistic concurrency.
type Entry struct {
	Value    []byte
	Revision uint64
}

// KV is the minimal key-value surface the store needs. Implementations must
// provide atomic create and revision-checked update so concurrent analyses
// serialize on the state record.
type KV interface {
	// Get returns the entry for a key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Entry, error)

	// Create stores a value only if the key does not exist yet.
	// Returns the new revision, or ErrRevisionConflict if the key exists.
	Create(ctx context.Context, key string, value []byte) (uint64, error)

	// Update stores a value only if the key is at the given revision.
	// Returns the new revision, or ErrRevisionConflict on a lost race.
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)

	// Put stores a value unconditionally and returns the new revision.
	Put(ctx context.Context, key string, value []byte) (uint64, error)

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

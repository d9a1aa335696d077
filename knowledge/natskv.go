package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
)

// NATSKV adapts a JetStream key-value bucket to the KV interface.
type NATSKV struct {
	bucket jetstream.KeyValue
}

// NewNATSKV ensures the named bucket exists and returns an adapter for it.
func NewNATSKV(ctx context.Context, js jetstream.JetStream, bucket string) (*NATSKV, error) {
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Framework knowledge artifacts and analysis state",
		History:     5,
	})
	if err != nil {
		return nil, fmt.Errorf("create knowledge bucket %q: %w", bucket, err)
	}

	return &NATSKV{bucket: kv}, nil
}

// WrapBucket adapts an existing bucket without creating it.
func WrapBucket(bucket jetstream.KeyValue) *NATSKV {
	return &NATSKV{bucket: bucket}
}

// Get returns the entry for a key, or ErrNotFound.
func (n *NATSKV) Get(ctx context.Context, key string) (*Entry, error) {
	entry, err := n.bucket.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kv get %q: %w", key, err)
	}

	return &Entry{Value: entry.Value(), Revision: entry.Revision()}, nil
}

// Create stores a value only if the key does not exist yet.
func (n *NATSKV) Create(ctx context.Context, key string, value []byte) (uint64, error) {
	rev, err := n.bucket.Create(ctx, key, value)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return 0, ErrRevisionConflict
		}
		return 0, fmt.Errorf("kv create %q: %w", key, err)
	}
	return rev, nil
}

// Update stores a value only if the key is at the given revision.
func (n *NATSKV) Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error) {
	rev, err := n.bucket.Update(ctx, key, value, revision)
	if err != nil {
		if isRevisionMismatch(err) {
			return 0, ErrRevisionConflict
		}
		return 0, fmt.Errorf("kv update %q: %w", key, err)
	}
	return rev, nil
}

// Put stores a value unconditionally.
func (n *NATSKV) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	rev, err := n.bucket.Put(ctx, key, value)
	if err != nil {
		return 0, fmt.Errorf("kv put %q: %w", key, err)
	}
	return rev, nil
}

// Delete removes a key.
func (n *NATSKV) Delete(ctx context.Context, key string) error {
	if err := n.bucket.Delete(ctx, key); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

// isRevisionMismatch detects a lost compare-and-swap race on Update.
// JetStream reports this as a wrong-last-sequence stream error.
func isRevisionMismatch(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	return strings.Contains(err.Error(), "wrong last sequence")
}

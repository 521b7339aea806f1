// Package kvstore provides ordered key-value storage used as the substrate
// for entity records and their indexes.
package kvstore

import "context"

// Store is durable, order-preserving key-value storage. Keys are plain
// strings; values are opaque byte slices owned by the caller.
//
// Implementations must make Put an all-or-nothing overwrite, treat Delete
// of an absent key as a no-op, and return ListKeys results in ascending
// lexicographic order. Failures are storage failures only; there are no
// entity-level semantics at this layer.
type Store interface {
	// Get returns the value for key. The second return is false when the
	// key is absent; absence is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put writes value under key, overwriting any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key succeeds silently.
	Delete(ctx context.Context, key string) error

	// ListKeys returns all keys starting with prefix in ascending order.
	// An empty prefix lists every key.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

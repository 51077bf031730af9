// Package persist is the durability layer: a pluggable string-keyed KV store
// underneath a versioned, validated snapshot of the engine store.
//
// Writes are coalesced: slice mutations mark their section dirty via bus
// events and a short timer flushes all dirty sections in one batch. Reads
// happen once, at hydration, before the engine serves any traffic.
package persist

import (
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendDiskv  = "diskv"
)

// KV is the minimal durable store the persister needs. All three backends
// (sqlite, bolt, diskv) satisfy it.
type KV interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)
	// Set writes one key.
	Set(key string, value []byte) error
	// SetMany writes a batch. Backends apply it in a single transaction
	// where the medium supports one; a failed batch leaves the caller free
	// to retry per key.
	SetMany(batch map[string][]byte) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error
	// Keys lists all stored keys.
	Keys() ([]string, error)
	// Close releases the underlying medium.
	Close() error
}

// Open constructs the KV backend selected by name. path is the data
// directory (diskv) or database file (sqlite, bolt).
func Open(backend, path string) (KV, error) {
	switch backend {
	case BackendSQLite:
		return openSQLite(path)
	case BackendBolt:
		return openBolt(path)
	case BackendDiskv:
		return openDiskv(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

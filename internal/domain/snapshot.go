package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Dataset is the bazaar payload as returned by the API. Only the top-level
// products field is ever interpreted; everything else passes through.
type Dataset = json.RawMessage

// SnapshotKeyLayout formats capture times into fixed-width keys whose
// lexicographic order equals chronological order.
const SnapshotKeyLayout = "20060102150405"

// SnapshotKeyLen is the length of every valid snapshot key.
const SnapshotKeyLen = len(SnapshotKeyLayout)

// SnapshotBackend selects the storage behind a SnapshotStore.
type SnapshotBackend string

const (
	// SnapshotBackendFile stores one JSON file per snapshot in a directory.
	SnapshotBackendFile SnapshotBackend = "file"
	// SnapshotBackendBolt stores snapshots in a single bbolt database.
	SnapshotBackendBolt SnapshotBackend = "bolt"
)

// SnapshotStore persists point-in-time captures of a Dataset keyed by
// capture time at second precision.
type SnapshotStore interface {
	// Save writes dataset under the key derived from capturedAt and returns
	// the key. A snapshot captured in the same second is overwritten.
	Save(ctx context.Context, dataset Dataset, capturedAt time.Time) (string, error)
	// Load returns the snapshot stored under key or a *NotFoundError.
	Load(ctx context.Context, key string) (Dataset, error)
	// ListKeys returns every stored key in ascending order.
	ListKeys(ctx context.Context) ([]string, error)
	// Close releases backend resources.
	Close() error
}

// SnapshotKey derives the snapshot key for a capture time. The time is
// formatted in its own location.
func SnapshotKey(capturedAt time.Time) string {
	return capturedAt.Format(SnapshotKeyLayout)
}

// ValidSnapshotKey reports whether key has the shape SnapshotKey produces.
func ValidSnapshotKey(key string) bool {
	if len(key) != SnapshotKeyLen {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return false
		}
	}
	return true
}

package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"bazaarmcp/internal/domain"
)

const snapshotsBucketName = "snapshots"

// BoltStore keeps snapshots in a single bbolt database. Keys are the
// snapshot timestamp keys, so bucket iteration order is chronological.
type BoltStore struct {
	mu      sync.RWMutex
	db      *bolt.DB
	path    string
	closed  bool
	logger  *zap.Logger
	metrics domain.Metrics
}

func OpenBoltStore(path string, logger *zap.Logger, metrics domain.Metrics) (*BoltStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("snapshot db path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure snapshot db dir: %w", err)
	}
	options := &bolt.Options{Timeout: time.Second}
	db, err := bolt.Open(trimmed, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotsBucketName))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots bucket: %w", err)
	}
	return &BoltStore{
		db:      db,
		path:    trimmed,
		logger:  logger.Named("snapshot"),
		metrics: metrics,
	}, nil
}

func (s *BoltStore) Path() string {
	return s.path
}

func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *BoltStore) Save(ctx context.Context, dataset domain.Dataset, capturedAt time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := domain.SnapshotKey(capturedAt)
	err := s.put(key, dataset)
	s.metrics.ObserveSnapshotSave(domain.SnapshotBackendBolt, err)
	if err != nil {
		return "", err
	}
	s.logger.Info("snapshot saved", zap.String("key", key), zap.String("db", s.path))
	return key, nil
}

func (s *BoltStore) put(key string, dataset domain.Dataset) error {
	data, err := encodeDataset(dataset)
	if err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(snapshotsBucketName))
		if err != nil {
			return fmt.Errorf("create snapshots bucket: %w", err)
		}
		if err := bucket.Put([]byte(key), data); err != nil {
			return fmt.Errorf("write snapshot %s: %w", key, err)
		}
		return nil
	})
}

func (s *BoltStore) Load(ctx context.Context, key string) (domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !domain.ValidSnapshotKey(key) {
		return nil, &domain.NotFoundError{Key: key}
	}
	var raw []byte
	err := s.view(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotsBucketName))
		if bucket == nil {
			return nil
		}
		if value := bucket.Get([]byte(key)); value != nil {
			raw = append([]byte(nil), value...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &domain.NotFoundError{Key: key}
	}
	return decodeDataset(key, raw)
}

func (s *BoltStore) ListKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys := []string{}
	err := s.view(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotsBucketName))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(key, value []byte) error {
			if value == nil {
				return nil
			}
			keys = append(keys, string(key))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *BoltStore) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *BoltStore) update(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrStoreClosed
	}
	return s.db.Update(fn)
}

var _ domain.SnapshotStore = (*BoltStore)(nil)

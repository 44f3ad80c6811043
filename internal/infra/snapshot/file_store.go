package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"bazaarmcp/internal/domain"
)

const (
	filePrefix = "bazaar_data_"
	fileSuffix = ".json"
)

// FileStore keeps one JSON file per snapshot. The directory listing is the
// only index.
type FileStore struct {
	dir     string
	logger  *zap.Logger
	metrics domain.Metrics
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, logger *zap.Logger, metrics domain.Metrics) (*FileStore, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, errors.New("snapshot dir is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	if err := os.MkdirAll(trimmed, 0o755); err != nil {
		return nil, fmt.Errorf("ensure snapshot dir: %w", err)
	}
	return &FileStore{
		dir:     trimmed,
		logger:  logger.Named("snapshot"),
		metrics: metrics,
	}, nil
}

// FileName returns the file name a snapshot key is stored under.
func FileName(key string) string {
	return filePrefix + key + fileSuffix
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Save(ctx context.Context, dataset domain.Dataset, capturedAt time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := domain.SnapshotKey(capturedAt)
	err := s.write(key, dataset)
	s.metrics.ObserveSnapshotSave(domain.SnapshotBackendFile, err)
	if err != nil {
		return "", err
	}
	s.logger.Info("snapshot saved", zap.String("key", key), zap.String("dir", s.dir))
	return key, nil
}

func (s *FileStore) write(key string, dataset domain.Dataset) error {
	data, err := encodeDataset(dataset)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("ensure snapshot dir: %w", err)
	}
	path := filepath.Join(s.dir, FileName(key))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, key string) (domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !domain.ValidSnapshotKey(key) {
		return nil, &domain.NotFoundError{Key: key}
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, FileName(key)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.NotFoundError{Key: key}
		}
		return nil, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	return decodeDataset(key, raw)
}

func (s *FileStore) ListKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list snapshot dir: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, ok := keyFromFileName(entry.Name())
		if !ok {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) Close() error {
	return nil
}

func keyFromFileName(name string) (string, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	key := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	if !domain.ValidSnapshotKey(key) {
		return "", false
	}
	return key, true
}

var _ domain.SnapshotStore = (*FileStore)(nil)

package snapshot

import (
	"fmt"

	"go.uber.org/zap"

	"bazaarmcp/internal/domain"
)

// Open builds the store selected by cfg.Backend.
func Open(cfg domain.SnapshotConfig, logger *zap.Logger, metrics domain.Metrics) (domain.SnapshotStore, error) {
	switch cfg.Backend {
	case domain.SnapshotBackendFile, "":
		return NewFileStore(cfg.Dir, logger, metrics)
	case domain.SnapshotBackendBolt:
		return OpenBoltStore(cfg.BoltPath, logger, metrics)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBackend, cfg.Backend)
	}
}

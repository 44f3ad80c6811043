package app

import (
	"context"

	"go.uber.org/zap"

	"bazaarmcp/internal/domain"
	"bazaarmcp/internal/infra/config"
)

// LoadConfig loads the configuration at path, which may be empty.
func (a *App) LoadConfig(ctx context.Context, path string) (domain.Config, error) {
	return config.NewLoader(a.logger).Load(ctx, path)
}

// ValidateConfig loads the configuration and checks that the snapshot
// backend can be opened.
func (a *App) ValidateConfig(ctx context.Context, path string) error {
	cfg, err := a.LoadConfig(ctx, path)
	if err != nil {
		return err
	}
	comps, err := a.build(cfg)
	if err != nil {
		return err
	}
	defer comps.close(a.logger)

	a.logger.Info("configuration validated",
		zap.String("config", path),
		zap.String("snapshotBackend", string(cfg.Snapshot.Backend)),
		zap.String("transport", string(cfg.Server.Transport)),
		zap.Bool("apiKey", cfg.Bazaar.APIKey != ""),
	)
	return nil
}

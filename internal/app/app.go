package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"bazaarmcp/internal/domain"
	"bazaarmcp/internal/infra/bazaar"
	"bazaarmcp/internal/infra/snapshot"
	"bazaarmcp/internal/infra/telemetry"
	"bazaarmcp/internal/infra/tools"
)

type App struct {
	logger *zap.Logger
	clock  func() time.Time
}

type Option func(*App)

// WithClock overrides the capture clock used for snapshot keys.
func WithClock(clock func() time.Time) Option {
	return func(a *App) {
		if clock != nil {
			a.clock = clock
		}
	}
}

func New(logger *zap.Logger, opts ...Option) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		logger: logger.Named("app"),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// components is everything one command needs, built from a Config.
type components struct {
	registry *prometheus.Registry
	metrics  *telemetry.PrometheusMetrics
	client   *bazaar.Client
	store    domain.SnapshotStore
	surface  *tools.Surface
}

func (a *App) build(cfg domain.Config) (*components, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewPrometheusMetrics(registry)

	client, err := bazaar.NewClient(cfg.Bazaar, a.logger, bazaar.ClientOptions{Metrics: metrics})
	if err != nil {
		return nil, err
	}
	store, err := snapshot.Open(cfg.Snapshot, a.logger, metrics)
	if err != nil {
		return nil, err
	}
	surface, err := tools.NewSurface(tools.Options{
		Fetcher:     client,
		Store:       store,
		SaveOnFetch: cfg.Snapshot.SaveOnFetch,
		Clock:       a.clock,
		Logger:      a.logger,
		Metrics:     metrics,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &components{
		registry: registry,
		metrics:  metrics,
		client:   client,
		store:    store,
		surface:  surface,
	}, nil
}

func (c *components) close(logger *zap.Logger) {
	if err := c.store.Close(); err != nil {
		logger.Warn("close snapshot store", zap.Error(err))
	}
}

// Capture fetches the bazaar once and saves it as a snapshot.
func (a *App) Capture(ctx context.Context, cfg domain.Config) (string, error) {
	comps, err := a.build(cfg)
	if err != nil {
		return "", err
	}
	defer comps.close(a.logger)

	dataset, err := comps.client.FetchAll(ctx)
	if err != nil {
		return "", err
	}
	key, err := comps.store.Save(ctx, dataset, a.clock())
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return key, nil
}

// Snapshots lists the stored snapshot keys, oldest first.
func (a *App) Snapshots(ctx context.Context, cfg domain.SnapshotConfig) ([]string, error) {
	store, err := snapshot.Open(cfg, a.logger, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return store.ListKeys(ctx)
}

// Snapshot returns one stored snapshot.
func (a *App) Snapshot(ctx context.Context, cfg domain.SnapshotConfig, key string) (domain.Dataset, error) {
	store, err := snapshot.Open(cfg, a.logger, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return store.Load(ctx, key)
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

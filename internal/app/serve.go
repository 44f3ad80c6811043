package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"bazaarmcp/internal/domain"
	"bazaarmcp/internal/infra/telemetry"
	"bazaarmcp/internal/infra/tools"
)

// Serve runs the MCP tool server on the configured transport until ctx is
// canceled or the client disconnects.
func (a *App) Serve(ctx context.Context, cfg domain.Config) error {
	comps, err := a.build(cfg)
	if err != nil {
		return err
	}
	defer comps.close(a.logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Observability.ListenAddress != "" {
		go func() {
			err := telemetry.StartHTTPServer(runCtx, telemetry.HTTPServerOptions{
				Addr:          cfg.Observability.ListenAddress,
				EnableMetrics: true,
				EnableHealthz: true,
				Registry:      comps.registry,
				Checks: map[string]telemetry.HealthCheck{
					"snapshots": func(ctx context.Context) error {
						_, err := comps.store.ListKeys(ctx)
						return err
					},
				},
			}, a.logger)
			if err != nil {
				a.logger.Error("observability server stopped", zap.Error(err))
			}
		}()
	}

	server := tools.NewServer(comps.surface, &mcp.Implementation{
		Name:    domain.DefaultServerName,
		Version: Version,
	})

	a.logger.Info("bazaar tool server starting",
		zap.String("transport", string(cfg.Server.Transport)),
		zap.String("snapshotBackend", string(cfg.Snapshot.Backend)),
		zap.Bool("saveOnFetch", cfg.Snapshot.SaveOnFetch),
	)

	switch cfg.Server.Transport {
	case domain.TransportStdio, "":
		err = server.Run(runCtx, &mcp.StdioTransport{})
	case domain.TransportStreamableHTTP:
		err = a.serveStreamableHTTP(runCtx, server, cfg.Server)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownTransport, cfg.Server.Transport)
	}
	if err != nil && isShutdown(err) {
		return nil
	}
	return err
}

func (a *App) serveStreamableHTTP(ctx context.Context, server *mcp.Server, cfg domain.ServerConfig) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	mux := http.NewServeMux()
	mux.Handle(cfg.HTTPPath, handler)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("streamable http listening", zap.String("addr", cfg.HTTPAddr), zap.String("path", cfg.HTTPPath))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("streamable http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("streamable http shutdown error", zap.Error(err))
			return err
		}
		a.logger.Info("streamable http stopped")
		return nil
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"bazaarmcp/internal/app"
	"bazaarmcp/internal/domain"
	"bazaarmcp/internal/infra/config"
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
}

type serveOptions struct {
	transport string
	httpAddr  string
	httpPath  string
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	root := newRootCmd(&logger)
	if err := root.Execute(); err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

// newRootCmd swaps *logger for one built from --log-level before any
// subcommand runs.
func newRootCmd(logger **zap.Logger) *cobra.Command {
	opts := rootOptions{
		envFile: ".env",
	}

	root := &cobra.Command{
		Use:           "bazaarmcp",
		Short:         "Hypixel SkyBlock bazaar tools over MCP",
		Version:       fmt.Sprintf("%s (%s)", app.Version, app.Build),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logLevel != "" {
				built, err := app.NewLogger(opts.logLevel)
				if err != nil {
					return err
				}
				*logger = built
			}
			if opts.envFile != "" {
				loaded, err := config.LoadDotEnv(opts.envFile)
				if err != nil {
					return err
				}
				if loaded {
					(*logger).Debug("loaded env file", zap.String("path", opts.envFile))
				}
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "path to YAML config file (defaults and environment only when empty)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", opts.envFile, "dotenv file loaded before reading config; empty to skip")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(logger, &opts),
		newFetchCmd(logger, &opts),
		newSnapshotsCmd(logger, &opts),
		newValidateCmd(logger, &opts),
	)

	return root
}

func newServeCmd(logger **zap.Logger, opts *rootOptions) *cobra.Command {
	serve := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application := app.New(*logger)
			cfg, err := application.LoadConfig(ctx, opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("transport") {
				cfg.Server.Transport = domain.TransportKind(serve.transport)
			}
			if cmd.Flags().Changed("http-addr") {
				cfg.Server.HTTPAddr = serve.httpAddr
			}
			if cmd.Flags().Changed("http-path") {
				cfg.Server.HTTPPath = serve.httpPath
			}
			return application.Serve(ctx, cfg)
		},
	}

	bindServeFlags(cmd.Flags(), &serve)

	return cmd
}

func bindServeFlags(flags *pflag.FlagSet, serve *serveOptions) {
	flags.StringVar(&serve.transport, "transport", string(domain.DefaultServerTransport), "transport (stdio, streamable-http)")
	flags.StringVar(&serve.httpAddr, "http-addr", domain.DefaultHTTPListenAddress, "listen address for streamable-http")
	flags.StringVar(&serve.httpPath, "http-path", domain.DefaultHTTPPath, "endpoint path for streamable-http")
}

func newFetchCmd(logger **zap.Logger, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the bazaar once and save a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application := app.New(*logger)
			cfg, err := application.LoadConfig(ctx, opts.configPath)
			if err != nil {
				return err
			}
			key, err := application.Capture(ctx, cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
			return err
		},
	}

	return cmd
}

func newSnapshotsCmd(logger **zap.Logger, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect stored snapshots",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List snapshot timestamps, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application := app.New(*logger)
			cfg, err := application.LoadConfig(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			keys, err := application.Snapshots(cmd.Context(), cfg.Snapshot)
			if err != nil {
				return err
			}
			for _, key := range keys {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), key); err != nil {
					return err
				}
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <timestamp>",
		Short: "Print one snapshot as indented JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application := app.New(*logger)
			cfg, err := application.LoadConfig(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			dataset, err := application.Snapshot(cmd.Context(), cfg.Snapshot, args[0])
			if err != nil {
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, dataset, "", "  "); err != nil {
				return fmt.Errorf("indent snapshot: %w", err)
			}
			out.WriteByte('\n')
			_, err = out.WriteTo(cmd.OutOrStdout())
			return err
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func newValidateCmd(logger **zap.Logger, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration without serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			application := app.New(*logger)
			return application.ValidateConfig(cmd.Context(), opts.configPath)
		},
	}

	return cmd
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

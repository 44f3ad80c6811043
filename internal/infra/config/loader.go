package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"bazaarmcp/internal/domain"
)

// EnvPrefix namespaces environment overrides, e.g. BAZAARMCP_SNAPSHOT_DIR.
const EnvPrefix = "BAZAARMCP"

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("config")}
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bazaar.baseURL", domain.DefaultBazaarBaseURL)
	v.SetDefault("bazaar.apiKey", "")
	v.SetDefault("bazaar.timeoutSeconds", domain.DefaultBazaarTimeoutSeconds)
	v.SetDefault("snapshot.backend", string(domain.DefaultSnapshotBackend))
	v.SetDefault("snapshot.dir", domain.DefaultSnapshotDir)
	v.SetDefault("snapshot.boltPath", domain.DefaultSnapshotBoltPath)
	v.SetDefault("snapshot.saveOnFetch", domain.DefaultSnapshotSaveOnFetch)
	v.SetDefault("server.transport", string(domain.DefaultServerTransport))
	v.SetDefault("server.httpAddr", domain.DefaultHTTPListenAddress)
	v.SetDefault("server.httpPath", domain.DefaultHTTPPath)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
}

type rawConfig struct {
	Bazaar        rawBazaarConfig        `mapstructure:"bazaar"`
	Snapshot      rawSnapshotConfig      `mapstructure:"snapshot"`
	Server        rawServerConfig        `mapstructure:"server"`
	Observability rawObservabilityConfig `mapstructure:"observability"`
}

type rawBazaarConfig struct {
	BaseURL        string `mapstructure:"baseURL"`
	APIKey         string `mapstructure:"apiKey"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
}

type rawSnapshotConfig struct {
	Backend     string `mapstructure:"backend"`
	Dir         string `mapstructure:"dir"`
	BoltPath    string `mapstructure:"boltPath"`
	SaveOnFetch bool   `mapstructure:"saveOnFetch"`
}

type rawServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPAddr  string `mapstructure:"httpAddr"`
	HTTPPath  string `mapstructure:"httpPath"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress"`
}

// Load reads the YAML file at path, or only defaults and environment when
// path is empty, and returns the validated configuration.
func (l *Loader) Load(ctx context.Context, path string) (domain.Config, error) {
	v := newConfigViper()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.Config{}, fmt.Errorf("read config: %w", err)
		}
		expanded, missing, err := expandConfigEnv(data)
		if err != nil {
			return domain.Config{}, err
		}
		if len(missing) > 0 {
			l.logger.Warn("missing environment variables in config", zap.String("path", path), zap.Strings("missing", missing))
		}
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return domain.Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return domain.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Config{}, err
	}

	cfg := normalizeConfig(raw)
	if cfg.Bazaar.APIKey == "" {
		cfg.Bazaar.APIKey = os.Getenv(domain.DefaultAPIKeyEnvVar)
	}
	if errs := Validate(cfg); len(errs) > 0 {
		return domain.Config{}, errors.New(strings.Join(errs, "; "))
	}
	if cfg.Bazaar.APIKey == "" {
		l.logger.Warn("no bazaar api key configured; requests are sent without a key", zap.String("env", domain.DefaultAPIKeyEnvVar))
	}
	return cfg, nil
}

func normalizeConfig(raw rawConfig) domain.Config {
	return domain.Config{
		Bazaar: domain.BazaarConfig{
			BaseURL:        strings.TrimRight(strings.TrimSpace(raw.Bazaar.BaseURL), "/"),
			APIKey:         strings.TrimSpace(raw.Bazaar.APIKey),
			TimeoutSeconds: raw.Bazaar.TimeoutSeconds,
		},
		Snapshot: domain.SnapshotConfig{
			Backend:     domain.SnapshotBackend(strings.ToLower(strings.TrimSpace(raw.Snapshot.Backend))),
			Dir:         strings.TrimSpace(raw.Snapshot.Dir),
			BoltPath:    strings.TrimSpace(raw.Snapshot.BoltPath),
			SaveOnFetch: raw.Snapshot.SaveOnFetch,
		},
		Server: domain.ServerConfig{
			Transport: domain.TransportKind(strings.ToLower(strings.TrimSpace(raw.Server.Transport))),
			HTTPAddr:  strings.TrimSpace(raw.Server.HTTPAddr),
			HTTPPath:  strings.TrimSpace(raw.Server.HTTPPath),
		},
		Observability: domain.ObservabilityConfig{
			ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress),
		},
	}
}

// Validate returns one message per invalid field.
func Validate(cfg domain.Config) []string {
	var errs []string

	if u, err := url.Parse(cfg.Bazaar.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("bazaar.baseURL must be an absolute url: %q", cfg.Bazaar.BaseURL))
	}
	if cfg.Bazaar.TimeoutSeconds <= 0 {
		errs = append(errs, "bazaar.timeoutSeconds must be > 0")
	}

	switch cfg.Snapshot.Backend {
	case domain.SnapshotBackendFile:
		if cfg.Snapshot.Dir == "" {
			errs = append(errs, "snapshot.dir is required for the file backend")
		}
	case domain.SnapshotBackendBolt:
		if cfg.Snapshot.BoltPath == "" {
			errs = append(errs, "snapshot.boltPath is required for the bolt backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("snapshot.backend: %v %q", domain.ErrUnknownBackend, cfg.Snapshot.Backend))
	}

	switch cfg.Server.Transport {
	case domain.TransportStdio:
	case domain.TransportStreamableHTTP:
		if cfg.Server.HTTPAddr == "" {
			errs = append(errs, "server.httpAddr is required for streamable-http")
		}
		if !strings.HasPrefix(cfg.Server.HTTPPath, "/") {
			errs = append(errs, "server.httpPath must start with /")
		}
	default:
		errs = append(errs, fmt.Sprintf("server.transport: %v %q", domain.ErrUnknownTransport, cfg.Server.Transport))
	}

	return errs
}

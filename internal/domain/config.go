package domain

import "time"

// TransportKind selects how the tool server talks to its client.
type TransportKind string

const (
	TransportStdio          TransportKind = "stdio"
	TransportStreamableHTTP TransportKind = "streamable-http"
)

// Config is the process configuration, built once at startup and passed
// into every constructor.
type Config struct {
	Bazaar        BazaarConfig
	Snapshot      SnapshotConfig
	Server        ServerConfig
	Observability ObservabilityConfig
}

// BazaarConfig configures the remote fetcher.
type BazaarConfig struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Timeout returns the HTTP client timeout.
func (c BazaarConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SnapshotConfig configures the snapshot cache.
type SnapshotConfig struct {
	Backend     SnapshotBackend
	Dir         string
	BoltPath    string
	SaveOnFetch bool
}

// ServerConfig configures the MCP transport.
type ServerConfig struct {
	Transport TransportKind
	HTTPAddr  string
	HTTPPath  string
}

// ObservabilityConfig configures the metrics and health listener.
type ObservabilityConfig struct {
	ListenAddress string
}

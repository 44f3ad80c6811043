package domain

const (
	DefaultBazaarBaseURL              = "https://api.hypixel.net"
	DefaultBazaarTimeoutSeconds       = 30
	DefaultAPIKeyEnvVar               = "HYPIXEL_API_KEY"
	DefaultSnapshotBackend            = SnapshotBackendFile
	DefaultSnapshotDir                = "past_data"
	DefaultSnapshotBoltPath           = "past_data/snapshots.db"
	DefaultSnapshotSaveOnFetch        = true
	DefaultServerTransport            = TransportStdio
	DefaultHTTPListenAddress          = "127.0.0.1:8090"
	DefaultHTTPPath                   = "/mcp"
	DefaultObservabilityListenAddress = ""
	DefaultServerName                 = "hypixel"
	DefaultServerVersion              = "0.1.0"
)

// BazaarPath is the bazaar endpoint relative to the API base URL.
const BazaarPath = "/v2/skyblock/bazaar"

// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// HTTP Server - these keys configure the listener and the public address the proxy is reachable at.
const (
	ServerListen = "server.listen"
	ProxyBaseURL = "proxy.base_url"
)

// Episode-mapping provider.
const (
	MetaBaseURL     = "providers.meta.base_url"
	MetaTarget      = "providers.meta.target"
	MetaSkipPrimary = "providers.meta.skip_primary"
)

// Scraping-style provider with its alternate upstream.
const (
	LegacyBaseURL        = "providers.legacy.base_url"
	LegacyAlternateURL   = "providers.legacy.alternate_url"
	LegacyServer         = "providers.legacy.server"
	LegacyTLSFingerprint = "providers.legacy.tls_fingerprint"
)

// Session-based provider.
const (
	SessionBaseURL = "providers.session.base_url"
	SessionFast    = "providers.session.fast"
)

// Single-provider upstream.
const (
	DirectBaseURL = "providers.direct.base_url"
)

// Upstream Fetching - these keys govern per-attempt deadlines and the retry policy.
const (
	FetchTimeoutMs      = "fetch.timeout_ms"
	FetchLargeTimeoutMs = "fetch.large_timeout_ms"
	FetchMaxRetries     = "fetch.max_retries"
	FetchBaseDelayMs    = "fetch.base_delay_ms"
)

// Bulk Listing - these keys define the sequential pacing and per-request id limits.
const (
	BulkDelayMs = "bulk.delay_ms"
	BulkMaxPost = "bulk.max_post"
	BulkMaxGet  = "bulk.max_get"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment.
const (
	CliColored = "cli.colored"
)

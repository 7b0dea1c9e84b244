package config

import "time"

// Config is the root configuration structure for the broker proxy.
// It contains all configuration sections for the listener, security,
// admission/lookup limits, topic stats, discovery, and telemetry.
type Config struct {
	// Proxy contains listener and admission configuration for the
	// client-facing and backend-facing sockets.
	Proxy ProxyConfig `yaml:"proxy"`

	// Egress contains the allow-list rules a direct-splice target must
	// satisfy before the proxy will dial it.
	Egress EgressConfig `yaml:"egress"`

	// Limits contains admission caps, lookup-request concurrency, and
	// topic-stats retention.
	Limits LimitsConfig `yaml:"limits"`

	// Discovery contains configuration for the broker discovery provider.
	Discovery DiscoveryConfig `yaml:"discovery"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains security-related configuration including TLS
	// settings, mutual TLS, and client authentication.
	Security SecurityConfig `yaml:"security"`
}

// ProxyConfig contains listener, acceptor, and admission configuration
// for the broker proxy server, named after spec §6's external interface.
type ProxyConfig struct {
	// BindAddress is the address the listener binds to.
	// Default: "0.0.0.0"
	BindAddress string `yaml:"bindAddress"`

	// ServicePort is the plaintext listener port.
	// Default: 6650
	ServicePort int `yaml:"servicePort"`

	// ServicePortTLS is the TLS listener port. A zero value disables the
	// TLS listener entirely.
	// Default: 0 (disabled)
	ServicePortTLS int `yaml:"servicePortTls"`

	// AdvertisedAddress is the address advertised to clients and used in
	// metrics labels.
	AdvertisedAddress string `yaml:"advertisedAddress"`

	// ClusterName is used as a metrics label and in log context.
	ClusterName string `yaml:"clusterName"`

	// NumAcceptorThreads is the number of goroutines accepting new
	// connections on the listener socket.
	// Default: 1
	NumAcceptorThreads int `yaml:"numAcceptorThreads"`

	// NumIOThreads is the number of I/O worker goroutines a connection
	// can be assigned to once accepted.
	// Default: runtime.NumCPU()
	NumIOThreads int `yaml:"numIOThreads"`

	// ProxyLogLevel controls per-connection frame logging verbosity.
	// 0 = off, 1 = connect/disconnect only, 2 = every frame.
	// Default: 0
	ProxyLogLevel int `yaml:"proxyLogLevel"`

	// ProxyZeroCopyModeEnabled requests Linux splice(2) zero-copy
	// forwarding for the direct-proxy path. Only honoured when the
	// runtime OS provides a kernel splice primitive and both ends of the
	// connection are plaintext TCP.
	// Default: false
	ProxyZeroCopyModeEnabled bool `yaml:"proxyZeroCopyModeEnabled"`

	// ReadTimeout bounds how long the connect/auth handshake may take
	// before the proxy closes the connection.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"readTimeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight
	// connections to drain during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// EgressConfig contains the direct-splice target allow-list. All three
// lists default to empty, which denies every target (spec §6: "All three
// default to deny-all; if unset the proxy MUST refuse any direct-splice
// target").
type EgressConfig struct {
	// AllowedHostNames is a list of glob patterns (e.g. "*.broker.local")
	// a resolved broker hostname must match.
	AllowedHostNames []string `yaml:"brokerProxyAllowedHostNames"`

	// AllowedIPAddresses is a list of CIDR blocks a resolved broker IP
	// address must fall within.
	AllowedIPAddresses []string `yaml:"brokerProxyAllowedIPAddresses"`

	// AllowedTargetPorts is a list of port ranges (e.g. "6650", "6651-6680")
	// a broker target port must fall within.
	AllowedTargetPorts []string `yaml:"brokerProxyAllowedTargetPorts"`
}

// LimitsConfig contains admission caps, lookup-request concurrency, and
// topic-stats retention.
type LimitsConfig struct {
	// MaxConcurrentInboundConnections caps the total number of connections
	// the proxy will admit across all clients.
	// Default: 10000
	MaxConcurrentInboundConnections int `yaml:"maxConcurrentInboundConnections"`

	// MaxConcurrentInboundConnectionsPerIP caps the number of connections
	// the proxy will admit from a single source IP.
	// Default: 100
	MaxConcurrentInboundConnectionsPerIP int `yaml:"maxConcurrentInboundConnectionsPerIp"`

	// MaxConcurrentLookupRequests caps the number of in-flight Lookup,
	// PartitionedMetadata, GetSchema, and GetOrCreateSchema requests
	// serviced at once (spec §9: both topic and schema lookups share one
	// semaphore).
	// Default: 50000
	MaxConcurrentLookupRequests int `yaml:"maxConcurrentLookupRequests"`

	// TopicStats configures per-topic byte/message counter retention.
	TopicStats TopicStatsConfig `yaml:"topicStats"`
}

// TopicStatsConfig configures the per-topic statistics roll-up.
type TopicStatsConfig struct {
	// RollupInterval is how often accumulated per-topic counters are
	// rolled up and reset.
	// Default: 60s
	RollupInterval time.Duration `yaml:"rollupInterval"`

	// MaxTrackedTopics bounds the number of distinct topics tracked at
	// once; least-recently-used topics are evicted beyond this (Open
	// Question decision, see DESIGN.md).
	// Default: 100000
	MaxTrackedTopics int `yaml:"maxTrackedTopics"`
}

// DiscoveryConfig contains configuration for the broker discovery
// provider, kept intentionally small since the provider itself is an
// external pluggable interface (spec §2, §4.4).
type DiscoveryConfig struct {
	// Strategy selects how the discovery provider picks among active
	// brokers for a topic it does not already own.
	// Options: "round-robin", "sticky", "health-based", "manual"
	// Default: "round-robin"
	Strategy string `yaml:"strategy"`

	// RefreshInterval is how often the discovery provider refreshes its
	// view of active brokers.
	// Default: 30s
	RefreshInterval time.Duration `yaml:"refreshInterval"`

	// StaticBrokers seeds the reference in-memory discovery provider with
	// a fixed broker set when no external coordination system is wired in.
	StaticBrokers []string `yaml:"staticBrokers"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII enables automatic redaction of client IPs and auth
	// material in logs.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// BufferSize is the size of the async log buffer.
	// Default: 10000
	BufferSize int `yaml:"buffer_size"`

	// RedactPatterns contains custom redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Port is an optional separate port for metrics (0 = disabled, the
	// proxy's data-plane listener never doubles as an HTTP server).
	// Default: 8081
	Port int `yaml:"port"`

	// Namespace is the metric name prefix.
	// Default: "pulsar"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "proxy"
	Subsystem string `yaml:"subsystem"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1 (10%)
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name attached to emitted spans.
	// Default: "broker-proxy"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	// TLS contains TLS configuration for the client-facing listener.
	TLS TLSConfig `yaml:"tls"`

	// BrokerTLS contains TLS configuration used when the proxy dials a
	// backend broker.
	BrokerTLS TLSConfig `yaml:"brokerTls"`

	// Secrets contains secret management configuration.
	Secrets SecretsConfig `yaml:"secrets"`

	// Authentication contains client authentication configuration.
	Authentication AuthenticationConfig `yaml:"authentication"`
}

// TLSConfig contains TLS configuration.
type TLSConfig struct {
	// Enabled controls whether TLS is enabled.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the TLS certificate file.
	// Required when Enabled is true.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the TLS private key file.
	// Required when Enabled is true.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the minimum TLS version to accept.
	// Options: "1.2", "1.3"
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// CipherSuites is a list of enabled TLS cipher suites.
	// If empty, Go's default secure cipher suites are used.
	CipherSuites []string `yaml:"cipher_suites"`

	// ReloadInterval is how often to check for certificate changes on
	// disk and reload them without restarting the listener.
	// Default: "5m"
	ReloadInterval string `yaml:"cert_reload_interval"`

	// MTLS contains mutual TLS (client certificate) configuration.
	MTLS MTLSConfig `yaml:"mtls"`
}

// MTLSConfig contains mutual TLS configuration.
type MTLSConfig struct {
	// Enabled controls whether mutual TLS is required.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ClientCAFile is the path to the CA certificate file for verifying
	// client certificates.
	// Required when Enabled is true.
	ClientCAFile string `yaml:"client_ca_file"`

	// ClientAuthType specifies how to handle client certificates.
	// Options: "require", "request", "verify_if_given"
	// Default: "require"
	ClientAuthType string `yaml:"client_auth_type"`

	// IdentitySource specifies how to extract client identity from the
	// certificate.
	// Options: "subject.CN", "subject.OU", "subject.O", "SAN"
	// Default: "subject.CN"
	IdentitySource string `yaml:"identity_source"`
}

// SecretsConfig contains secret management configuration.
type SecretsConfig struct {
	// Providers is a list of secret providers to use, tried in order
	// until one successfully returns a value.
	Providers []SecretProviderConfig `yaml:"providers"`
}

// SecretProviderConfig contains configuration for a secret provider.
type SecretProviderConfig struct {
	// Type is the provider type.
	// Options: "env", "file"
	Type string `yaml:"type"`

	// Enabled controls whether this provider is enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Prefix is the environment variable prefix (for "env" provider).
	Prefix string `yaml:"prefix,omitempty"`

	// Path is the base path for file-based secrets (for "file" provider).
	Path string `yaml:"path,omitempty"`

	// Watch enables file watching for auto-reload (for "file" provider).
	// Default: true
	Watch bool `yaml:"watch,omitempty"`
}

// AuthenticationConfig contains client authentication configuration.
type AuthenticationConfig struct {
	// Enabled controls whether the proxy challenges clients for an
	// AuthResponse before admitting them to the Connected state.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Method is the auth method name advertised in AuthChallenge.
	// Example: "token"
	Method string `yaml:"method"`

	// Tokens is the list of valid static tokens accepted in AuthResponse.
	// This reference implementation is a stand-in for an external
	// authentication provider (spec §4.1/§9 treats authn/authz as
	// externally pluggable).
	Tokens []AuthTokenConfig `yaml:"tokens"`
}

// AuthTokenConfig contains configuration for a single static auth token.
type AuthTokenConfig struct {
	// Token is the shared-secret value presented in AuthResponse.
	Token string `yaml:"token"`

	// Role identifies the principal the token authenticates as; used by
	// the authorizer when deciding which topics a connection may reach.
	Role string `yaml:"role"`

	// Enabled controls whether this token is currently accepted.
	// Default: true
	Enabled bool `yaml:"enabled"`
}

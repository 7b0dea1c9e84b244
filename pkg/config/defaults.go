package config

import "time"

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultBindAddress       = "0.0.0.0"
	DefaultServicePort       = 6650
	DefaultNumAcceptorThreads = 1
	DefaultNumIOThreads      = 4
	DefaultProxyLogLevel     = 0
	DefaultReadTimeout       = 30 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second

	// Limits defaults
	DefaultMaxConcurrentInboundConnections       = 10000
	DefaultMaxConcurrentInboundConnectionsPerIP  = 100
	DefaultMaxConcurrentLookupRequests            = 50000
	DefaultTopicStatsRollupInterval                = 60 * time.Second
	DefaultTopicStatsMaxTrackedTopics              = 100000

	// Discovery defaults
	DefaultDiscoveryStrategy       = "round-robin"
	DefaultDiscoveryRefreshInterval = 30 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultMetricsEnabled      = true
	DefaultMetricsPath         = "/metrics"
	DefaultMetricsPort         = 8081
	DefaultMetricsNamespace    = "pulsar"
	DefaultMetricsSubsystem    = "proxy"
	DefaultTracingSamplingRate = 0.1
	DefaultTracingSampler      = "ratio"
	DefaultTracingServiceName  = "broker-proxy"
	DefaultHealthLivenessPath  = "/health"
	DefaultHealthReadinessPath = "/ready"
	DefaultHealthCheckTimeout  = 5 * time.Second

	// Security defaults
	DefaultTLSEnabled     = false
	DefaultTLSMinVersion  = "1.3"
	DefaultMTLSEnabled    = false
	DefaultMTLSAuthType   = "require"
	DefaultMTLSIdentitySource = "subject.CN"
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	applyProxyDefaults(cfg)
	applyLimitsDefaults(cfg)
	applyDiscoveryDefaults(cfg)
	applyTelemetryDefaults(cfg)
	applySecurityDefaults(cfg)
}

func applyProxyDefaults(cfg *Config) {
	if cfg.Proxy.BindAddress == "" {
		cfg.Proxy.BindAddress = DefaultBindAddress
	}
	if cfg.Proxy.ServicePort == 0 {
		cfg.Proxy.ServicePort = DefaultServicePort
	}
	if cfg.Proxy.NumAcceptorThreads == 0 {
		cfg.Proxy.NumAcceptorThreads = DefaultNumAcceptorThreads
	}
	if cfg.Proxy.NumIOThreads == 0 {
		cfg.Proxy.NumIOThreads = DefaultNumIOThreads
	}
	if cfg.Proxy.ReadTimeout == 0 {
		cfg.Proxy.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Proxy.ShutdownTimeout == 0 {
		cfg.Proxy.ShutdownTimeout = DefaultShutdownTimeout
	}
	// ServicePortTLS, ProxyLogLevel, and ProxyZeroCopyModeEnabled are left
	// at their zero values: a zero ServicePortTLS disables the TLS
	// listener, and the other two are meaningfully false/off by default.
}

func applyLimitsDefaults(cfg *Config) {
	if cfg.Limits.MaxConcurrentInboundConnections == 0 {
		cfg.Limits.MaxConcurrentInboundConnections = DefaultMaxConcurrentInboundConnections
	}
	if cfg.Limits.MaxConcurrentInboundConnectionsPerIP == 0 {
		cfg.Limits.MaxConcurrentInboundConnectionsPerIP = DefaultMaxConcurrentInboundConnectionsPerIP
	}
	if cfg.Limits.MaxConcurrentLookupRequests == 0 {
		cfg.Limits.MaxConcurrentLookupRequests = DefaultMaxConcurrentLookupRequests
	}
	if cfg.Limits.TopicStats.RollupInterval == 0 {
		cfg.Limits.TopicStats.RollupInterval = DefaultTopicStatsRollupInterval
	}
	if cfg.Limits.TopicStats.MaxTrackedTopics == 0 {
		cfg.Limits.TopicStats.MaxTrackedTopics = DefaultTopicStatsMaxTrackedTopics
	}
}

func applyDiscoveryDefaults(cfg *Config) {
	if cfg.Discovery.Strategy == "" {
		cfg.Discovery.Strategy = DefaultDiscoveryStrategy
	}
	if cfg.Discovery.RefreshInterval == 0 {
		cfg.Discovery.RefreshInterval = DefaultDiscoveryRefreshInterval
	}
}

func applyTelemetryDefaults(cfg *Config) {
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Port == 0 {
		cfg.Telemetry.Metrics.Port = DefaultMetricsPort
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultHealthLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultHealthReadinessPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
	// Enabled fields (Metrics.Enabled, Health.Enabled) default to true but
	// are only forced on when nothing in the telemetry block was set, to
	// respect an explicit opt-out; see validate.go for the opt-out path.
	if !cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.Path == DefaultMetricsPath {
		cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	}
	if !cfg.Telemetry.Health.Enabled && cfg.Telemetry.Health.LivenessPath == DefaultHealthLivenessPath {
		cfg.Telemetry.Health.Enabled = true
	}
}

func applySecurityDefaults(cfg *Config) {
	if cfg.Security.TLS.MinVersion == "" {
		cfg.Security.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Security.BrokerTLS.MinVersion == "" {
		cfg.Security.BrokerTLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Security.TLS.MTLS.ClientAuthType == "" {
		cfg.Security.TLS.MTLS.ClientAuthType = DefaultMTLSAuthType
	}
	if cfg.Security.TLS.MTLS.IdentitySource == "" {
		cfg.Security.TLS.MTLS.IdentitySource = DefaultMTLSIdentitySource
	}
}

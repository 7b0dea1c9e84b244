package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow the
// naming convention BROKERPROXY_SECTION_FIELD (e.g.,
// BROKERPROXY_PROXY_BIND_ADDRESS). Environment variables always take
// precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format
// BROKERPROXY_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("BROKERPROXY_PROXY_BIND_ADDRESS"); val != "" {
		cfg.Proxy.BindAddress = val
	}
	if val := os.Getenv("BROKERPROXY_PROXY_SERVICE_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Proxy.ServicePort = i
		}
	}
	if val := os.Getenv("BROKERPROXY_PROXY_SERVICE_PORT_TLS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Proxy.ServicePortTLS = i
		}
	}
	if val := os.Getenv("BROKERPROXY_PROXY_ADVERTISED_ADDRESS"); val != "" {
		cfg.Proxy.AdvertisedAddress = val
	}
	if val := os.Getenv("BROKERPROXY_PROXY_CLUSTER_NAME"); val != "" {
		cfg.Proxy.ClusterName = val
	}
	if val := os.Getenv("BROKERPROXY_PROXY_LOG_LEVEL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Proxy.ProxyLogLevel = i
		}
	}
	if val := os.Getenv("BROKERPROXY_PROXY_ZERO_COPY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Proxy.ProxyZeroCopyModeEnabled = b
		}
	}
	if val := os.Getenv("BROKERPROXY_PROXY_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Proxy.ReadTimeout = d
		}
	}

	if val := os.Getenv("BROKERPROXY_LIMITS_MAX_CONCURRENT_INBOUND_CONNECTIONS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Limits.MaxConcurrentInboundConnections = i
		}
	}
	if val := os.Getenv("BROKERPROXY_LIMITS_MAX_CONCURRENT_INBOUND_CONNECTIONS_PER_IP"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Limits.MaxConcurrentInboundConnectionsPerIP = i
		}
	}
	if val := os.Getenv("BROKERPROXY_LIMITS_MAX_CONCURRENT_LOOKUP_REQUESTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Limits.MaxConcurrentLookupRequests = i
		}
	}

	if val := os.Getenv("BROKERPROXY_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("BROKERPROXY_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("BROKERPROXY_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("BROKERPROXY_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("BROKERPROXY_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}

	if val := os.Getenv("BROKERPROXY_SECURITY_TLS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Security.TLS.Enabled = b
		}
	}
	if val := os.Getenv("BROKERPROXY_SECURITY_TLS_CERT_FILE"); val != "" {
		cfg.Security.TLS.CertFile = val
	}
	if val := os.Getenv("BROKERPROXY_SECURITY_TLS_KEY_FILE"); val != "" {
		cfg.Security.TLS.KeyFile = val
	}
	if val := os.Getenv("BROKERPROXY_SECURITY_MTLS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Security.TLS.MTLS.Enabled = b
		}
	}
	if val := os.Getenv("BROKERPROXY_SECURITY_MTLS_CA_FILE"); val != "" {
		cfg.Security.TLS.MTLS.ClientCAFile = val
	}
	if val := os.Getenv("BROKERPROXY_SECURITY_AUTH_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Security.Authentication.Enabled = b
		}
	}
}

package config

import (
	"fmt"
	"strings"
	"time"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "proxy.bindAddress").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateEgress(&cfg.Egress)...)
	errs = append(errs, validateLimits(&cfg.Limits)...)
	errs = append(errs, validateDiscovery(&cfg.Discovery)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateProxy validates listener and acceptor configuration.
func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if cfg.BindAddress == "" {
		errs = append(errs, FieldError{
			Field:   "proxy.bindAddress",
			Message: "bind address is required",
		})
	}

	if cfg.ServicePort < 1 || cfg.ServicePort > 65535 {
		errs = append(errs, FieldError{
			Field:   "proxy.servicePort",
			Message: "service port must be between 1 and 65535",
		})
	}
	if cfg.ServicePortTLS != 0 && (cfg.ServicePortTLS < 1 || cfg.ServicePortTLS > 65535) {
		errs = append(errs, FieldError{
			Field:   "proxy.servicePortTls",
			Message: "TLS service port must be between 1 and 65535 when set",
		})
	}
	if cfg.ServicePortTLS != 0 && cfg.ServicePortTLS == cfg.ServicePort {
		errs = append(errs, FieldError{
			Field:   "proxy.servicePortTls",
			Message: "TLS service port must differ from the plaintext service port",
		})
	}

	if cfg.NumAcceptorThreads < 1 {
		errs = append(errs, FieldError{
			Field:   "proxy.numAcceptorThreads",
			Message: "at least one acceptor thread is required",
		})
	}
	if cfg.NumIOThreads < 1 {
		errs = append(errs, FieldError{
			Field:   "proxy.numIOThreads",
			Message: "at least one I/O thread is required",
		})
	}

	if cfg.ProxyLogLevel < 0 || cfg.ProxyLogLevel > 2 {
		errs = append(errs, FieldError{
			Field:   "proxy.proxyLogLevel",
			Message: "proxy log level must be 0 (off), 1 (connect/disconnect), or 2 (every frame)",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.readTimeout",
			Message: "read timeout must be non-negative",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.shutdownTimeout",
			Message: "shutdown timeout must be non-negative",
		})
	}

	return errs
}

// validateEgress validates the direct-splice target allow-lists. Unset
// lists are valid (they mean deny-all per spec §6) so there is nothing to
// reject here beyond structurally well-formed entries, which the egress
// package itself parses and rejects at startup.
func validateEgress(cfg *EgressConfig) []FieldError {
	return nil
}

// validateLimits validates admission, lookup, and topic-stats limits.
func validateLimits(cfg *LimitsConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxConcurrentInboundConnections < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.maxConcurrentInboundConnections",
			Message: "must be non-negative (0 rejects every new connection)",
		})
	}
	if cfg.MaxConcurrentInboundConnectionsPerIP < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.maxConcurrentInboundConnectionsPerIp",
			Message: "must be non-negative",
		})
	}
	if cfg.MaxConcurrentLookupRequests < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.maxConcurrentLookupRequests",
			Message: "must be non-negative",
		})
	}
	if cfg.TopicStats.RollupInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.topicStats.rollupInterval",
			Message: "must be non-negative",
		})
	}
	if cfg.TopicStats.MaxTrackedTopics < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.topicStats.maxTrackedTopics",
			Message: "must be non-negative",
		})
	}

	return errs
}

// validateDiscovery validates discovery provider configuration.
func validateDiscovery(cfg *DiscoveryConfig) []FieldError {
	var errs []FieldError

	validStrategies := map[string]bool{"round-robin": true, "sticky": true, "health-based": true, "manual": true}
	if cfg.Strategy != "" && !validStrategies[cfg.Strategy] {
		errs = append(errs, FieldError{
			Field:   "discovery.strategy",
			Message: fmt.Sprintf("invalid strategy %q: must be 'round-robin', 'sticky', 'health-based', or 'manual'", cfg.Strategy),
		})
	}
	if cfg.RefreshInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "discovery.refreshInterval",
			Message: "refresh interval must be non-negative",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path is required when metrics are enabled",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if cfg.Health.Enabled {
		if cfg.Health.LivenessPath == "" || cfg.Health.LivenessPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.liveness_path",
				Message: "liveness path is required and must start with /",
			})
		}
		if cfg.Health.ReadinessPath == "" || cfg.Health.ReadinessPath[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.readiness_path",
				Message: "readiness path is required and must start with /",
			})
		}
		if cfg.Health.CheckTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be non-negative",
			})
		}
		if cfg.Health.CheckTimeout > 60*time.Second {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout exceeds reasonable limit (60s)",
			})
		}
	}

	return errs
}

// validateSecurity validates TLS, mTLS, and authentication configuration.
func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	errs = append(errs, validateTLS("security.tls", &cfg.TLS)...)
	errs = append(errs, validateTLS("security.brokerTls", &cfg.BrokerTLS)...)

	if cfg.Authentication.Enabled {
		if cfg.Authentication.Method == "" {
			errs = append(errs, FieldError{
				Field:   "security.authentication.method",
				Message: "an auth method name is required when authentication is enabled",
			})
		}
		if len(cfg.Authentication.Tokens) == 0 {
			errs = append(errs, FieldError{
				Field:   "security.authentication.tokens",
				Message: "at least one token is required when authentication is enabled",
			})
		}
	}

	return errs
}

func validateTLS(prefix string, cfg *TLSConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled {
		if cfg.CertFile == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".cert_file",
				Message: "TLS certificate file is required when TLS is enabled",
			})
		}
		if cfg.KeyFile == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".key_file",
				Message: "TLS key file is required when TLS is enabled",
			})
		}
		if cfg.MinVersion != "" && cfg.MinVersion != "1.2" && cfg.MinVersion != "1.3" {
			errs = append(errs, FieldError{
				Field:   prefix + ".min_version",
				Message: fmt.Sprintf("invalid TLS version %q: must be '1.2' or '1.3'", cfg.MinVersion),
			})
		}
	}

	if cfg.MTLS.Enabled {
		if cfg.MTLS.ClientCAFile == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".mtls.client_ca_file",
				Message: "mTLS client CA file is required when mTLS is enabled",
			})
		}
		if !cfg.Enabled {
			errs = append(errs, FieldError{
				Field:   prefix + ".mtls.enabled",
				Message: "mTLS requires TLS to be enabled",
			})
		}
	}

	return errs
}

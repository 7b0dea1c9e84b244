// Package config provides configuration management for the broker proxy.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// Call config.NewWatcher to additionally reload the file on change (used
// at runtime to pick up new egress allow-list entries or a different log
// level without a restart).
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention
// BROKERPROXY_SECTION_FIELD. For example:
//
//   - BROKERPROXY_PROXY_BIND_ADDRESS overrides proxy.bindAddress
//   - BROKERPROXY_LIMITS_MAX_CONCURRENT_LOOKUP_REQUESTS overrides limits.maxConcurrentLookupRequests
//   - BROKERPROXY_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Proxy.BindAddress)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Validation
//
// All configuration is validated automatically during loading. Validation includes:
//
//   - Required field checks (e.g., bind address, auth tokens)
//   - Range validation (e.g., ports must be 1-65535)
//   - Logical validation (e.g., mTLS requires TLS to be enabled)
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - proxy.servicePort: service port must be between 1 and 65535
//	  - security.tls.mtls.enabled: mTLS requires TLS to be enabled
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	proxy:
//	  bindAddress: "0.0.0.0"
//	  servicePort: 6650
//
//	egress:
//	  brokerProxyAllowedHostNames: ["*.broker.internal"]
//	  brokerProxyAllowedIPAddresses: ["10.0.0.0/8"]
//	  brokerProxyAllowedTargetPorts: ["6650", "6651-6660"]
//
//	limits:
//	  maxConcurrentInboundConnections: 10000
//	  maxConcurrentLookupRequests: 50000
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses read-write
// locks to allow concurrent reads while protecting against concurrent writes during
// reload operations.
package config

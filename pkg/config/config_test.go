package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestConfigYAMLRoundTrip(t *testing.T) {
	yamlContent := `
proxy:
  bindAddress: "0.0.0.0"
  servicePort: 6650
  servicePortTls: 6651
  advertisedAddress: "proxy-1.cluster.local"
  clusterName: "cluster-a"
  numAcceptorThreads: 2
  numIOThreads: 8
  proxyLogLevel: 1
  proxyZeroCopyModeEnabled: true

egress:
  brokerProxyAllowedHostNames: ["*.broker.internal"]
  brokerProxyAllowedIPAddresses: ["10.0.0.0/8"]
  brokerProxyAllowedTargetPorts: ["6650", "6651-6660"]

limits:
  maxConcurrentInboundConnections: 10000
  maxConcurrentInboundConnectionsPerIp: 100
  maxConcurrentLookupRequests: 50000

discovery:
  strategy: "sticky"
  staticBrokers: ["broker-1:6650", "broker-2:6650"]

telemetry:
  logging:
    level: "debug"
    format: "json"
`

	var cfg Config
	if err := yaml.Unmarshal([]byte(yamlContent), &cfg); err != nil {
		t.Fatalf("failed to unmarshal YAML: %v", err)
	}

	if cfg.Proxy.ServicePort != 6650 {
		t.Errorf("ServicePort = %d, want 6650", cfg.Proxy.ServicePort)
	}
	if cfg.Proxy.ServicePortTLS != 6651 {
		t.Errorf("ServicePortTLS = %d, want 6651", cfg.Proxy.ServicePortTLS)
	}
	if !cfg.Proxy.ProxyZeroCopyModeEnabled {
		t.Error("ProxyZeroCopyModeEnabled = false, want true")
	}
	if len(cfg.Egress.AllowedHostNames) != 1 || cfg.Egress.AllowedHostNames[0] != "*.broker.internal" {
		t.Errorf("AllowedHostNames = %v", cfg.Egress.AllowedHostNames)
	}
	if len(cfg.Egress.AllowedTargetPorts) != 2 {
		t.Errorf("AllowedTargetPorts = %v, want 2 entries", cfg.Egress.AllowedTargetPorts)
	}
	if cfg.Limits.MaxConcurrentLookupRequests != 50000 {
		t.Errorf("MaxConcurrentLookupRequests = %d, want 50000", cfg.Limits.MaxConcurrentLookupRequests)
	}
	if cfg.Discovery.Strategy != "sticky" {
		t.Errorf("Discovery.Strategy = %q, want sticky", cfg.Discovery.Strategy)
	}
	if len(cfg.Discovery.StaticBrokers) != 2 {
		t.Errorf("StaticBrokers = %v, want 2 entries", cfg.Discovery.StaticBrokers)
	}
}

func TestConfigDurationParsing(t *testing.T) {
	yamlContent := `
proxy:
  readTimeout: "45s"
  shutdownTimeout: "1m"
limits:
  topicStats:
    rollupInterval: "30s"
`
	var cfg Config
	if err := yaml.Unmarshal([]byte(yamlContent), &cfg); err != nil {
		t.Fatalf("failed to unmarshal YAML: %v", err)
	}

	if cfg.Proxy.ReadTimeout != 45*time.Second {
		t.Errorf("ReadTimeout = %v, want 45s", cfg.Proxy.ReadTimeout)
	}
	if cfg.Proxy.ShutdownTimeout != time.Minute {
		t.Errorf("ShutdownTimeout = %v, want 1m", cfg.Proxy.ShutdownTimeout)
	}
	if cfg.Limits.TopicStats.RollupInterval != 30*time.Second {
		t.Errorf("RollupInterval = %v, want 30s", cfg.Limits.TopicStats.RollupInterval)
	}
}

func TestEmptyEgressDefaultsToDenyAll(t *testing.T) {
	var cfg Config
	if len(cfg.Egress.AllowedHostNames) != 0 {
		t.Error("zero-value Config must have empty AllowedHostNames")
	}
	if len(cfg.Egress.AllowedIPAddresses) != 0 {
		t.Error("zero-value Config must have empty AllowedIPAddresses")
	}
	if len(cfg.Egress.AllowedTargetPorts) != 0 {
		t.Error("zero-value Config must have empty AllowedTargetPorts")
	}
}

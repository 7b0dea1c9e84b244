package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalValidYAML = `
proxy:
  bindAddress: "0.0.0.0"
  servicePort: 6650

telemetry:
  logging:
    level: "info"
    format: "json"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, minimalValidYAML)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Proxy.ServicePort != 6650 {
		t.Errorf("ServicePort = %d, want 6650", cfg.Proxy.ServicePort)
	}
	// Defaults must have been applied.
	if cfg.Limits.MaxConcurrentLookupRequests != DefaultMaxConcurrentLookupRequests {
		t.Errorf("MaxConcurrentLookupRequests = %d, want default %d",
			cfg.Limits.MaxConcurrentLookupRequests, DefaultMaxConcurrentLookupRequests)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "proxy: [this is not a mapping")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestLoadConfig_FailsValidation(t *testing.T) {
	path := writeTempConfig(t, `
proxy:
  bindAddress: "0.0.0.0"
  servicePort: 70000
`)
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error for out-of-range port")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, minimalValidYAML)

	t.Setenv("BROKERPROXY_PROXY_SERVICE_PORT", "6700")
	t.Setenv("BROKERPROXY_LIMITS_MAX_CONCURRENT_LOOKUP_REQUESTS", "10")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Proxy.ServicePort != 6700 {
		t.Errorf("ServicePort = %d, want 6700 (env override)", cfg.Proxy.ServicePort)
	}
	if cfg.Limits.MaxConcurrentLookupRequests != 10 {
		t.Errorf("MaxConcurrentLookupRequests = %d, want 10 (env override)", cfg.Limits.MaxConcurrentLookupRequests)
	}
}

func TestLoadConfigWithEnvOverrides_FileTakesPrecedenceOverDefaults(t *testing.T) {
	path := writeTempConfig(t, minimalValidYAML)
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Proxy.ServicePort != 6650 {
		t.Errorf("ServicePort = %d, want 6650 from file", cfg.Proxy.ServicePort)
	}
}

package config

import (
	"os"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeTempConfig(t, minimalValidYAML)

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) {
		reloaded <- cfg
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte(`proxy:
  servicePort: 6800
telemetry:
  logging:
    level: "info"
    format: "json"
`), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Proxy.ServicePort != 6800 {
			t.Errorf("ServicePort = %d, want 6800", cfg.Proxy.ServicePort)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload callback")
	}
}

func TestWatcherIgnoresInvalidRewrite(t *testing.T) {
	path := writeTempConfig(t, minimalValidYAML)

	calls := make(chan *Config, 2)
	w, err := NewWatcher(path, func(cfg *Config) {
		calls <- cfg
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("proxy: [invalid"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case <-calls:
		t.Fatal("onLoad must not be invoked for an invalid reload")
	case <-time.After(500 * time.Millisecond):
		// No callback fired, as expected.
	}
}

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func resetGlobalConfig() {
	configMutex.Lock()
	globalConfig = nil
	configMutex.Unlock()
	initOnce = sync.Once{}
}

func TestInitialize(t *testing.T) {
	resetGlobalConfig()

	path := writeTempConfig(t, minimalValidYAML)

	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config after initialization")
	}
	if cfg.Proxy.ServicePort != 6650 {
		t.Errorf("ServicePort = %d, want 6650", cfg.Proxy.ServicePort)
	}
}

func TestInitialize_MultipleCallsIgnored(t *testing.T) {
	resetGlobalConfig()

	path1 := writeTempConfig(t, minimalValidYAML)
	path2 := filepath.Join(t.TempDir(), "second.yaml")
	if err := os.WriteFile(path2, []byte(`proxy:
  servicePort: 9999
telemetry:
  logging:
    level: "info"
    format: "json"
`), 0644); err != nil {
		t.Fatalf("failed to write second config: %v", err)
	}

	if err := Initialize(path1); err != nil {
		t.Fatalf("first Initialize() error = %v", err)
	}
	if err := Initialize(path2); err != nil {
		t.Fatalf("second Initialize() error = %v", err)
	}

	if cfg := GetConfig(); cfg.Proxy.ServicePort != 6650 {
		t.Errorf("ServicePort = %d, want 6650 (second Initialize call must be ignored)", cfg.Proxy.ServicePort)
	}
}

func TestGetConfig_NilBeforeInitialize(t *testing.T) {
	resetGlobalConfig()
	if cfg := GetConfig(); cfg != nil {
		t.Errorf("expected nil config before Initialize, got %+v", cfg)
	}
}

func TestSetConfig(t *testing.T) {
	resetGlobalConfig()
	cfg := validConfig()
	SetConfig(&cfg)

	if got := GetConfig(); got != &cfg {
		t.Error("GetConfig() did not return the config set by SetConfig()")
	}
}

func TestReloadConfig(t *testing.T) {
	resetGlobalConfig()
	path := writeTempConfig(t, minimalValidYAML)
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if err := os.WriteFile(path, []byte(`proxy:
  servicePort: 7000
telemetry:
  logging:
    level: "info"
    format: "json"
`), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	if err := ReloadConfig(path); err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}
	if cfg := GetConfig(); cfg.Proxy.ServicePort != 7000 {
		t.Errorf("ServicePort = %d, want 7000 after reload", cfg.Proxy.ServicePort)
	}
}

func TestReloadConfig_KeepsPreviousOnFailure(t *testing.T) {
	resetGlobalConfig()
	path := writeTempConfig(t, minimalValidYAML)
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if err := ReloadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error reloading from missing file")
	}
	if cfg := GetConfig(); cfg.Proxy.ServicePort != 6650 {
		t.Errorf("ServicePort = %d, want 6650 (failed reload must not replace config)", cfg.Proxy.ServicePort)
	}
}

func TestMustGetConfig_PanicsWhenUninitialized(t *testing.T) {
	resetGlobalConfig()
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when config is uninitialized")
		}
	}()
	MustGetConfig()
}

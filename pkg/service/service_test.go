package service

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"mercator-hq/brokerproxy/pkg/config"
)

// newTestConfig builds a minimal, fully-valid Config for Service-level
// tests: a plaintext-only listener on an OS-assigned port, telemetry HTTP
// disabled so tests don't fight over :8081, and admission caps supplied by
// the caller.
func newTestConfig(t *testing.T, maxConns, maxPerIP int) *config.Config {
	t.Helper()

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	cfg.Proxy.BindAddress = "127.0.0.1"
	cfg.Proxy.ServicePort = freeTCPPort(t)
	cfg.Proxy.ServicePortTLS = 0
	cfg.Proxy.NumAcceptorThreads = 1
	cfg.Proxy.NumIOThreads = 2
	cfg.Proxy.ReadTimeout = 5 * time.Second
	cfg.Proxy.ShutdownTimeout = 2 * time.Second

	cfg.Limits.MaxConcurrentInboundConnections = maxConns
	cfg.Limits.MaxConcurrentInboundConnectionsPerIP = maxPerIP

	cfg.Telemetry.Metrics.Enabled = false
	cfg.Telemetry.Metrics.Port = 0
	cfg.Telemetry.Health.Enabled = false

	if err := config.Validate(cfg); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	return cfg
}

func freeTCPPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve a free port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

// waitForListener blocks until addr accepts connections or t fails. The
// probe connection briefly occupies an admission slot itself, so callers
// that assert exact connection counts leave it time to drain before
// dialing for real.
func waitForListener(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			c.Close()
			time.Sleep(100 * time.Millisecond)
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("listener at %s never came up", addr)
}

func pollUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

// metricValue sums the Counter/Gauge values of every series in the metric
// family named name, across whatever label combinations it was observed
// under.
func metricValue(t *testing.T, svc *Service, name string) float64 {
	t.Helper()
	mfs, err := svc.metrics.Registry().Gather()
	if err != nil {
		t.Fatalf("Registry().Gather(): %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		var sum float64
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				sum += c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				sum += g.GetValue()
			}
		}
		return sum
	}
	t.Fatalf("metric %q not found", name)
	return 0
}

// TestService_AdmissionCapRejectsExcessConnections drives real concurrent
// TCP connects against a running Service and checks that the global
// admission cap holds and that pulsar_proxy_rejected_connections accounts
// for every connect beyond it.
func TestService_AdmissionCapRejectsExcessConnections(t *testing.T) {
	const admitCap = 2
	cfg := newTestConfig(t, admitCap, 50)

	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	runErrCh := make(chan error, 1)
	go func() { runErrCh <- svc.Run(ctx) }()

	addr := fmt.Sprintf("%s:%d", cfg.Proxy.BindAddress, cfg.Proxy.ServicePort)
	waitForListener(t, addr)

	const dialCount = 6
	var mu sync.Mutex
	var conns []net.Conn
	var wg sync.WaitGroup
	for i := 0; i < dialCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := net.DialTimeout("tcp", addr, time.Second)
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}()
	}
	wg.Wait()
	time.Sleep(200 * time.Millisecond)

	if got := svc.admission.GlobalCount(); got > int64(admitCap) {
		t.Fatalf("admission.GlobalCount() = %d, want <= %d", got, admitCap)
	}

	wantRejected := float64(dialCount - admitCap)
	if got := metricValue(t, svc, "pulsar_proxy_rejected_connections"); got < wantRejected {
		t.Fatalf("pulsar_proxy_rejected_connections = %v, want >= %v", got, wantRejected)
	}

	mu.Lock()
	for _, c := range conns {
		c.Close()
	}
	mu.Unlock()

	cancel()
	if err := <-runErrCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

// TestService_ShutdownDrainsActiveConnections exercises the graceful-drain
// path: ~100 admitted connections held open, then Shutdown polling
// active_connections down to zero rather than yanking the listener out
// from under them.
func TestService_ShutdownDrainsActiveConnections(t *testing.T) {
	const numConns = 100
	cfg := newTestConfig(t, numConns+10, numConns+10)

	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErrCh := make(chan error, 1)
	go func() { runErrCh <- svc.Run(ctx) }()

	addr := fmt.Sprintf("%s:%d", cfg.Proxy.BindAddress, cfg.Proxy.ServicePort)
	waitForListener(t, addr)

	conns := make([]net.Conn, 0, numConns)
	for i := 0; i < numConns; i++ {
		c, err := net.DialTimeout("tcp", addr, time.Second)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		conns = append(conns, c)
	}
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()

	pollUntil(t, 2*time.Second, func() bool { return svc.activeConnCount() == numConns })
	if got := metricValue(t, svc, "pulsar_proxy_active_connections"); got != float64(numConns) {
		t.Fatalf("pulsar_proxy_active_connections = %v, want %d", got, numConns)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer shutdownCancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if got := svc.activeConnCount(); got != 0 {
		t.Fatalf("activeConnCount() = %d, want 0 after Shutdown", got)
	}
	if got := metricValue(t, svc, "pulsar_proxy_active_connections"); got != 0 {
		t.Fatalf("pulsar_proxy_active_connections = %v, want 0 after Shutdown", got)
	}

	cancel()
	if err := <-runErrCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

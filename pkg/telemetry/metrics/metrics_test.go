package metrics

import (
	"testing"

	"mercator-hq/brokerproxy/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Subsystem: "proxy",
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.config != cfg {
		t.Error("Collector config not set correctly")
	}
	if collector.registry != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_ConnectionCounters(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	collector.IncActiveConnections()
	collector.IncActiveConnections()
	if got := testutil.ToFloat64(collector.activeConnections); got != 2 {
		t.Errorf("active connections = %f, want 2", got)
	}
	if got := testutil.ToFloat64(collector.newConnections); got != 2 {
		t.Errorf("new connections = %f, want 2", got)
	}

	collector.DecActiveConnections()
	if got := testutil.ToFloat64(collector.activeConnections); got != 1 {
		t.Errorf("active connections = %f, want 1", got)
	}

	collector.IncRejectedConnections()
	if got := testutil.ToFloat64(collector.rejectedConnections); got != 1 {
		t.Errorf("rejected connections = %f, want 1", got)
	}
}

func TestCollector_BinaryCounters(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	collector.IncBinaryOps(3)
	collector.AddBinaryBytes(128)

	if got := testutil.ToFloat64(collector.binaryOps); got != 3 {
		t.Errorf("binary ops = %f, want 3", got)
	}
	if got := testutil.ToFloat64(collector.binaryBytes); got != 128 {
		t.Errorf("binary bytes = %f, want 128", got)
	}
}

func TestCollector_TopicCounters(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	collector.RecordTopicBytes("persistent://tenant/ns/topic", 512)
	collector.RecordTopicMessage("persistent://tenant/ns/topic")

	if got := testutil.ToFloat64(collector.topicBytes.WithLabelValues("persistent://tenant/ns/topic")); got != 512 {
		t.Errorf("topic bytes = %f, want 512", got)
	}
	if got := testutil.ToFloat64(collector.topicMessages.WithLabelValues("persistent://tenant/ns/topic")); got != 1 {
		t.Errorf("topic messages = %f, want 1", got)
	}

	// An empty topic is never labelled.
	collector.RecordTopicBytes("", 10)
}

func TestCollector_TopicCardinalityFoldsIntoOther(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)
	collector.cardinalityLimiter = NewCardinalityLimiter(1)

	collector.RecordTopicBytes("topic-a", 1)
	collector.RecordTopicBytes("topic-b", 1)

	if got := testutil.ToFloat64(collector.topicBytes.WithLabelValues("topic-a")); got != 1 {
		t.Errorf("topic-a bytes = %f, want 1", got)
	}
	if got := testutil.ToFloat64(collector.topicBytes.WithLabelValues("other")); got != 1 {
		t.Errorf("other bytes = %f, want 1", got)
	}
}

func TestCollector_BrokerMetrics(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	collector.UpdateBrokerHealth("broker-1", true)
	if got := testutil.ToFloat64(collector.broker.health.WithLabelValues("broker-1")); got != 1.0 {
		t.Errorf("broker health = %f, want 1", got)
	}

	collector.UpdateBrokerHealth("broker-1", false)
	if got := testutil.ToFloat64(collector.broker.health.WithLabelValues("broker-1")); got != 0.0 {
		t.Errorf("broker health = %f, want 0", got)
	}

	collector.RecordLookupLatency("broker-1", 0.05)
	collector.RecordLookupError("broker-1", "timeout")
	if got := testutil.ToFloat64(collector.broker.lookupErrors.WithLabelValues("broker-1", "timeout")); got != 1 {
		t.Errorf("lookup errors = %f, want 1", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	// None of these should panic or record anything.
	collector.IncActiveConnections()
	collector.IncBinaryOps(1)
	collector.AddBinaryBytes(1)
	collector.RecordTopicBytes("topic", 1)
	collector.UpdateBrokerHealth("broker-1", true)

	if got := testutil.ToFloat64(collector.activeConnections); got != 0 {
		t.Errorf("active connections = %f, want 0 while disabled", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(3)

	if !limiter.Allow("label1") {
		t.Error("Expected first label to be allowed")
	}
	if !limiter.Allow("label2") {
		t.Error("Expected second label to be allowed")
	}
	if !limiter.Allow("label3") {
		t.Error("Expected third label to be allowed")
	}
	if limiter.Allow("label4") {
		t.Error("Expected fourth label to be rejected")
	}
	if !limiter.Allow("label1") {
		t.Error("Expected existing label to be allowed")
	}
	if limiter.Count() != 3 {
		t.Errorf("Expected count=3, got %d", limiter.Count())
	}
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	done := make(chan bool)

	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				collector.IncBinaryOps(1)
				collector.AddBinaryBytes(10)
				collector.UpdateBrokerHealth("broker-1", true)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	if got := testutil.ToFloat64(collector.binaryOps); got != 1000 {
		t.Errorf("binary ops = %f, want 1000", got)
	}
}

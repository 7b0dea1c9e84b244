package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func Benchmark_Collector_IncBinaryOps(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.IncBinaryOps(1)
	}
}

func Benchmark_Collector_IncBinaryOps_Parallel(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			collector.IncBinaryOps(1)
		}
	})
}

func Benchmark_Collector_AddBinaryBytes(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.AddBinaryBytes(128)
	}
}

func Benchmark_Collector_RecordTopicBytes(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordTopicBytes("persistent://tenant/ns/topic", 128)
	}
}

func Benchmark_Collector_UpdateBrokerHealth(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.UpdateBrokerHealth("broker-1", true)
	}
}

func Benchmark_Collector_RecordLookupLatency(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordLookupLatency("broker-1", 0.01)
	}
}

func Benchmark_CardinalityLimiter_Allow(b *testing.B) {
	limiter := NewCardinalityLimiter(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("label1")
	}
}

func Benchmark_CardinalityLimiter_Allow_New(b *testing.B) {
	limiter := NewCardinalityLimiter(100000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("label" + string(rune(i)))
	}
}

func Benchmark_Collector_Disabled(b *testing.B) {
	cfg := testConfig()
	cfg.Enabled = false
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.IncBinaryOps(1)
	}
}

func Benchmark_Collector_ManyTopics(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	topics := []string{
		"persistent://t1/ns/topic-a",
		"persistent://t1/ns/topic-b",
		"persistent://t2/ns/topic-c",
		"persistent://t2/ns/topic-d",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordTopicBytes(topics[i%len(topics)], 128)
	}
}

func Benchmark_Collector_AllMetrics(b *testing.B) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.IncBinaryOps(1)
		collector.AddBinaryBytes(128)
		collector.RecordTopicBytes("persistent://tenant/ns/topic", 128)
		collector.UpdateBrokerHealth("broker-1", true)
	}
}

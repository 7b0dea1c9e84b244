// Package metrics exposes the proxy's Prometheus metrics (spec.md §6).
//
// # Overview
//
// A Collector owns a prometheus.Registry and every series the proxy records
// against: connection counts, binary protocol throughput, per-topic byte
// and message counts, and backend broker health/lookup-latency/lookup-error
// series.
//
// # Metrics Categories
//
//   - Connection metrics: active/new/rejected connection counts
//   - Binary protocol metrics: command counts and byte counts, including
//     spliced data-plane traffic
//   - Per-topic metrics: bytes and messages observed per topic, cardinality
//     limited so a client minting many short-lived topic names can't grow
//     the registry without bound
//   - Broker metrics: discovery-reported health, lookup RPC latency and
//     lookup error counts per broker
//
// # Usage
//
//	collector := metrics.NewCollector(cfg, registry)
//
//	collector.IncActiveConnections()
//	collector.IncBinaryOps(1)
//	collector.AddBinaryBytes(uint64(len(frame)))
//	collector.RecordTopicBytes("persistent://tenant/ns/topic", int64(n))
//
//	collector.UpdateBrokerHealth("broker-1", true)
//	collector.RecordLookupLatency("broker-1", elapsed.Seconds())
//
// With the default namespace/subsystem ("pulsar"/"proxy") this produces
// series named pulsar_proxy_active_connections, pulsar_proxy_binary_bytes,
// and so on.
//
// # Metrics interfaces
//
// *Collector structurally satisfies the small Metrics interfaces declared
// by pkg/proxyconn, pkg/directproxy and pkg/lookupproxy — each names only
// the methods it calls, so one Collector value is handed to all three
// without any of them importing this package's concrete type.
//
// # Cardinality Management
//
// Per-topic series are capped at 10,000 distinct label values; once the cap
// is reached, further topics are folded into "other" rather than growing
// the registry without bound.
//
// # Prometheus Endpoint
//
// Handler exposes the registry over HTTP for a scraper to pull, mounted at
// the path given by MetricsConfig.Path (default "/metrics"):
//
//	http.Handle(cfg.Path, collector.Handler())
//	http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), nil)
//
// Recording is a no-op whenever MetricsConfig.Enabled is false, so callers
// never need to branch on whether metrics are turned on.
package metrics

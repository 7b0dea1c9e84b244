// Package tracing provides OpenTelemetry distributed tracing for the broker proxy.
//
// # Overview
//
// The tracing package implements W3C Trace Context propagation, span creation,
// and trace export over OTLP. It provides visibility into client connections as
// they are authenticated, looked up, and spliced to backend brokers, with minimal
// overhead (<100µs per span).
//
// # Distributed Tracing
//
// Distributed tracing tracks a connection as it flows through the proxy,
// creating a hierarchy of spans that represent operations. Each span records:
//   - Operation name and duration
//   - Attributes (key-value pairs)
//   - Events (timestamped logs within the span)
//   - Trace context (trace ID, span ID, sampling decision)
//
// # Trace Context Propagation
//
// The package implements W3C Trace Context (https://www.w3.org/TR/trace-context/)
// for propagating trace context across HTTP boundaries (e.g. the admin/lookup API):
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//	tracestate: congo=t61rcWkgMzE
//
// # Sampling Strategies
//
// Three sampling strategies are supported:
//   - always: Sample all traces (development/debugging)
//   - never: Sample no traces (tracing disabled)
//   - ratio: Sample a percentage of traces (production)
//
// # Usage
//
//	// Initialize tracer
//	cfg := &config.TracingConfig{
//	    Enabled:     true,
//	    Sampler:     "ratio",
//	    SampleRatio: 0.1,
//	    Endpoint:    "localhost:4317",
//	    ServiceName: "broker-proxy",
//	}
//	tracer, err := tracing.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(context.Background())
//
//	// Create span
//	ctx, span := tracer.Start(ctx, "proxy.request")
//	defer span.End()
//
//	// Add attributes
//	tracing.SetRequestAttributes(span, requestID, principal)
//	tracing.SetBrokerAttributes(span, "broker-1:6650")
//	tracing.SetTopicAttributes(span, "persistent://tenant/ns/topic")
//
//	// Add event
//	span.AddEvent("broker_selected", trace.WithAttributes(
//	    attribute.String("proxy.broker", "broker-1:6650"),
//	))
//
// # Span Hierarchy
//
// Spans form a hierarchy representing the call tree of a proxied connection:
//
//	proxy.request (10ms)
//	├── proxy.auth (1ms)
//	├── proxy.lookup (3ms)
//	└── proxy.broker.splice (6ms)
//
// # HTTP Integration
//
// Extract trace context from incoming HTTP requests:
//
//	ctx := tracing.Extract(r.Context(), r.Header)
//	ctx, span := tracer.Start(ctx, "handle_request")
//	defer span.End()
//
// Inject trace context into outgoing HTTP requests:
//
//	req, _ := http.NewRequestWithContext(ctx, "POST", url, body)
//	tracing.Inject(ctx, req.Header)
//
// # Performance
//
// The tracing package is designed for minimal overhead:
//   - Span creation: <100µs per span
//   - Context propagation: <10µs
//   - Sampling decision: <1µs
//   - When disabled: <1µs (noop span)
//
// # Trace Exporter
//
// OTLP is the only supported exporter. Spans are batched and sent over gRPC
// to a collector, which can fan them out to whatever backend an operator
// chooses (Jaeger, Zipkin, a vendor APM, etc. all consume OTLP):
//
//	telemetry:
//	  tracing:
//	    endpoint: localhost:4317
//	    otlp:
//	      insecure: true
//	      timeout: 10s
//
// # Attribute Helpers
//
// Common attributes can be set using helper functions:
//
//	// Broker attributes
//	tracing.SetBrokerAttributes(span, "broker-1:6650")
//
//	// Request attributes
//	tracing.SetRequestAttributes(span, requestID, principal)
//
//	// Topic attributes
//	tracing.SetTopicAttributes(span, "persistent://tenant/ns/topic")
//
//	// Error attributes
//	tracing.SetErrorAttributes(span, err, "lookup_timeout")
//
// Or compose several with the fluent builder:
//
//	tracing.NewAttributeBuilder().
//	    WithBroker("broker-1:6650").
//	    WithRequest(requestID, principal).
//	    WithTopic(topic).
//	    Apply(span)
package tracing

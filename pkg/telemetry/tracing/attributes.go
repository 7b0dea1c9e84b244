package tracing

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// These functions provide a convenient way to set common attributes on spans.
// They use semantic conventions where applicable and ensure consistent attribute
// naming across the codebase.
//
// Custom attribute keys use the "proxy.*" namespace:
//   - proxy.broker: backend broker name/address
//   - proxy.topic: topic name a lookup or splice concerns
//   - proxy.principal: authenticated principal name

// Common attribute keys used throughout the system.
const (
	// Connection attributes
	AttrRequestID = "proxy.request_id"
	AttrPrincipal = "proxy.principal"
	AttrTenant    = "proxy.tenant"

	// Broker/topic attributes
	AttrBroker = "proxy.broker"
	AttrTopic  = "proxy.topic"

	// Error attributes
	AttrErrorType    = "proxy.error.type"
	AttrErrorMessage = "error.message"
	AttrErrorStack   = "error.stack"

	// Performance attributes
	AttrDuration   = "proxy.duration_ms"
	AttrRetryCount = "proxy.retry_count"
)

// SetBrokerAttributes sets broker-related attributes on a span.
//
// Example:
//
//	SetBrokerAttributes(span, "broker-1:6650")
func SetBrokerAttributes(span trace.Span, broker string) {
	span.SetAttributes(attribute.String(AttrBroker, broker))
}

// SetRequestAttributes sets request-related attributes on a span.
//
// Example:
//
//	SetRequestAttributes(span, "req-123", "principal-a")
func SetRequestAttributes(span trace.Span, requestID, principal string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRequestID, requestID),
	}
	if principal != "" {
		attrs = append(attrs, attribute.String(AttrPrincipal, principal))
	}
	span.SetAttributes(attrs...)
}

// SetTopicAttributes sets topic-related attributes on a span.
//
// Example:
//
//	SetTopicAttributes(span, "persistent://tenant/ns/topic")
func SetTopicAttributes(span trace.Span, topic string) {
	if topic != "" {
		span.SetAttributes(attribute.String(AttrTopic, topic))
	}
}

// SetTenantAttribute sets the tenant attribute on a span.
//
// Example:
//
//	SetTenantAttribute(span, "tenant-a")
func SetTenantAttribute(span trace.Span, tenant string) {
	if tenant != "" {
		span.SetAttributes(attribute.String(AttrTenant, tenant))
	}
}

// SetErrorAttributes sets error-related attributes on a span.
// This also records the error using span.RecordError() and sets the span status.
//
// Example:
//
//	SetErrorAttributes(span, err, "lookup_timeout")
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetDurationAttribute sets the duration attribute on a span.
// Duration is recorded in milliseconds.
//
// Example:
//
//	start := time.Now()
//	// ... do work ...
//	SetDurationAttribute(span, time.Since(start).Milliseconds())
func SetDurationAttribute(span trace.Span, durationMs int64) {
	span.SetAttributes(attribute.Int64(AttrDuration, durationMs))
}

// SetRetryAttribute sets the retry count attribute on a span.
//
// Example:
//
//	SetRetryAttribute(span, 2)
func SetRetryAttribute(span trace.Span, retryCount int) {
	span.SetAttributes(attribute.Int(AttrRetryCount, retryCount))
}

// AddEvent adds a named event to the span with optional attributes.
// Events represent interesting points in the span's lifetime.
//
// Example:
//
//	AddEvent(span, "broker_selected",
//	    attribute.String("proxy.broker", "broker-1:6650"),
//	)
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordException records an exception event on the span.
// This is a convenience wrapper around AddEvent for errors.
//
// Example:
//
//	RecordException(span, err)
func RecordException(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// AttributeBuilder provides a fluent interface for building span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 10),
	}
}

// WithBroker adds the broker attribute.
func (ab *AttributeBuilder) WithBroker(broker string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrBroker, broker))
	return ab
}

// WithRequest adds request-related attributes.
func (ab *AttributeBuilder) WithRequest(requestID, principal string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrRequestID, requestID))
	if principal != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrPrincipal, principal))
	}
	return ab
}

// WithTopic adds the topic attribute.
func (ab *AttributeBuilder) WithTopic(topic string) *AttributeBuilder {
	if topic != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrTopic, topic))
	}
	return ab
}

// WithTenant adds the tenant attribute.
func (ab *AttributeBuilder) WithTenant(tenant string) *AttributeBuilder {
	if tenant != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrTenant, tenant))
	}
	return ab
}

// WithCustom adds a custom attribute.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

// Build returns the built attributes as a trace.SpanStartOption.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Apply applies the attributes to a span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the raw attribute slice.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}

package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for spans
const (
	AttrGrantType = "oauth.grant_type"
	AttrClientID  = "oauth.client_id"
	AttrScope     = "oauth.scope"
	AttrOperation = "storage.operation"
	AttrResult    = "storage.result"
	AttrErrorCode = "oauth.error_code"
	AttrTokenType = "oauth.token_type"
)

// SpanAttributes builds common span attributes for a grant request
func SpanAttributes(grantType, clientID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrGrantType, grantType),
		attribute.String(AttrClientID, clientID),
	}
}

// RecordError records an error on a span and marks it as failed
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// RecordSuccess marks a span as completed successfully
func RecordSuccess(span trace.Span) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Ok, "")
}

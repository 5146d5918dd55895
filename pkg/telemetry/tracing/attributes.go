package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanComplete = "relay.complete"
	SpanStream   = "relay.stream"
	SpanEmbed    = "relay.embed"
	SpanAttempt  = "relay.provider_attempt"
)

// Attribute keys use the "relay.*" namespace.
const (
	// Routing attributes
	AttrOperation      = "relay.operation"
	AttrRequestID      = "relay.request_id"
	AttrMode           = "relay.mode"
	AttrClassification = "relay.data_classification"
	AttrPrimary        = "relay.primary_provider"
	AttrChain          = "relay.fallback_chain"
	AttrAttempt        = "relay.attempt"

	// Provider attributes
	AttrProvider = "relay.provider"
	AttrModel    = "relay.model"
	AttrTier     = "relay.tier"

	// Token attributes
	AttrTokensInput     = "relay.tokens.input"
	AttrTokensOutput    = "relay.tokens.output"
	AttrTokensEstimated = "relay.tokens.estimated"

	// Cost attributes
	AttrCost        = "relay.cost_usd"
	AttrBudgetState = "relay.budget.state"

	// Error attributes
	AttrErrorType    = "relay.error.type"
	AttrErrorMessage = "error.message"
)

// SetProviderAttributes sets provider-related attributes on a span.
//
// Example:
//
//	SetProviderAttributes(span, "azure", "gpt-4o-mini", "cost_effective")
func SetProviderAttributes(span trace.Span, provider, model, tier string) {
	span.SetAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
		attribute.String(AttrTier, tier),
	)
}

// SetUsageAttributes records accounted tokens and cost on a span.
func SetUsageAttributes(span trace.Span, inputTokens, outputTokens int, cost float64, estimated bool) {
	span.SetAttributes(
		attribute.Int(AttrTokensInput, inputTokens),
		attribute.Int(AttrTokensOutput, outputTokens),
		attribute.Float64(AttrCost, cost),
		attribute.Bool(AttrTokensEstimated, estimated),
	)
}

// SetErrorAttributes records err with a classification on a span.
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}
	span.SetAttributes(attribute.String(AttrErrorType, errorType))
	SetError(span, err)
}

// AttributeBuilder provides a fluent interface for building span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithOperation adds the operation and request id.
func (ab *AttributeBuilder) WithOperation(operation, requestID string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrOperation, operation),
		attribute.String(AttrRequestID, requestID),
	)
	return ab
}

// WithRouting adds the routing decision.
func (ab *AttributeBuilder) WithRouting(mode, classification, primary string, chain []string) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrMode, mode),
		attribute.String(AttrPrimary, primary),
		attribute.StringSlice(AttrChain, chain),
	)
	if classification != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrClassification, classification))
	}
	return ab
}

// WithAttempt adds the provider and position of a fallback attempt.
func (ab *AttributeBuilder) WithAttempt(provider string, attempt int) *AttributeBuilder {
	ab.attrs = append(ab.attrs,
		attribute.String(AttrProvider, provider),
		attribute.Int(AttrAttempt, attempt),
	)
	return ab
}

// Build returns the built attributes as a trace.SpanStartOption.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Attributes returns the raw attribute slice.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}

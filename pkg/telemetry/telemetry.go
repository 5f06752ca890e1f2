// Package telemetry bridges the machine's Trace hook to OpenTelemetry and
// provides a no-op TracerProvider for tests and default wiring.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	statedesigner "github.com/izznatsir/state-designer"
)

// Trace returns a trace hook that opens one span per engine step. Details
// become span attributes; an error passed to the closer records on the span.
func Trace(tracer trace.Tracer) statedesigner.Trace {
	return func(ctx context.Context, step string, details ...any) func(...any) {
		_, span := tracer.Start(ctx, step)
		attrs := make([]attribute.KeyValue, 0, len(details))
		for i, detail := range details {
			attrs = append(attrs, attribute.String(fmt.Sprintf("detail.%d", i), fmt.Sprint(detail)))
		}
		span.SetAttributes(attrs...)
		return func(results ...any) {
			for _, result := range results {
				if err, ok := result.(error); ok {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
				}
			}
			span.End()
		}
	}
}

type Provider struct {
	trace.TracerProvider
}

var (
	provider    = &Provider{}
	tracer      = &Tracer{}
	span        = &Span{}
	spanContext = trace.SpanContext{}
)

// NewProvider returns a TracerProvider whose spans do nothing.
func NewProvider() *Provider {
	return provider
}

func (provider *Provider) Tracer(name string, options ...trace.TracerOption) trace.Tracer {
	return tracer
}

type Tracer struct {
	trace.Tracer
}

func (tracer *Tracer) Start(ctx context.Context, name string, options ...trace.SpanStartOption) (context.Context, trace.Span) {
	return ctx, span
}

type Span struct {
	trace.Span
}

func (span *Span) End(options ...trace.SpanEndOption)                  {}
func (span *Span) AddEvent(name string, options ...trace.EventOption)  {}
func (span *Span) AddLink(link trace.Link)                             {}
func (span *Span) IsRecording() bool                                   { return false }
func (span *Span) RecordError(err error, options ...trace.EventOption) {}
func (span *Span) SetAttributes(kv ...attribute.KeyValue)              {}
func (span *Span) SetName(name string)                                 {}
func (span *Span) SetStatus(code codes.Code, description string)       {}
func (span *Span) SpanContext() trace.SpanContext                      { return spanContext }
func (span *Span) TracerProvider() trace.TracerProvider                { return provider }

package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names used across the coaching pipeline.
const (
	SpanChatTurn     = "pillars.chat.turn"
	SpanCrisisCheck  = "pillars.crisis.check"
	SpanRoute        = "pillars.route"
	SpanGenerate     = "pillars.persona.generate"
	SpanCommit       = "pillars.turn.commit"
	SpanGamification = "pillars.gamification.apply"
)

const (
	AttrUserHash   = "pillars.user_hash"
	AttrPillar     = "pillars.pillar"
	AttrPersona    = "pillars.persona"
	AttrSeverity   = "pillars.crisis.severity"
	AttrRedirected = "pillars.redirected"
	AttrOutcome    = "pillars.outcome"
	AttrStatus     = "pillars.status"
)

func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span and ends it.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrStatus, "error"))
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.String(AttrStatus, "success"))
	}
	span.End()
}

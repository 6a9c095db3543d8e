package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestMQHeaderCarrier_RoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := InjectHeaders(ctx, map[string]interface{}{"x-trace-id": "abc"})
	require.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", headers["traceparent"])
	require.Equal(t, "abc", headers["x-trace-id"])

	out := trace.SpanContextFromContext(ExtractHeaders(context.Background(), headers))
	require.Equal(t, traceID, out.TraceID())
	require.True(t, out.IsRemote())
}

func TestMQHeaderCarrier_NonStringValue(t *testing.T) {
	c := NewMQHeaderCarrier(map[string]interface{}{"n": int64(1)})
	require.Equal(t, "", c.Get("n"))
	require.Equal(t, "", c.Get("missing"))
	c.Set("k", "v")
	require.ElementsMatch(t, []string{"n", "k"}, c.Keys())
}

package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpansAreExported(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	require.NoError(t, InitWithExporter("vacancy-test", "0.0.0", exporter))
	t.Cleanup(func() { _ = Shutdown(context.Background()) })

	ctx, span := StartSpan(context.Background(), "recompute", map[string]string{"reason": "preferences"})
	span.SetInt("candidates", 3)
	_, child := StartSpan(ctx, "publish", nil)
	child.End(errors.New("sink down"))
	span.End(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "publish", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "recompute", spans[1].Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func TestNilSpanIsSafe(t *testing.T) {
	var s *Span
	assert.NotPanics(t, func() {
		s.WithAttributes(map[string]string{"k": "v"})
		s.SetInt("n", 1)
		s.End(nil)
	})
}

func TestNilExporterIsNoop(t *testing.T) {
	assert.NoError(t, InitWithExporter("svc", "v", nil))
}

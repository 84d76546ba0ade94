package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestTracer(t *testing.T) (trace.Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp.Tracer("test"), recorder
}

func findSpan(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func spanAttr(s sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_SubmitSpan(t *testing.T) {
	tracer, recorder := newTestTracer(t)
	p := newMemPersister()
	w := New(testFlow(t), WithPersister(p), WithNavigator(&recNavigator{}), WithTracer(tracer))
	ctx := context.Background()
	require.NoError(t, w.cursorTo(1))
	c := w.Active(ctx)
	fillContact(t, c)

	_, err := c.Submit(ctx)
	require.NoError(t, err)

	span := findSpan(recorder.Ended(), "wizard.submit")
	require.NotNil(t, span)
	step, ok := spanAttr(span, "wizard.step")
	require.True(t, ok)
	assert.Equal(t, "contact-details", step.AsString())
	outcome, _ := spanAttr(span, "wizard.outcome")
	assert.Equal(t, "advanced", outcome.AsString())
	assert.Equal(t, codes.Unset, span.Status().Code)

	assert.NotNil(t, findSpan(recorder.Ended(), "wizard.mount"), "next step mounts with a span")
}

func TestTracing_FailedSaveMarksSpan(t *testing.T) {
	tracer, recorder := newTestTracer(t)
	p := newMemPersister()
	p.saveErr = errors.New("readonly database")
	w := New(testFlow(t), WithPersister(p), WithNavigator(&recNavigator{}), WithTracer(tracer))
	ctx := context.Background()
	require.NoError(t, w.cursorTo(1))
	c := w.Active(ctx)
	fillContact(t, c)

	_, err := c.Submit(ctx)
	require.Error(t, err)

	span := findSpan(recorder.Ended(), "wizard.submit")
	require.NotNil(t, span)
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Status().Description, "readonly database")
	require.NotEmpty(t, span.Events())
	assert.Equal(t, "exception", span.Events()[0].Name)
}

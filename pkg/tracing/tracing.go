// Package tracing sets up OpenTelemetry tracing for the site.
package tracing

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/campusmatch/campusmatch/pkg/logging"
)

// HeaderTraceID carries the trace ID of a request back to the caller.
const HeaderTraceID = "X-Trace-ID"

type config struct {
	sampler    sdktrace.Sampler
	processors []sdktrace.SpanProcessor
}

// Option configures NewProvider.
type Option func(*config)

// WithSampler replaces the default parent-based always-on sampler.
func WithSampler(s sdktrace.Sampler) Option {
	return func(c *config) {
		c.sampler = s
	}
}

// WithSpanProcessor adds a span processor.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(c *config) {
		c.processors = append(c.processors, p)
	}
}

// WithLogger writes every ended span to logger at debug level.
func WithLogger(logger logging.Logger) Option {
	return WithSpanProcessor(NewLogProcessor(logger))
}

// NewProvider creates a tracer provider for serviceName. The caller owns
// it and must call Shutdown.
func NewProvider(serviceName string, opts ...Option) *sdktrace.TracerProvider {
	cfg := &config{sampler: sdktrace.ParentBased(sdktrace.AlwaysSample())}
	for _, opt := range opts {
		opt(cfg)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(cfg.sampler),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	}
	for _, p := range cfg.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
	}
	return sdktrace.NewTracerProvider(tpOpts...)
}

// LogProcessor logs ended spans.
type LogProcessor struct {
	logger logging.Logger
}

// NewLogProcessor creates a LogProcessor. A nil logger discards spans.
func NewLogProcessor(logger logging.Logger) *LogProcessor {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &LogProcessor{logger: logger}
}

func (p *LogProcessor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {}

func (p *LogProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	fields := []logging.Field{
		logging.String("span", s.Name()),
		logging.String("trace_id", s.SpanContext().TraceID().String()),
		logging.Duration("duration", s.EndTime().Sub(s.StartTime())),
	}
	for _, kv := range s.Attributes() {
		fields = append(fields, logging.String(string(kv.Key), kv.Value.Emit()))
	}
	if st := s.Status(); st.Code == codes.Error {
		fields = append(fields, logging.String("error", st.Description))
	}
	p.logger.Debug("span ended", fields...)
}

func (p *LogProcessor) Shutdown(ctx context.Context) error   { return nil }
func (p *LogProcessor) ForceFlush(ctx context.Context) error { return nil }

// TraceID returns the trace ID of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Middleware starts a server span per request and echoes its trace ID in
// HeaderTraceID. Responses of 500 and above mark the span as failed.
func Middleware(tracer trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "http.request",
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.path", r.URL.Path),
				),
			)
			defer span.End()

			if id := TraceID(ctx); id != "" {
				w.Header().Set(HeaderTraceID, id)
			}

			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.status_code", rw.status))
			if rw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rw.status))
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack lets WebSocket upgrades through.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

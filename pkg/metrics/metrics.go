// Package metrics counts wizard outcomes and serves them in the Prometheus
// text format.
package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/campusmatch/campusmatch/pkg/wizard"
)

const meterName = "github.com/campusmatch/campusmatch/pkg/metrics"

// DurationBuckets are the histogram bounds for step durations, in seconds.
var DurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// Metrics holds the site's instruments. Readings are collected on demand
// by Handler.
type Metrics struct {
	namespace string
	reader    *sdkmetric.ManualReader
	provider  *sdkmetric.MeterProvider
	meter     metric.Meter

	steps    metric.Int64Counter
	invalid  metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates the instruments. Every exported name is prefixed with
// namespace.
func New(namespace string) (*Metrics, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := &Metrics{
		namespace: namespace,
		reader:    reader,
		provider:  provider,
		meter:     provider.Meter(meterName),
	}

	var err error
	if m.steps, err = m.meter.Int64Counter("wizard_steps_total",
		metric.WithDescription("Continue, submit and jump requests by outcome")); err != nil {
		return nil, fmt.Errorf("steps counter: %w", err)
	}
	if m.invalid, err = m.meter.Int64Counter("wizard_validation_errors_total",
		metric.WithDescription("Fields that failed validation")); err != nil {
		return nil, fmt.Errorf("validation counter: %w", err)
	}
	if m.duration, err = m.meter.Float64Histogram("wizard_step_duration_seconds",
		metric.WithDescription("Time spent handling a step request"),
		metric.WithExplicitBucketBoundaries(DurationBuckets...)); err != nil {
		return nil, fmt.Errorf("duration histogram: %w", err)
	}
	return m, nil
}

// MeterProvider exposes the provider for callers that add their own
// instruments.
func (m *Metrics) MeterProvider() metric.MeterProvider {
	return m.provider
}

// RecordStep implements wizard.Recorder.
func (m *Metrics) RecordStep(ctx context.Context, r wizard.StepResult) {
	m.steps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", r.Op),
		attribute.String("flow", r.Flow),
		attribute.String("step", r.Step),
		attribute.String("outcome", r.Outcome.String()),
	))
	for _, field := range r.Invalid {
		m.invalid.Add(ctx, 1, metric.WithAttributes(
			attribute.String("flow", r.Flow),
			attribute.String("step", r.Step),
			attribute.String("field", field),
		))
	}
	m.duration.Record(ctx, r.Duration.Seconds(), metric.WithAttributes(
		attribute.String("op", r.Op),
		attribute.String("flow", r.Flow),
	))
}

// ObserveGauge reports fn's value under name at every collection.
func (m *Metrics) ObserveGauge(name, help string, fn func() int64) error {
	_, err := m.meter.Int64ObservableGauge(name,
		metric.WithDescription(help),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(fn())
			return nil
		}))
	return err
}

// ObserveCounter is ObserveGauge for values that only grow.
func (m *Metrics) ObserveCounter(name, help string, fn func() int64) error {
	_, err := m.meter.Int64ObservableCounter(name,
		metric.WithDescription(help),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(fn())
			return nil
		}))
	return err
}

// Handler serves the current readings.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		if err := m.Write(r.Context(), w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// Write collects and writes every instrument in the Prometheus text
// format, sorted by name and labels.
func (m *Metrics) Write(ctx context.Context, w io.Writer) error {
	var rm metricdata.ResourceMetrics
	if err := m.reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	var all []metricdata.Metrics
	for _, sm := range rm.ScopeMetrics {
		all = append(all, sm.Metrics...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	var sb strings.Builder
	for _, md := range all {
		m.writeMetric(&sb, md)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Shutdown stops the provider. Later collections fail.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

func (m *Metrics) writeMetric(sb *strings.Builder, md metricdata.Metrics) {
	name := m.namespace + "_" + md.Name
	switch data := md.Data.(type) {
	case metricdata.Sum[int64]:
		typ := "gauge"
		if data.IsMonotonic {
			typ = "counter"
		}
		writeHeader(sb, name, md.Description, typ)
		for _, dp := range sortPoints(data.DataPoints) {
			fmt.Fprintf(sb, "%s%s %d\n", name, labels(dp.Attributes), dp.Value)
		}
	case metricdata.Gauge[int64]:
		writeHeader(sb, name, md.Description, "gauge")
		for _, dp := range sortPoints(data.DataPoints) {
			fmt.Fprintf(sb, "%s%s %d\n", name, labels(dp.Attributes), dp.Value)
		}
	case metricdata.Histogram[float64]:
		writeHeader(sb, name, md.Description, "histogram")
		points := data.DataPoints
		sort.Slice(points, func(i, j int) bool {
			return labels(points[i].Attributes) < labels(points[j].Attributes)
		})
		for _, dp := range points {
			var cumulative uint64
			for i, bound := range dp.Bounds {
				cumulative += dp.BucketCounts[i]
				fmt.Fprintf(sb, "%s_bucket%s %d\n", name,
					labels(dp.Attributes, attribute.String("le", formatFloat(bound))), cumulative)
			}
			fmt.Fprintf(sb, "%s_bucket%s %d\n", name, labels(dp.Attributes, attribute.String("le", "+Inf")), dp.Count)
			fmt.Fprintf(sb, "%s_sum%s %s\n", name, labels(dp.Attributes), formatFloat(dp.Sum))
			fmt.Fprintf(sb, "%s_count%s %d\n", name, labels(dp.Attributes), dp.Count)
		}
	}
}

func writeHeader(sb *strings.Builder, name, help, typ string) {
	if help != "" {
		fmt.Fprintf(sb, "# HELP %s %s\n", name, helpEscaper.Replace(help))
	}
	fmt.Fprintf(sb, "# TYPE %s %s\n", name, typ)
}

func sortPoints(points []metricdata.DataPoint[int64]) []metricdata.DataPoint[int64] {
	sort.Slice(points, func(i, j int) bool {
		return labels(points[i].Attributes) < labels(points[j].Attributes)
	})
	return points
}

var (
	labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	helpEscaper  = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
)

// labels renders set, followed by extra, as {k="v",...}. An empty set
// renders as nothing.
func labels(set attribute.Set, extra ...attribute.KeyValue) string {
	kvs := append(set.ToSlice(), extra...)
	if len(kvs) == 0 {
		return ""
	}
	parts := make([]string, len(kvs))
	for i, kv := range kvs {
		parts[i] = fmt.Sprintf(`%s="%s"`, kv.Key, labelEscaper.Replace(kv.Value.Emit()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

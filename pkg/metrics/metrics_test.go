package metrics

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmatch/campusmatch/pkg/wizard"
)

func newMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := New("campusmatch")
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, m.Write(context.Background(), &buf))
	return buf.String()
}

func TestRecordStep_CountsOutcomes(t *testing.T) {
	m := newMetrics(t)
	ctx := context.Background()

	m.RecordStep(ctx, wizard.StepResult{
		Op: "submit", Flow: "academic", Step: "scores",
		Outcome: wizard.OutcomeInvalid, Invalid: []string{"gpa", "standardizedTests"},
		Duration: 2 * time.Millisecond,
	})
	m.RecordStep(ctx, wizard.StepResult{
		Op: "submit", Flow: "academic", Step: "scores",
		Outcome: wizard.OutcomeAdvanced, Duration: 20 * time.Millisecond,
	})
	m.RecordStep(ctx, wizard.StepResult{
		Op: "jump", Flow: "academic", Step: "scores", Outcome: wizard.OutcomeInvalid,
		Invalid: []string{"gpa"},
	})

	out := scrape(t, m)
	assert.Contains(t, out, "# TYPE campusmatch_wizard_steps_total counter\n")
	assert.Contains(t, out, `campusmatch_wizard_steps_total{flow="academic",op="submit",outcome="invalid",step="scores"} 1`)
	assert.Contains(t, out, `campusmatch_wizard_steps_total{flow="academic",op="submit",outcome="advanced",step="scores"} 1`)
	assert.Contains(t, out, `campusmatch_wizard_steps_total{flow="academic",op="jump",outcome="invalid",step="scores"} 1`)

	assert.Contains(t, out, `campusmatch_wizard_validation_errors_total{field="gpa",flow="academic",step="scores"} 2`)
	assert.Contains(t, out, `campusmatch_wizard_validation_errors_total{field="standardizedTests",flow="academic",step="scores"} 1`)

	assert.Contains(t, out, "# TYPE campusmatch_wizard_step_duration_seconds histogram\n")
	assert.Contains(t, out, `campusmatch_wizard_step_duration_seconds_bucket{flow="academic",op="submit",le="0.005"} 1`)
	assert.Contains(t, out, `campusmatch_wizard_step_duration_seconds_bucket{flow="academic",op="submit",le="0.05"} 2`)
	assert.Contains(t, out, `campusmatch_wizard_step_duration_seconds_bucket{flow="academic",op="submit",le="+Inf"} 2`)
	assert.Contains(t, out, `campusmatch_wizard_step_duration_seconds_count{flow="academic",op="submit"} 2`)
}

func TestObserve(t *testing.T) {
	m := newMetrics(t)
	sessions := int64(3)
	require.NoError(t, m.ObserveGauge("sessions_active", "Live sessions", func() int64 { return sessions }))
	require.NoError(t, m.ObserveCounter("rate_limited_total", "Requests refused", func() int64 { return 7 }))

	out := scrape(t, m)
	assert.Contains(t, out, "# HELP campusmatch_sessions_active Live sessions\n")
	assert.Contains(t, out, "# TYPE campusmatch_sessions_active gauge\n")
	assert.Contains(t, out, "campusmatch_sessions_active 3\n")
	assert.Contains(t, out, "# TYPE campusmatch_rate_limited_total counter\n")
	assert.Contains(t, out, "campusmatch_rate_limited_total 7\n")

	sessions = 1
	assert.Contains(t, scrape(t, m), "campusmatch_sessions_active 1\n")
}

func TestLabels_Escaped(t *testing.T) {
	m := newMetrics(t)
	m.RecordStep(context.Background(), wizard.StepResult{
		Op: "continue", Flow: `a"b`, Step: "x\\y", Outcome: wizard.OutcomeStayed,
	})
	assert.Contains(t, scrape(t, m), `{flow="a\"b",op="continue",outcome="stayed",step="x\\y"} 1`)
}

func TestHandler(t *testing.T) {
	m := newMetrics(t)
	m.RecordStep(context.Background(), wizard.StepResult{
		Op: "continue", Flow: "contact", Step: "name", Outcome: wizard.OutcomeAdvanced,
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), `campusmatch_wizard_steps_total{flow="contact",op="continue",outcome="advanced",step="name"} 1`)
}

func TestWrite_AfterShutdown(t *testing.T) {
	m, err := New("campusmatch")
	require.NoError(t, err)
	require.NoError(t, m.Shutdown(context.Background()))

	var buf bytes.Buffer
	assert.Error(t, m.Write(context.Background(), &buf))
}

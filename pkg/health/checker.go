// Package health serves the liveness and readiness endpoints.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status represents the health status of a service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// DefaultTimeout bounds a check registered without a timeout.
const DefaultTimeout = 5 * time.Second

// CheckResult is the outcome of one check.
type CheckResult struct {
	Status     Status `json:"status"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Report is the overall health.
type Report struct {
	Status    Status                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckFunc reports a problem by returning an error.
type CheckFunc func(ctx context.Context) error

// Check defines a single health check.
type Check struct {
	Name    string
	Check   CheckFunc
	Timeout time.Duration

	// Critical failures make the service unhealthy; others only degrade it.
	Critical bool
}

// Checker runs the registered checks concurrently.
type Checker struct {
	checks  []Check
	version string
	mu      sync.RWMutex
}

// NewChecker creates a checker reporting version.
func NewChecker(version string) *Checker {
	return &Checker{version: version}
}

// AddCheck registers a non-critical check.
func (hc *Checker) AddCheck(name string, check CheckFunc, timeout time.Duration) {
	hc.add(Check{Name: name, Check: check, Timeout: timeout})
}

// AddCriticalCheck registers a check whose failure makes the service
// unhealthy.
func (hc *Checker) AddCriticalCheck(name string, check CheckFunc, timeout time.Duration) {
	hc.add(Check{Name: name, Check: check, Timeout: timeout, Critical: true})
}

func (hc *Checker) add(c Check) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks = append(hc.checks, c)
}

// Names returns the registered check names, sorted.
func (hc *Checker) Names() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	names := make([]string, len(hc.checks))
	for i, c := range hc.checks {
		names[i] = c.Name
	}
	sort.Strings(names)
	return names
}

// Run executes every check and aggregates the result.
func (hc *Checker) Run(ctx context.Context) Report {
	hc.mu.RLock()
	checks := make([]Check, len(hc.checks))
	copy(checks, hc.checks)
	hc.mu.RUnlock()

	report := Report{
		Status:    StatusHealthy,
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: time.Now().UTC(),
		Version:   hc.version,
	}

	type outcome struct {
		check  Check
		result CheckResult
	}
	results := make(chan outcome, len(checks))

	var wg sync.WaitGroup
	for _, c := range checks {
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()
			results <- outcome{check: c, result: runCheck(ctx, c)}
		}(c)
	}
	wg.Wait()
	close(results)

	for o := range results {
		report.Checks[o.check.Name] = o.result
		if o.result.Status == StatusHealthy {
			continue
		}
		if o.check.Critical {
			report.Status = StatusUnhealthy
		} else if report.Status == StatusHealthy {
			report.Status = StatusDegraded
		}
	}
	return report
}

func runCheck(ctx context.Context, c Check) CheckResult {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				errCh <- fmt.Errorf("check panicked: %v", rec)
			}
		}()
		errCh <- c.Check(ctx)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
	}

	result := CheckResult{
		Status:     StatusHealthy,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	return result
}

// LivenessHandler answers 200 while the process runs.
func (hc *Checker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "alive",
			"timestamp": time.Now().UTC(),
		})
	})
}

// ReadinessHandler answers 503 when a critical check fails, 200 otherwise.
func (hc *Checker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := hc.Run(r.Context())
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Pinger is anything that can prove it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck checks a store or connection.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// CapacityError reports a pool running full.
type CapacityError struct {
	Current int
	Max     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("at capacity: %d of %d", e.Current, e.Max)
}

// CapacityCheck fails once count reaches max. A max of 0 disables it.
func CapacityCheck(count func() int, max int) CheckFunc {
	return func(ctx context.Context) error {
		if max <= 0 {
			return nil
		}
		if n := count(); n >= max {
			return &CapacityError{Current: n, Max: max}
		}
		return nil
	}
}

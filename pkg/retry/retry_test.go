package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errFlaky = errors.New("flaky")

func fast(attempts int) Config {
	return Config{Attempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fast(5)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
	}

	v, err := Do(context.Background(), cfg, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errFlaky
		}
		return "ok", nil
	})
	if err != nil || v != "ok" {
		t.Fatalf("Do = %q, %v", v, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("OnRetry attempts = %v", retried)
	}
}

func TestDo_Exhausted(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fast(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, errFlaky
	})
	if !errors.Is(err, ErrExhausted) || !errors.Is(err, errFlaky) {
		t.Errorf("err = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_Permanent(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fast(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, Permanent(errFlaky)
	})
	if !errors.Is(err, errFlaky) || IsPermanent(err) {
		t.Errorf("err = %v, want the unwrapped cause", err)
	}
	if calls != 1 {
		t.Errorf("permanent error retried: %d calls", calls)
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{Attempts: 5, InitialDelay: time.Hour}
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := Do(ctx, cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, errFlaky
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d", calls)
	}
}

func TestBackoff(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{10, time.Second},
	}
	for _, tt := range tests {
		if got := Backoff(tt.attempt, cfg); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}

	cfg.Jitter = 0.5
	for i := 0; i < 100; i++ {
		d := Backoff(0, cfg)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("jittered delay %v out of range", d)
		}
	}
}

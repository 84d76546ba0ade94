// Package shutdown runs ordered cleanup hooks when the server stops.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/campusmatch/campusmatch/pkg/logging"
)

// Common shutdown errors.
var (
	ErrShutdownTimeout = errors.New("shutdown timed out")
	ErrAlreadyClosed   = errors.New("shutdown handler already closed")
)

// Hook priorities. Lower runs earlier: stop accepting requests, close the
// live sessions that still write answers, then the stores.
const (
	PriorityHTTP  = 100
	PriorityLive  = 200
	PriorityStore = 300
	PriorityLast  = 1000
)

// Hook is one cleanup step.
type Hook struct {
	Name     string
	Priority int
	Fn       func(ctx context.Context) error
}

// Config configures the shutdown handler.
type Config struct {
	// Timeout bounds the whole shutdown.
	Timeout time.Duration

	Signals []os.Signal

	Logger logging.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
		Signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
}

// Handler manages graceful shutdown.
type Handler struct {
	config *Config
	logger logging.Logger
	hooks  []Hook
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

// NewHandler creates a new shutdown handler. A nil config uses the defaults.
func NewHandler(config *Config) *Handler {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	// signal.Notify with no signals would relay every signal.
	if len(config.Signals) == 0 {
		config.Signals = defaults.Signals
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Handler{
		config: config,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Register adds a shutdown hook.
func (h *Handler) Register(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// RegisterFunc registers fn as a hook.
func (h *Handler) RegisterFunc(name string, priority int, fn func(ctx context.Context) error) {
	h.Register(Hook{Name: name, Priority: priority, Fn: fn})
}

// RegisterCloser registers anything with a Close method.
func (h *Handler) RegisterCloser(name string, priority int, closer interface{ Close() error }) {
	h.RegisterFunc(name, priority, func(context.Context) error {
		return closer.Close()
	})
}

// Wait blocks until a configured signal arrives or ctx ends, then shuts
// down. It returns nil without running hooks when Shutdown was already
// called elsewhere.
func (h *Handler) Wait(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, h.config.Signals...)
	defer stop()

	select {
	case <-sigCtx.Done():
	case <-h.done:
		return nil
	}

	h.logger.Info("shutting down")
	return h.Shutdown()
}

// Shutdown runs every hook in priority order. Hook errors are collected;
// a hook that outlives the timeout stops the sequence.
func (h *Handler) Shutdown() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrAlreadyClosed
	}
	h.closed = true
	close(h.done)

	hooks := make([]Hook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].Priority < hooks[j].Priority
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var errs []error
	for _, hook := range hooks {
		start := time.Now()
		err := hook.Fn(ctx)
		fields := []logging.Field{
			logging.String("hook", hook.Name),
			logging.Duration("took", time.Since(start)),
		}
		if err != nil {
			h.logger.Warn("shutdown hook failed", append(fields, logging.Err(err))...)
			errs = append(errs, fmt.Errorf("%s: %w", hook.Name, err))
		} else {
			h.logger.Debug("shutdown hook done", fields...)
		}

		if ctx.Err() != nil {
			errs = append(errs, ErrShutdownTimeout)
			break
		}
	}
	return errors.Join(errs...)
}

// Done is closed once shutdown starts.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// IsClosed returns true if the handler has been closed.
func (h *Handler) IsClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

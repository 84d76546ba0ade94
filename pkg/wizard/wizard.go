package wizard

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/campusmatch/campusmatch/pkg/logging"
)

const tracerName = "github.com/campusmatch/campusmatch/pkg/wizard"

// Wizard runs one flow for one visitor. Controllers are created and mounted
// lazily when their step first becomes active and live until Close.
// A Wizard belongs to a single session and is not safe for concurrent use.
type Wizard struct {
	flow        *Flow
	cursor      *Cursor
	controllers []*Controller

	persister Persister
	navigator Navigator
	logger    logging.Logger
	tracer    trace.Tracer
	recorder  Recorder
}

// StepResult describes one finished continue, submit or jump.
type StepResult struct {
	// Op is "continue", "submit" or "jump".
	Op      string
	Flow    string
	Step    string
	Outcome Outcome
	// Invalid lists the fields that failed validation.
	Invalid  []string
	Duration time.Duration
}

// Recorder receives every StepResult.
type Recorder interface {
	RecordStep(ctx context.Context, r StepResult)
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithPersister sets where answers are loaded from and saved to.
func WithPersister(p Persister) Option {
	return func(w *Wizard) {
		w.persister = p
	}
}

// WithNavigator sets the navigation boundary.
func WithNavigator(n Navigator) Option {
	return func(w *Wizard) {
		w.navigator = n
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(w *Wizard) {
		w.logger = l
	}
}

// WithTracer sets the tracer. Defaults to the global provider's.
func WithTracer(t trace.Tracer) Option {
	return func(w *Wizard) {
		w.tracer = t
	}
}

// WithRecorder sets where step results are reported.
func WithRecorder(r Recorder) Option {
	return func(w *Wizard) {
		w.recorder = r
	}
}

// New creates a wizard positioned on the first step of flow.
func New(flow *Flow, opts ...Option) *Wizard {
	w := &Wizard{
		flow:        flow,
		cursor:      NewCursor(len(flow.Steps)),
		controllers: make([]*Controller, len(flow.Steps)),
		logger:      logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.tracer == nil {
		w.tracer = otel.Tracer(tracerName)
	}
	return w
}

// Flow returns the flow definition.
func (w *Wizard) Flow() *Flow {
	return w.flow
}

// Position returns the index of the active step.
func (w *Wizard) Position() int {
	return w.cursor.Position()
}

// Progress returns the status of every step.
func (w *Wizard) Progress() []StepStatus {
	return w.cursor.Progress()
}

// Active returns the controller of the active step, mounting it on first
// use.
func (w *Wizard) Active(ctx context.Context) *Controller {
	i := w.cursor.Position()
	if w.controllers[i] == nil {
		c := newController(w, i)
		c.mount(ctx)
		w.controllers[i] = c
	}
	return w.controllers[i]
}

// Mounted reports whether step i has a live controller.
func (w *Wizard) Mounted(i int) bool {
	return i >= 0 && i < len(w.controllers) && w.controllers[i] != nil
}

// Back asks the navigator for the previous page.
func (w *Wizard) Back(ctx context.Context) error {
	if w.navigator == nil {
		return ErrNoNavigator
	}
	if err := w.navigator.Back(ctx); err != nil {
		return fmt.Errorf("navigate back: %w", err)
	}
	return nil
}

// Close drops every controller. Unsaved answers are discarded.
func (w *Wizard) Close() {
	for i := range w.controllers {
		w.controllers[i] = nil
	}
}

func (w *Wizard) navigate(ctx context.Context, path string) error {
	if w.navigator == nil {
		return ErrNoNavigator
	}
	if err := w.navigator.Navigate(ctx, path); err != nil {
		return fmt.Errorf("navigate to %s: %w", path, err)
	}
	w.logger.Info("flow completed", logging.Flow(w.flow.Name), logging.String("to", path))
	return nil
}

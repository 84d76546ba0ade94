package wizard

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/campusmatch/campusmatch/pkg/forms"
	"github.com/campusmatch/campusmatch/pkg/logging"
)

// Outcome is the result of a continue, submit or jump request.
type Outcome int

const (
	// OutcomeInvalid means validation failed. Only the errors changed.
	OutcomeInvalid Outcome = iota
	// OutcomeAdvanced means the cursor moved.
	OutcomeAdvanced
	// OutcomeStayed means the step was valid but there was nowhere to go.
	OutcomeStayed
	// OutcomeCompleted means the flow navigated away.
	OutcomeCompleted
	// OutcomeFailed means a save or navigation failed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeAdvanced:
		return "advanced"
	case OutcomeStayed:
		return "stayed"
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FieldView is what a renderer needs for one input.
type FieldView struct {
	Path  string
	Field forms.Field
	Value any
	Error string
}

// Invalid reports whether the field currently has an error.
func (v FieldView) Invalid() bool {
	return v.Error != ""
}

// Controller owns the answers and errors of one step. It is created and
// mounted by its Wizard the first time the step becomes active.
type Controller struct {
	w      *Wizard
	index  int
	step   Step
	form   *forms.Form
	logger logging.Logger
}

func newController(w *Wizard, index int) *Controller {
	step := w.flow.Steps[index]
	// Rules were checked by NewFlow.
	form, err := forms.NewForm(step.Schema, step.Rules...)
	if err != nil {
		panic(fmt.Sprintf("wizard: step %q: %v", step.ID, err))
	}
	return &Controller{
		w:     w,
		index: index,
		step:  step,
		form:  form,
		logger: w.logger.With(
			logging.Flow(w.flow.Name),
			logging.Screen(step.ID),
		),
	}
}

// mount restores saved answers. Nothing saved, a failed read and unreadable
// content all leave the defaults in place.
func (c *Controller) mount(ctx context.Context) {
	key := c.step.StorageKey
	if key == "" || c.w.persister == nil {
		return
	}

	ctx, span := c.w.tracer.Start(ctx, "wizard.mount", trace.WithAttributes(c.attrs()...))
	defer span.End()

	raw, err := c.w.persister.Load(ctx, key)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("load saved answers failed, using defaults",
			logging.StorageKey(key), logging.Err(err))
		return
	}
	if raw == nil {
		return
	}

	answers, err := c.step.Schema.Normalize(raw)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("saved answers unreadable, using defaults",
			logging.StorageKey(key), logging.Err(err))
		return
	}
	c.form.Load(answers)
	c.logger.Debug("restored saved answers", logging.StorageKey(key))
}

// Step returns the step definition.
func (c *Controller) Step() Step {
	return c.step
}

// Index returns the step's position in the flow.
func (c *Controller) Index() int {
	return c.index
}

// Active reports whether the wizard cursor is on this step.
func (c *Controller) Active() bool {
	return c.w.cursor.Position() == c.index
}

// IsLast reports whether this is the terminal step.
func (c *Controller) IsLast() bool {
	return c.index == len(c.w.flow.Steps)-1
}

// Answers returns a copy of the current answers.
func (c *Controller) Answers() forms.AnswerSet {
	return c.form.Answers()
}

// Value returns the current value at path.
func (c *Controller) Value(path string) any {
	return c.form.Value(path)
}

// SetField updates one answer and clears that field's error.
func (c *Controller) SetField(path string, value any) error {
	return c.form.SetField(path, value)
}

// RejectInput turns a refused SetField into an inline field error. See
// forms.Form.RejectInput.
func (c *Controller) RejectInput(path string, cause error) error {
	return c.form.RejectInput(path, cause)
}

// ToggleItem adds or removes item in a list field.
func (c *Controller) ToggleItem(path, item string) error {
	return c.form.ToggleItem(path, item)
}

// Validate runs the step's rules and replaces the errors.
func (c *Controller) Validate() forms.ErrorMap {
	return c.form.Validate()
}

// Valid reports whether the last validation found no errors.
func (c *Controller) Valid() bool {
	return c.form.Valid()
}

// Errors returns a copy of the current errors.
func (c *Controller) Errors() forms.ErrorMap {
	return c.form.Errors()
}

// HasErrors reports whether any field is invalid.
func (c *Controller) HasErrors() bool {
	return !c.form.Valid()
}

// ShowSummary reports whether the "fix the errors" banner is shown: on the
// terminal step with more than one invalid field.
func (c *Controller) ShowSummary() bool {
	return c.IsLast() && c.form.Errors().Len() > 1
}

// Field returns the view of one leaf field.
func (c *Controller) Field(path string) (FieldView, error) {
	f, err := c.step.Schema.Field(path)
	if err != nil {
		return FieldView{}, err
	}
	return FieldView{
		Path:  path,
		Field: f,
		Value: c.form.Value(path),
		Error: c.form.Error(path),
	}, nil
}

// Fields returns the views of every leaf field in declaration order.
func (c *Controller) Fields() []FieldView {
	paths := c.step.Schema.Paths()
	out := make([]FieldView, 0, len(paths))
	for _, p := range paths {
		v, err := c.Field(p)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Primary runs the step's primary action.
func (c *Controller) Primary(ctx context.Context) (Outcome, error) {
	if c.step.Action == ActionContinue {
		return c.ContinueToNext(ctx)
	}
	return c.Submit(ctx)
}

// ContinueToNext validates and moves to the next step without saving. On
// the last step a valid continue stays put.
func (c *Controller) ContinueToNext(ctx context.Context) (out Outcome, err error) {
	ctx, span := c.w.tracer.Start(ctx, "wizard.continue", trace.WithAttributes(c.attrs()...))
	defer c.finish(ctx, span, "continue", time.Now(), &out, &err)

	if err := c.checkActive(); err != nil {
		return OutcomeFailed, err
	}
	if errs := c.form.Validate(); !errs.Empty() {
		c.logger.Debug("continue rejected", logging.Int("errors", errs.Len()))
		return OutcomeInvalid, nil
	}
	if !c.w.cursor.Advance() {
		return OutcomeStayed, nil
	}
	c.w.Active(ctx)
	return OutcomeAdvanced, nil
}

// Submit validates, saves the answers under the step's storage key and then
// advances. On the terminal step it navigates to the flow's completion
// path. A failed save or navigation is returned and the cursor is left
// where it was. The save happens first, so when navigation fails on the
// terminal step the answers are already stored.
func (c *Controller) Submit(ctx context.Context) (out Outcome, err error) {
	ctx, span := c.w.tracer.Start(ctx, "wizard.submit", trace.WithAttributes(c.attrs()...))
	defer c.finish(ctx, span, "submit", time.Now(), &out, &err)

	if err := c.checkActive(); err != nil {
		return OutcomeFailed, err
	}
	if errs := c.form.Validate(); !errs.Empty() {
		c.logger.Debug("submit rejected", logging.Int("errors", errs.Len()))
		return OutcomeInvalid, nil
	}

	if key := c.step.StorageKey; key != "" {
		if c.w.persister == nil {
			return OutcomeFailed, ErrNoPersister
		}
		if err := c.w.persister.Save(ctx, key, c.form.Answers()); err != nil {
			return OutcomeFailed, fmt.Errorf("save %s: %w", key, err)
		}
		c.logger.Info("answers saved", logging.StorageKey(key))
	}

	if c.IsLast() {
		if err := c.w.navigate(ctx, c.w.flow.CompletePath); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeCompleted, nil
	}

	c.w.cursor.Advance()
	c.w.Active(ctx)
	return OutcomeAdvanced, nil
}

// JumpTo moves directly to step index, forwards or backwards, provided
// this step validates.
func (c *Controller) JumpTo(ctx context.Context, index int) (out Outcome, err error) {
	ctx, span := c.w.tracer.Start(ctx, "wizard.jump", trace.WithAttributes(
		append(c.attrs(), attribute.Int("wizard.target", index))...))
	defer c.finish(ctx, span, "jump", time.Now(), &out, &err)

	if err := c.checkActive(); err != nil {
		return OutcomeFailed, err
	}
	if index < 0 || index >= len(c.w.flow.Steps) {
		return OutcomeFailed, fmt.Errorf("%w: %d", ErrStepOutOfRange, index)
	}
	if errs := c.form.Validate(); !errs.Empty() {
		return OutcomeInvalid, nil
	}
	if index == c.index {
		return OutcomeStayed, nil
	}
	if err := c.w.cursor.Set(index); err != nil {
		return OutcomeFailed, err
	}
	c.w.Active(ctx)
	return OutcomeAdvanced, nil
}

// Back asks the navigator for the previous page. It does not validate.
func (c *Controller) Back(ctx context.Context) error {
	return c.w.Back(ctx)
}

func (c *Controller) checkActive() error {
	if !c.Active() {
		return fmt.Errorf("%w: %s", ErrInactive, c.step.ID)
	}
	return nil
}

func (c *Controller) attrs() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("wizard.flow", c.w.flow.Name),
		attribute.String("wizard.step", c.step.ID),
		attribute.Int("wizard.position", c.index),
	}
}

// finish ends the span and reports the result. out and err point at the
// caller's named results so the deferred call sees their final values.
func (c *Controller) finish(ctx context.Context, span trace.Span, op string, start time.Time, out *Outcome, err *error) {
	endSpan(span, *out, *err)
	if c.w.recorder == nil {
		return
	}
	r := StepResult{
		Op:       op,
		Flow:     c.w.flow.Name,
		Step:     c.step.ID,
		Outcome:  *out,
		Duration: time.Since(start),
	}
	if *out == OutcomeInvalid {
		r.Invalid = c.form.Errors().Fields()
	}
	c.w.recorder.RecordStep(ctx, r)
}

func endSpan(span trace.Span, out Outcome, err error) {
	span.SetAttributes(attribute.String("wizard.outcome", out.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

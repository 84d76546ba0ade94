package registration

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/campusmatch/campusmatch/internal/website"
	"github.com/campusmatch/campusmatch/internal/website/components"
	"github.com/campusmatch/campusmatch/pkg/core"
	"github.com/campusmatch/campusmatch/pkg/forms"
	"github.com/campusmatch/campusmatch/pkg/logging"
	"github.com/campusmatch/campusmatch/pkg/protocol"
	"github.com/campusmatch/campusmatch/pkg/router"
	"github.com/campusmatch/campusmatch/pkg/state"
	"github.com/campusmatch/campusmatch/pkg/wizard"
)

var (
	// ErrUnknownEvent is returned for events the page does not handle.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrBadPayload is returned when an event lacks a required field.
	ErrBadPayload = errors.New("bad event payload")
)

// Deps are what every registration page shares.
type Deps struct {
	// Answers saves and restores screens. Nil disables persistence.
	Answers *state.AnswerStore
	Logger  logging.Logger
	Tracer  trace.Tracer
	// Recorder counts step outcomes. Optional.
	Recorder wizard.Recorder
}

func (d Deps) logger() logging.Logger {
	if d.Logger == nil {
		return logging.NopLogger{}
	}
	return d.Logger
}

// FlowView serves one flow as a live page.
type FlowView struct {
	core.BaseComponent

	flow *wizard.Flow
	deps Deps

	wiz    *wizard.Wizard
	nonce  string
	device string

	// failed shows the generic failure banner until the next successful
	// action.
	failed bool
}

// NewFlowView returns a constructor for router.Live.
func NewFlowView(flow *wizard.Flow, deps Deps) func() core.Component {
	return func() core.Component {
		return &FlowView{flow: flow, deps: deps}
	}
}

// Name implements core.Component.
func (v *FlowView) Name() string {
	return "flow:" + v.flow.Name
}

// Mount builds the wizard and restores the first screen.
func (v *FlowView) Mount(ctx context.Context, params core.Params, session core.Session) error {
	v.device = session.Device()
	v.nonce = router.GetCSPNonce(ctx)

	opts := []wizard.Option{wizard.WithLogger(v.deps.logger().With(logging.Device(v.device)))}
	if v.deps.Tracer != nil {
		opts = append(opts, wizard.WithTracer(v.deps.Tracer))
	}
	if v.deps.Recorder != nil {
		opts = append(opts, wizard.WithRecorder(v.deps.Recorder))
	}
	if v.deps.Answers != nil && v.device != "" {
		opts = append(opts, wizard.WithPersister(v.deps.Answers.ForDevice(v.device)))
	}
	if s := v.Socket(); s != nil {
		opts = append(opts, wizard.WithNavigator(router.NewSocketNavigator(s)))
	}

	v.wiz = wizard.New(v.flow, opts...)
	v.wiz.Active(ctx)
	return nil
}

// Wizard exposes the running wizard.
func (v *FlowView) Wizard() *wizard.Wizard {
	return v.wiz
}

// HandleEvent dispatches one client event to the active controller.
func (v *FlowView) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	ctrl := v.wiz.Active(ctx)
	msg := protocol.Message{Payload: payload}

	switch event {
	case components.EventSetField:
		field := msg.String("field")
		if field == "" {
			return fmt.Errorf("%w: %s without field", ErrBadPayload, event)
		}
		if err := ctrl.SetField(field, payload["value"]); err != nil {
			return ctrl.RejectInput(field, err)
		}
		return nil

	case components.EventToggleItem:
		field, item := msg.String("field"), msg.String("item")
		if field == "" || item == "" {
			return fmt.Errorf("%w: %s needs field and item", ErrBadPayload, event)
		}
		return ctrl.ToggleItem(field, item)

	case components.EventContinue:
		_, err := ctrl.ContinueToNext(ctx)
		return v.settle(err)

	case components.EventSubmit:
		_, err := ctrl.Submit(ctx)
		return v.settle(err)

	case components.EventGotoStep:
		step, ok := msg.Int("step")
		if !ok {
			return fmt.Errorf("%w: %s without step", ErrBadPayload, event)
		}
		_, err := ctrl.JumpTo(ctx, step)
		return v.settle(err)

	case components.EventBack:
		return v.settle(ctrl.Back(ctx))

	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event)
	}
}

func (v *FlowView) settle(err error) error {
	v.failed = err != nil
	return err
}

// Render draws the active screen.
func (v *FlowView) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, v.renderPage(ctx))
		return err
	})
}

func (v *FlowView) renderPage(ctx context.Context) string {
	ctrl := v.wiz.Active(ctx)
	step := ctrl.Step()

	cfg := website.DefaultPageConfig()
	cfg.Title = step.Title + " - CampusMatch"
	cfg.Nonce = v.nonce
	cfg.Live = true

	var body strings.Builder
	body.WriteString(components.RenderNavbar(components.DefaultNavbar()))
	body.WriteString(`<main id="main-content" class="wizard">`)
	body.WriteString(`<div class="container container-narrow">`)
	body.WriteString(`<div data-slot="wizard">`)
	body.WriteString(v.renderStep(ctrl))
	body.WriteString(`</div>`)
	body.WriteString(`</div>`)
	body.WriteString("</main>\n")
	body.WriteString(components.RenderFooter(components.DefaultFooter()))

	return website.RenderDocument(cfg, "", body.String())
}

func (v *FlowView) renderStep(ctrl *wizard.Controller) string {
	step := ctrl.Step()
	var sb strings.Builder

	progress := v.wiz.Progress()
	steps := make([]components.ProgressStep, len(progress))
	for i, status := range progress {
		steps[i] = components.ProgressStep{Label: v.flow.Steps[i].Label, Status: status}
	}
	sb.WriteString(components.RenderProgress(steps))

	sb.WriteString(fmt.Sprintf(`<h1 class="wizard-title">%s</h1>`, html.EscapeString(step.Title)))
	if step.Subtitle != "" {
		sb.WriteString(fmt.Sprintf(`<p class="wizard-subtitle">%s</p>`, html.EscapeString(step.Subtitle)))
	}
	sb.WriteString("\n")

	if v.failed {
		sb.WriteString(components.RenderBanner("error", components.FailureMessage))
	}
	if ctrl.ShowSummary() {
		sb.WriteString(components.RenderBanner("warning", components.SummaryMessage))
	}

	event, label := components.EventSubmit, "Submit"
	if step.Action == wizard.ActionContinue {
		event, label = components.EventContinue, "Continue"
	} else if !ctrl.IsLast() {
		label = "Save & Continue"
	}

	sb.WriteString(fmt.Sprintf(`<form class="form" data-submit="%s" novalidate>`, event))
	sb.WriteString("\n")
	sb.WriteString(renderFields(ctrl, "", step.Schema.Fields()))
	sb.WriteString(components.RenderActions(components.ActionOptions{
		Event:    event,
		Label:    label,
		ShowBack: true,
	}))
	sb.WriteString("</form>\n")
	return sb.String()
}

// renderFields walks the schema so groups keep their fieldset.
func renderFields(ctrl *wizard.Controller, prefix string, fields []forms.Field) string {
	var sb strings.Builder
	for _, f := range fields {
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		if f.Kind == forms.KindGroup {
			sb.WriteString(components.RenderGroup(f.Label, renderFields(ctrl, path, f.Fields)))
			continue
		}
		view, err := ctrl.Field(path)
		if err != nil {
			continue
		}
		sb.WriteString(components.RenderField(view))
	}
	return sb.String()
}

// Terminate drops the wizard. Unsaved edits are lost.
func (v *FlowView) Terminate(ctx context.Context, reason core.TerminateReason) error {
	if v.wiz != nil {
		v.wiz.Close()
	}
	return nil
}

package components

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"github.com/campusmatch/campusmatch/pkg/forms"
	"github.com/campusmatch/campusmatch/pkg/wizard"
)

// Events sent by the registration form. The client sends set_field and
// toggle_item on its own for inputs carrying data-field.
const (
	EventSetField   = "set_field"
	EventToggleItem = "toggle_item"
	EventContinue   = "continue"
	EventSubmit     = "submit"
	EventGotoStep   = "goto_step"
	EventBack       = "back"
)

// Banner messages.
const (
	SummaryMessage = "Please fix the errors below"
	FailureMessage = "Something went wrong. Please try again."
)

// FieldID is the DOM id of the input for path.
func FieldID(path string) string {
	return "field-" + slug.Make(path)
}

func errorID(path string) string {
	return "error-" + slug.Make(path)
}

// RenderField renders one input with its label, help and error. Groups are
// rendered by RenderGroup.
func RenderField(v wizard.FieldView) string {
	var sb strings.Builder

	class := "field"
	if v.Invalid() {
		class += " field-invalid"
	}
	sb.WriteString(fmt.Sprintf(`<div class="%s">`, class))

	switch v.Field.Type {
	case forms.FieldRadio, forms.FieldChecks:
		sb.WriteString(`<fieldset>`)
		sb.WriteString(fmt.Sprintf(`<legend>%s</legend>`, html.EscapeString(v.Field.Label)))
		sb.WriteString(renderChoices(v))
		sb.WriteString(`</fieldset>`)
	case forms.FieldCheckbox:
		sb.WriteString(renderCheckbox(v))
	default:
		sb.WriteString(fmt.Sprintf(`<label for="%s">%s</label>`, FieldID(v.Path), html.EscapeString(v.Field.Label)))
		sb.WriteString(renderInput(v))
	}

	if v.Field.Help != "" {
		sb.WriteString(fmt.Sprintf(`<p class="field-help">%s</p>`, html.EscapeString(v.Field.Help)))
	}
	if v.Invalid() {
		sb.WriteString(fmt.Sprintf(`<p class="field-error" id="%s" role="alert">%s</p>`,
			errorID(v.Path), html.EscapeString(v.Error)))
	}

	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	return sb.String()
}

// commonAttrs are shared by every input bound to path.
func commonAttrs(v wizard.FieldView) string {
	attrs := fmt.Sprintf(` name="%s" data-field="%s"`, html.EscapeString(v.Path), html.EscapeString(v.Path))
	if v.Invalid() {
		attrs += fmt.Sprintf(` aria-invalid="true" aria-describedby="%s"`, errorID(v.Path))
	}
	return attrs
}

func renderInput(v wizard.FieldView) string {
	id := FieldID(v.Path)
	placeholder := ""
	if v.Field.Placeholder != "" {
		placeholder = fmt.Sprintf(` placeholder="%s"`, html.EscapeString(v.Field.Placeholder))
	}

	switch v.Field.Type {
	case forms.FieldTextarea:
		return fmt.Sprintf(`<textarea id="%s"%s%s>%s</textarea>`,
			id, commonAttrs(v), placeholder, html.EscapeString(FormatValue(v.Value)))
	case forms.FieldSelect:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf(`<select id="%s"%s>`, id, commonAttrs(v)))
		sb.WriteString(`<option value="">Select...</option>`)
		current := FormatValue(v.Value)
		for _, o := range v.Field.Options {
			selected := ""
			if o.Value == current {
				selected = " selected"
			}
			sb.WriteString(fmt.Sprintf(`<option value="%s"%s>%s</option>`,
				html.EscapeString(o.Value), selected, html.EscapeString(o.Label)))
		}
		sb.WriteString(`</select>`)
		return sb.String()
	default:
		return fmt.Sprintf(`<input type="%s" id="%s"%s%s value="%s">`,
			inputType(v.Field.Type), id, commonAttrs(v), placeholder, html.EscapeString(FormatValue(v.Value)))
	}
}

func inputType(t forms.FieldType) string {
	switch t {
	case forms.FieldEmail, forms.FieldTel, forms.FieldNumber, forms.FieldDate:
		return string(t)
	default:
		return "text"
	}
}

func renderCheckbox(v wizard.FieldView) string {
	checked := ""
	if b, _ := v.Value.(bool); b {
		checked = " checked"
	}
	return fmt.Sprintf(`<label class="choice" for="%s"><input type="checkbox" id="%s"%s value="true"%s> %s</label>`,
		FieldID(v.Path), FieldID(v.Path), commonAttrs(v), checked, html.EscapeString(v.Field.Label))
}

// renderChoices renders radios for a choice field and checkboxes for a
// list field. List checkboxes carry data-item so the client toggles them.
func renderChoices(v wizard.FieldView) string {
	var sb strings.Builder
	sb.WriteString(`<div class="choices">`)

	selected := map[string]bool{}
	switch val := v.Value.(type) {
	case string:
		selected[val] = true
	case []string:
		for _, item := range val {
			selected[item] = true
		}
	}

	for i, o := range v.Field.Options {
		id := fmt.Sprintf("%s-%d", FieldID(v.Path), i)
		checked := ""
		if selected[o.Value] {
			checked = " checked"
		}
		if v.Field.Kind == forms.KindList {
			sb.WriteString(fmt.Sprintf(`<label class="choice" for="%s"><input type="checkbox" id="%s"%s data-item="%s" value="%s"%s> %s</label>`,
				id, id, commonAttrs(v), html.EscapeString(o.Value), html.EscapeString(o.Value), checked, html.EscapeString(o.Label)))
		} else {
			sb.WriteString(fmt.Sprintf(`<label class="choice" for="%s"><input type="radio" id="%s"%s value="%s"%s> %s</label>`,
				id, id, commonAttrs(v), html.EscapeString(o.Value), checked, html.EscapeString(o.Label)))
		}
	}

	sb.WriteString(`</div>`)
	return sb.String()
}

// RenderGroup wraps already rendered children in a labelled fieldset.
func RenderGroup(label, children string) string {
	return fmt.Sprintf(`<fieldset class="group"><legend>%s</legend>%s</fieldset>`+"\n",
		html.EscapeString(label), children)
}

// FormatValue renders an answer as input text. Numbers drop trailing zeros
// and an empty number is "".
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []string:
		return strings.Join(val, ", ")
	default:
		return fmt.Sprint(val)
	}
}

// ProgressStep is one entry of the progress indicator.
type ProgressStep struct {
	Label  string
	Status wizard.StepStatus
}

// RenderProgress renders one bar per step, filled for done steps. Every
// bar is a goto_step button; the server decides whether the jump is
// allowed.
func RenderProgress(steps []ProgressStep) string {
	var sb strings.Builder
	sb.WriteString(`<nav class="progress" aria-label="Registration progress">`)
	for i, s := range steps {
		current := ""
		if s.Status == wizard.StepActive {
			current = ` aria-current="step"`
		}
		sb.WriteString(fmt.Sprintf(`<button type="button" class="progress-step %s" data-event="%s" data-step="%d"%s>`,
			s.Status, EventGotoStep, i, current))
		sb.WriteString(`<span class="progress-bar"></span>`)
		sb.WriteString(fmt.Sprintf(`<span>%d. %s</span>`, i+1, html.EscapeString(s.Label)))
		sb.WriteString(`</button>`)
	}
	sb.WriteString(`</nav>`)
	sb.WriteString("\n")
	return sb.String()
}

// RenderBanner renders an alert. kind is "error" or "warning".
func RenderBanner(kind, message string) string {
	return fmt.Sprintf(`<div class="banner banner-%s" role="alert">%s</div>`+"\n",
		kind, html.EscapeString(message))
}

// ActionOptions configures the buttons under a form.
type ActionOptions struct {
	// Event is the primary button's event, continue or submit.
	Event string
	Label string
	// ShowBack adds a back button.
	ShowBack bool
}

// RenderActions renders the back and primary buttons.
func RenderActions(opts ActionOptions) string {
	var sb strings.Builder
	sb.WriteString(`<div class="wizard-actions">`)
	if opts.ShowBack {
		sb.WriteString(fmt.Sprintf(`<button type="button" class="btn btn-secondary" data-event="%s">← Back</button>`, EventBack))
	} else {
		sb.WriteString(`<span></span>`)
	}
	sb.WriteString(fmt.Sprintf(`<button type="submit" class="btn btn-primary" data-event="%s">%s</button>`,
		html.EscapeString(opts.Event), html.EscapeString(opts.Label)))
	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	return sb.String()
}

// Package tui runs the registration flows in a terminal. It drives the
// same controllers as the live pages.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/campusmatch/campusmatch/pkg/forms"
	"github.com/campusmatch/campusmatch/pkg/logging"
	"github.com/campusmatch/campusmatch/pkg/state"
	"github.com/campusmatch/campusmatch/pkg/wizard"
)

// ErrUnknownFlow is returned when the start path serves no flow.
var ErrUnknownFlow = errors.New("unknown flow")

// Status line messages.
const (
	summaryMessage = "Please fix the errors below"
	failureMessage = "Something went wrong. Please try again."
)

// Options configures the terminal host.
type Options struct {
	Flows []*wizard.Flow
	// Start is the path of the first flow. Defaults to the first flow.
	Start string

	Device string
	// Answers saves and restores screens. Nil disables persistence.
	Answers *state.AnswerStore
	Logger  logging.Logger
}

// navigator records where the controller wants to go; the model acts on
// it after each key.
type navigator struct {
	target string
	back   bool
}

func (n *navigator) Navigate(ctx context.Context, path string) error {
	n.target = path
	return nil
}

func (n *navigator) Back(ctx context.Context) error {
	n.back = true
	return nil
}

// Model is the bubbletea model of one terminal session.
type Model struct {
	ctx     context.Context
	opts    Options
	flows   map[string]*wizard.Flow
	history []string
	path    string
	wiz     *wizard.Wizard
	nav     *navigator

	// step is the wizard position the focus belongs to.
	step  int
	focus int
	// option is the highlighted option of a list field.
	option int
	// edit buffers the text of the focused text or number field.
	edit string

	status string
	failed bool
	done   bool
	width  int
}

// New opens the start flow.
func New(ctx context.Context, opts Options) (Model, error) {
	if len(opts.Flows) == 0 {
		return Model{}, fmt.Errorf("%w: no flows", ErrUnknownFlow)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger{}
	}
	m := Model{
		ctx:   ctx,
		opts:  opts,
		flows: make(map[string]*wizard.Flow, len(opts.Flows)),
		nav:   &navigator{},
	}
	for _, f := range opts.Flows {
		m.flows[f.Path] = f
	}

	start := opts.Start
	if start == "" {
		start = opts.Flows[0].Path
	}
	if _, ok := m.flows[start]; !ok {
		return Model{}, fmt.Errorf("%w: %s", ErrUnknownFlow, start)
	}
	m.open(start)
	return m, nil
}

func (m *Model) open(path string) {
	flow := m.flows[path]
	opts := []wizard.Option{
		wizard.WithNavigator(m.nav),
		wizard.WithLogger(m.opts.Logger.With(logging.Device(m.opts.Device))),
	}
	if m.opts.Answers != nil && m.opts.Device != "" {
		opts = append(opts, wizard.WithPersister(m.opts.Answers.ForDevice(m.opts.Device)))
	}
	if m.wiz != nil {
		m.wiz.Close()
	}
	m.path = path
	m.wiz = wizard.New(flow, opts...)
	m.wiz.Active(m.ctx)
	m.focusOn(0)
}

// Path is the path of the open flow.
func (m Model) Path() string {
	return m.path
}

// Wizard is the open flow's wizard.
func (m Model) Wizard() *wizard.Wizard {
	return m.wiz
}

// Done reports whether the visitor finished or left the last flow.
func (m Model) Done() bool {
	return m.done
}

// Status is the current status line.
func (m Model) Status() string {
	return m.status
}

func (m Model) controller() *wizard.Controller {
	return m.wiz.Active(m.ctx)
}

func (m Model) fields() []wizard.FieldView {
	return m.controller().Fields()
}

func (m Model) focused() (wizard.FieldView, bool) {
	fields := m.fields()
	if m.focus < 0 || m.focus >= len(fields) {
		return wizard.FieldView{}, false
	}
	return fields[m.focus], true
}

func editable(f forms.Field) bool {
	return f.Kind == forms.KindText || f.Kind == forms.KindNumber
}

// setFocus commits the edit buffer and moves to field i.
func (m *Model) setFocus(i int) {
	m.commit()
	m.focusOn(i)
}

func (m *Model) focusOn(i int) {
	m.step = m.wiz.Position()
	n := len(m.fields())
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	m.focus = i
	m.option = 0
	m.edit = ""
	if v, ok := m.focused(); ok && editable(v.Field) {
		m.edit = formatValue(v.Value)
	}
}

// commit writes the edit buffer of the focused field when it changed.
func (m *Model) commit() {
	v, ok := m.focused()
	if !ok || !editable(v.Field) || m.edit == formatValue(v.Value) {
		return
	}
	if err := m.controller().SetField(v.Path, m.edit); err != nil {
		m.status = fmt.Sprintf("%s: %s", v.Field.Label, describe(err))
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, forms.ErrTypeMismatch):
		return "not a valid value"
	case errors.Is(err, forms.ErrInvalidOption):
		return "not one of the options"
	default:
		return err.Error()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.done = true
		return m, tea.Quit
	case "up", "shift+tab":
		m.setFocus(m.focus - 1)
		return m, nil
	case "down", "tab", "enter":
		m.setFocus(m.focus + 1)
		return m, nil
	case "ctrl+s":
		m.commit()
		_, err := m.controller().Primary(m.ctx)
		return m.settle(err)
	case "pgdown", "pgup":
		target := m.wiz.Position() + 1
		if msg.String() == "pgup" {
			target = m.wiz.Position() - 1
		}
		if target < 0 || target >= len(m.wiz.Flow().Steps) {
			return m, nil
		}
		m.commit()
		_, err := m.controller().JumpTo(m.ctx, target)
		return m.settle(err)
	case "esc":
		m.commit()
		return m.settle(m.controller().Back(m.ctx))
	}

	v, ok := m.focused()
	if !ok {
		return m, nil
	}
	switch v.Field.Kind {
	case forms.KindText, forms.KindNumber:
		m.editText(msg)
	case forms.KindChoice:
		m.cycleChoice(v, msg.String())
	case forms.KindList:
		m.updateList(v, msg.String())
	case forms.KindBool:
		if msg.String() == " " || msg.String() == "left" || msg.String() == "right" {
			m.set(v.Path, !m.controller().Answers().Bool(v.Path))
		}
	}
	return m, nil
}

func (m *Model) editText(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyBackspace:
		if r := []rune(m.edit); len(r) > 0 {
			m.edit = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.edit += " "
	case tea.KeyRunes:
		m.edit += string(msg.Runes)
	}
}

func (m *Model) cycleChoice(v wizard.FieldView, key string) {
	opts := v.Field.Options
	if len(opts) == 0 {
		return
	}
	current := -1
	for i, o := range opts {
		if o.Value == v.Value {
			current = i
		}
	}
	switch key {
	case "right", " ":
		current = (current + 1) % len(opts)
	case "left":
		if current <= 0 {
			current = len(opts) - 1
		} else {
			current--
		}
	default:
		return
	}
	m.set(v.Path, opts[current].Value)
}

func (m *Model) updateList(v wizard.FieldView, key string) {
	n := len(v.Field.Options)
	if n == 0 {
		return
	}
	switch key {
	case "right":
		m.option = (m.option + 1) % n
	case "left":
		m.option = (m.option - 1 + n) % n
	case " ":
		if err := m.controller().ToggleItem(v.Path, v.Field.Options[m.option].Value); err != nil {
			m.status = describe(err)
		}
	}
}

func (m *Model) set(path string, value any) {
	if err := m.controller().SetField(path, value); err != nil {
		m.status = describe(err)
	}
}

// settle records the outcome of an action and follows any navigation it
// asked for.
func (m Model) settle(err error) (tea.Model, tea.Cmd) {
	m.failed = err != nil
	m.status = ""
	if err != nil {
		m.status = failureMessage
		m.opts.Logger.Warn("action failed", logging.Flow(m.wiz.Flow().Name), logging.Err(err))
	} else if m.controller().ShowSummary() {
		m.status = summaryMessage
	}

	switch {
	case m.nav.target != "":
		target := m.nav.target
		m.nav.target = ""
		if _, ok := m.flows[target]; !ok {
			m.done = true
			return m, tea.Quit
		}
		m.history = append(m.history, m.path)
		m.open(target)
	case m.nav.back:
		m.nav.back = false
		if len(m.history) == 0 {
			m.done = true
			return m, tea.Quit
		}
		prev := m.history[len(m.history)-1]
		m.history = m.history[:len(m.history)-1]
		m.open(prev)
	case m.step != m.wiz.Position():
		m.focusOn(0)
	default:
		m.focusOn(m.focus)
	}
	return m, nil
}

func formatValue(v any) string {
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

// Run runs the terminal host until the visitor finishes or quits.
func Run(ctx context.Context, opts Options, teaOpts ...tea.ProgramOption) (Model, error) {
	m, err := New(ctx, opts)
	if err != nil {
		return Model{}, err
	}
	teaOpts = append([]tea.ProgramOption{tea.WithContext(ctx)}, teaOpts...)
	final, err := tea.NewProgram(m, teaOpts...).Run()
	if err != nil {
		return Model{}, err
	}
	return final.(Model), nil
}

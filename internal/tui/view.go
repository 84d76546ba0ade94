package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/campusmatch/campusmatch/pkg/forms"
	"github.com/campusmatch/campusmatch/pkg/wizard"
)

// Palette.
const (
	colorBrand  = lipgloss.Color("#4F46E5")
	colorMuted  = lipgloss.Color("#6B7280")
	colorText   = lipgloss.Color("#E5E7EB")
	colorDone   = lipgloss.Color("#10B981")
	colorError  = lipgloss.Color("#EF4444")
	colorWarn   = lipgloss.Color("#F59E0B")
	colorAccent = lipgloss.Color("#A5B4FC")
)

var (
	styleBrand    = lipgloss.NewStyle().Bold(true).Foreground(colorBrand)
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	styleSubtitle = lipgloss.NewStyle().Foreground(colorMuted)
	styleLabel    = lipgloss.NewStyle().Foreground(colorText)
	styleFocus    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleValue    = lipgloss.NewStyle().Foreground(colorAccent)
	styleMuted    = lipgloss.NewStyle().Foreground(colorMuted)
	styleError    = lipgloss.NewStyle().Foreground(colorError)
	styleBanner   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
	styleHelp     = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)

	stepStyles = map[wizard.StepStatus]lipgloss.Style{
		wizard.StepPending: lipgloss.NewStyle().Foreground(colorMuted),
		wizard.StepActive:  lipgloss.NewStyle().Bold(true).Foreground(colorBrand),
		wizard.StepDone:    lipgloss.NewStyle().Foreground(colorDone),
	}
	stepMarks = map[wizard.StepStatus]string{
		wizard.StepPending: "○",
		wizard.StepActive:  "●",
		wizard.StepDone:    "✓",
	}
)

const helpText = "↑/↓ move · ←/→ choose · space toggle · ctrl+s save · pgup/pgdn step · esc back · ctrl+c quit"

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		return ""
	}
	ctrl := m.controller()
	step := ctrl.Step()

	var b strings.Builder
	b.WriteString(styleBrand.Render("CampusMatch"))
	b.WriteString("\n\n")
	b.WriteString(m.viewProgress())
	b.WriteString("\n\n")
	b.WriteString(styleTitle.Render(step.Title))
	b.WriteByte('\n')
	if step.Subtitle != "" {
		b.WriteString(styleSubtitle.Render(step.Subtitle))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if m.status != "" {
		color := colorWarn
		if m.failed {
			color = colorError
		}
		b.WriteString(styleBanner.BorderForeground(color).Foreground(color).Render(m.status))
		b.WriteString("\n\n")
	}

	for i, v := range ctrl.Fields() {
		b.WriteString(m.viewField(i, v))
	}

	label := "Continue"
	switch {
	case step.Action == wizard.ActionContinue:
	case ctrl.IsLast():
		label = "Submit"
	default:
		label = "Save & Continue"
	}
	b.WriteString(styleHelp.Render(fmt.Sprintf("ctrl+s: %s\n%s", label, helpText)))
	b.WriteByte('\n')
	return b.String()
}

func (m Model) viewProgress() string {
	flow := m.wiz.Flow()
	parts := make([]string, 0, len(flow.Steps))
	for i, status := range m.wiz.Progress() {
		parts = append(parts, stepStyles[status].Render(stepMarks[status]+" "+flow.Steps[i].Label))
	}
	return strings.Join(parts, styleMuted.Render("  ─  "))
}

func (m Model) viewField(i int, v wizard.FieldView) string {
	focused := i == m.focus
	cursor := "  "
	label := styleLabel.Render(v.Field.Label)
	if focused {
		cursor = styleFocus.Render("› ")
		label = styleFocus.Render(v.Field.Label)
	}

	var value string
	switch v.Field.Kind {
	case forms.KindText, forms.KindNumber:
		text := formatValue(v.Value)
		if focused {
			text = m.edit + "▏"
		}
		if text == "" && v.Field.Placeholder != "" {
			value = styleMuted.Render(v.Field.Placeholder)
		} else {
			value = styleValue.Render(text)
		}
	case forms.KindBool:
		value = checkbox(v.Value == true)
	case forms.KindChoice:
		value = viewChoice(v)
	case forms.KindList:
		value = m.viewList(v, focused)
	}

	line := fmt.Sprintf("%s%s: %s\n", cursor, label, value)
	if v.Error != "" {
		line += "    " + styleError.Render(v.Error) + "\n"
	}
	return line
}

func checkbox(on bool) string {
	if on {
		return styleValue.Render("[x]")
	}
	return styleMuted.Render("[ ]")
}

func viewChoice(v wizard.FieldView) string {
	for _, o := range v.Field.Options {
		if o.Value == v.Value {
			return styleValue.Render(o.Label)
		}
	}
	return styleMuted.Render("choose one")
}

func (m Model) viewList(v wizard.FieldView, focused bool) string {
	selected, _ := v.Value.([]string)
	picked := make(map[string]bool, len(selected))
	for _, s := range selected {
		picked[s] = true
	}
	items := make([]string, 0, len(v.Field.Options))
	for i, o := range v.Field.Options {
		item := checkbox(picked[o.Value]) + " " + o.Label
		if focused && i == m.option {
			item = styleFocus.Render(item)
		}
		items = append(items, item)
	}
	return "\n      " + strings.Join(items, "\n      ")
}

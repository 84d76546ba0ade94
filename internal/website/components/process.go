package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/campusmatch/campusmatch/internal/website"
)

// ProcessOptions configures the "how it works" section.
type ProcessOptions struct {
	// ID is the anchor the navbar links to.
	ID       string
	Title    string
	Subtitle string
	Steps    []website.ProcessStep
}

// RenderProcess generates the numbered process steps.
func RenderProcess(opts ProcessOptions) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<section id="%s" class="section section-alt" aria-labelledby="%s-title">`,
		html.EscapeString(opts.ID), html.EscapeString(opts.ID)))
	sb.WriteString("\n")
	sb.WriteString(`<div class="container">`)
	sb.WriteString("\n")

	sb.WriteString(renderSectionHead(html.EscapeString(opts.ID), opts.Title, opts.Subtitle))

	sb.WriteString(`<ol class="process">`)
	sb.WriteString("\n")
	for _, step := range opts.Steps {
		sb.WriteString(`<li class="process-step">`)
		sb.WriteString(fmt.Sprintf(`<span class="process-number" aria-hidden="true">%d</span>`, step.Number))
		sb.WriteString(`<div>`)
		sb.WriteString(fmt.Sprintf(`<h3 class="process-title"><span class="sr-only">Step %d: </span>%s</h3>`,
			step.Number, html.EscapeString(step.Title)))
		sb.WriteString(fmt.Sprintf(`<p>%s</p>`, html.EscapeString(step.Description)))
		sb.WriteString(`</div>`)
		sb.WriteString(`</li>`)
		sb.WriteString("\n")
	}
	sb.WriteString(`</ol>`)
	sb.WriteString("\n")

	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</section>`)
	sb.WriteString("\n")

	return sb.String()
}

// DefaultProcessSteps returns the five steps from profile to application.
func DefaultProcessSteps() []website.ProcessStep {
	return []website.ProcessStep{
		{Number: 1, Title: "Profile Creation", Description: "Create your academic profile by entering your interests, grades, budget, and location preferences to help us understand your needs."},
		{Number: 2, Title: "Smart Matching", Description: "We compare thousands of institutions against your unique profile and preferences."},
		{Number: 3, Title: "Personalized Recommendations", Description: "Receive a curated list of colleges and universities that align with your academic goals and personal requirements."},
		{Number: 4, Title: "Detailed Comparisons", Description: "Compare institutions side-by-side on tuition, campus life, academic programs, and graduate outcomes."},
		{Number: 5, Title: "Application Support", Description: "Get guidance through applications with deadline reminders, essay tips, and scholarship opportunities for your chosen schools."},
	}
}

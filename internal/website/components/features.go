package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/gosimple/slug"

	"github.com/campusmatch/campusmatch/internal/website"
)

// FeaturesOptions configures the features section.
type FeaturesOptions struct {
	Title    string
	Subtitle string
	Features []website.Feature
}

// RenderFeatures generates a feature grid section.
func RenderFeatures(opts FeaturesOptions) string {
	var sb strings.Builder

	id := slug.Make(opts.Title)
	sb.WriteString(fmt.Sprintf(`<section id="%s" class="section" aria-labelledby="%s-title">`, id, id))
	sb.WriteString("\n")
	sb.WriteString(`<div class="container">`)
	sb.WriteString("\n")

	sb.WriteString(renderSectionHead(id, opts.Title, opts.Subtitle))

	sb.WriteString(`<div class="grid grid-3">`)
	sb.WriteString("\n")
	for _, f := range opts.Features {
		sb.WriteString(`<div class="feature-card">`)
		sb.WriteString(fmt.Sprintf(`<div class="feature-icon" aria-hidden="true">%s</div>`, f.Icon))
		sb.WriteString(fmt.Sprintf(`<h3 class="feature-title">%s</h3>`, html.EscapeString(f.Title)))
		sb.WriteString(fmt.Sprintf(`<p>%s</p>`, html.EscapeString(f.Description)))
		sb.WriteString(`</div>`)
		sb.WriteString("\n")
	}
	sb.WriteString(`</div>`)
	sb.WriteString("\n")

	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</section>`)
	sb.WriteString("\n")

	return sb.String()
}

// renderSectionHead writes the centered title block. The heading id is
// "<id>-title" so sections can point aria-labelledby at it.
func renderSectionHead(id, title, subtitle string) string {
	var sb strings.Builder
	sb.WriteString(`<div class="section-head">`)
	sb.WriteString(fmt.Sprintf(`<h2 id="%s-title">%s</h2>`, id, html.EscapeString(title)))
	if subtitle != "" {
		sb.WriteString(fmt.Sprintf(`<p>%s</p>`, html.EscapeString(subtitle)))
	}
	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	return sb.String()
}

// DefaultFeatures returns the "why CampusMatch" cards.
func DefaultFeatures() []website.Feature {
	return []website.Feature{
		{Icon: "🎯", Title: "Matches that fit", Description: "Recommendations built from your grades, interests, budget and location."},
		{Icon: "💰", Title: "Aid you qualify for", Description: "See need-based aid and scholarships next to every school."},
		{Icon: "💾", Title: "Pick up where you left off", Description: "Every step you finish is saved on this device."},
	}
}

package components

import (
	"fmt"
	"html"
	"strings"
)

// Highlight is one figure in the strip under the hero actions.
type Highlight struct {
	Value string
	Label string
}

// HeroOptions configures the hero section.
type HeroOptions struct {
	Eyebrow string
	// Headline is rendered before Accent; Accent gets the gradient.
	Headline string
	Accent   string
	Lead     string

	// Start is the call to action that opens the registration wizard.
	Start Link
	// Learn points at a section further down the page.
	Learn Link

	Highlights []Highlight
}

// Link is an anchor with an optional trailing arrow.
type Link struct {
	Text  string
	Href  string
	Arrow bool
}

// DefaultHighlights are the figures shown on the home page.
func DefaultHighlights() []Highlight {
	return []Highlight{
		{Value: "2,500+", Label: "colleges and universities"},
		{Value: "10 min", Label: "to build your profile"},
		{Value: "Free", Label: "for every student"},
	}
}

// RenderHero generates the top of the home page.
func RenderHero(opts HeroOptions) string {
	var sb strings.Builder

	sb.WriteString(`<section class="hero" aria-labelledby="hero-title">` + "\n")
	sb.WriteString(`<div class="container">` + "\n")

	if opts.Eyebrow != "" {
		fmt.Fprintf(&sb, `<span class="badge animate-fade-in">%s</span>`+"\n", html.EscapeString(opts.Eyebrow))
	}

	sb.WriteString(`<h1 id="hero-title" class="hero-title animate-fade-in">`)
	sb.WriteString(html.EscapeString(opts.Headline))
	if opts.Accent != "" {
		if opts.Headline != "" {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, `<span class="text-gradient">%s</span>`, html.EscapeString(opts.Accent))
	}
	sb.WriteString("</h1>\n")

	if opts.Lead != "" {
		fmt.Fprintf(&sb, `<p class="hero-subtitle">%s</p>`+"\n", html.EscapeString(opts.Lead))
	}

	if opts.Start.Text != "" || opts.Learn.Text != "" {
		sb.WriteString(`<div class="hero-actions">` + "\n")
		if opts.Start.Text != "" {
			sb.WriteString(heroLink(opts.Start, "btn btn-primary btn-lg"))
		}
		if opts.Learn.Text != "" {
			sb.WriteString(heroLink(opts.Learn, "btn btn-secondary btn-lg"))
		}
		sb.WriteString("</div>\n")
	}

	if len(opts.Highlights) > 0 {
		sb.WriteString(`<dl class="hero-highlights">` + "\n")
		for _, h := range opts.Highlights {
			fmt.Fprintf(&sb, `<div class="hero-highlight"><dt>%s</dt><dd>%s</dd></div>`+"\n",
				html.EscapeString(h.Value), html.EscapeString(h.Label))
		}
		sb.WriteString("</dl>\n")
	}

	sb.WriteString("</div>\n</section>\n")
	return sb.String()
}

func heroLink(l Link, class string) string {
	arrow := ""
	if l.Arrow {
		arrow = ` <span aria-hidden="true">→</span>`
	}
	return fmt.Sprintf(`<a href="%s" class="%s">%s%s</a>`+"\n",
		html.EscapeString(l.Href), class, html.EscapeString(l.Text), arrow)
}

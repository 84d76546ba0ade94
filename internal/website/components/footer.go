package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/campusmatch/campusmatch/internal/website"
)

// FooterOptions configures the footer component.
type FooterOptions struct {
	Config   website.FooterConfig
	LogoText string
	Tagline  string
}

// RenderFooter generates the page footer.
func RenderFooter(opts FooterOptions) string {
	var sb strings.Builder

	sb.WriteString(`<footer class="section footer">`)
	sb.WriteString("\n")
	sb.WriteString(`<div class="container">`)
	sb.WriteString("\n")
	sb.WriteString(`<div class="footer-grid">`)
	sb.WriteString("\n")

	sb.WriteString(`<div>`)
	sb.WriteString(fmt.Sprintf(`<div class="logo">🎓 %s</div>`, html.EscapeString(opts.LogoText)))
	if opts.Tagline != "" {
		sb.WriteString(fmt.Sprintf(`<p>%s</p>`, html.EscapeString(opts.Tagline)))
	}
	sb.WriteString(`<a href="#main-content" class="to-top">Back to top ↑</a>`)
	sb.WriteString(`</div>`)
	sb.WriteString("\n")

	if len(opts.Config.Links) > 0 {
		sb.WriteString(`<nav aria-label="Footer navigation"><h3>Quick links</h3><ul class="footer-links">`)
		for _, link := range opts.Config.Links {
			sb.WriteString(`<li>`)
			sb.WriteString(renderLink(link, ""))
			sb.WriteString(`</li>`)
		}
		sb.WriteString(`</ul></nav>`)
		sb.WriteString("\n")
	}

	sb.WriteString(`<address class="footer-contact"><h3>Contact</h3>`)
	if opts.Config.Phone != "" {
		sb.WriteString(fmt.Sprintf(`<p><a href="tel:%s">%s</a></p>`,
			html.EscapeString(strings.ReplaceAll(opts.Config.Phone, " ", "")), html.EscapeString(opts.Config.Phone)))
	}
	if opts.Config.Email != "" {
		sb.WriteString(fmt.Sprintf(`<p><a href="mailto:%s">%s</a></p>`,
			html.EscapeString(opts.Config.Email), html.EscapeString(opts.Config.Email)))
	}
	sb.WriteString(`</address>`)
	sb.WriteString("\n")

	sb.WriteString(`</div>`)
	sb.WriteString("\n")

	sb.WriteString(`<div class="footer-legal">`)
	if opts.Config.Copyright != "" {
		sb.WriteString(fmt.Sprintf(`<span>%s</span>`, html.EscapeString(opts.Config.Copyright)))
	}
	for _, link := range opts.Config.Legal {
		sb.WriteString(renderLink(link, ""))
	}
	sb.WriteString(`</div>`)
	sb.WriteString("\n")

	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</footer>`)
	sb.WriteString("\n")

	return sb.String()
}

// DefaultFooter returns the footer every page uses.
func DefaultFooter() FooterOptions {
	return FooterOptions{
		LogoText: "CampusMatch",
		Tagline:  "Helping students find the college that fits.",
		Config: website.FooterConfig{
			Email:     "info@campusmatch.example",
			Phone:     "+1 555 123 4567",
			Copyright: "© CampusMatch. All rights reserved.",
			Links: []website.NavLink{
				{Label: "How it works", URL: "/#how-it-works"},
				{Label: "Success stories", URL: "/#success-stories"},
				{Label: "Register", URL: "/register"},
			},
		},
	}
}

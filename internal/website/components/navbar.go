// Package components renders the sections the campusmatch pages are built
// from.
package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/campusmatch/campusmatch/internal/website"
)

// NavbarOptions configures the navbar component.
type NavbarOptions struct {
	// Logo is the logo text (usually the product name)
	Logo string
	// LogoIcon is an optional icon before the logo
	LogoIcon string
	// Links are the navigation links
	Links []website.NavLink
	// CTA is the button on the right, usually "Get Started".
	CTA website.NavLink
}

// RenderNavbar generates a sticky navigation bar.
func RenderNavbar(opts NavbarOptions) string {
	var sb strings.Builder

	sb.WriteString(`<a href="#main-content" class="skip-link">Skip to main content</a>`)
	sb.WriteString("\n")

	sb.WriteString(`<nav class="nav" aria-label="Main navigation">`)
	sb.WriteString("\n")
	sb.WriteString(`<div class="container nav-inner">`)
	sb.WriteString("\n")

	sb.WriteString(`<a href="/" class="logo" aria-label="Home">`)
	if opts.LogoIcon != "" {
		sb.WriteString(opts.LogoIcon)
		sb.WriteString(" ")
	}
	sb.WriteString(html.EscapeString(opts.Logo))
	sb.WriteString(`</a>`)
	sb.WriteString("\n")

	sb.WriteString(`<div class="flex items-center gap-sm">`)
	sb.WriteString("\n")

	// Hidden on mobile.
	sb.WriteString(`<div class="nav-links">`)
	sb.WriteString("\n")
	for _, link := range opts.Links {
		sb.WriteString(renderLink(link, "btn btn-ghost"))
		sb.WriteString("\n")
	}
	sb.WriteString(`</div>`)
	sb.WriteString("\n")

	if opts.CTA.URL != "" {
		sb.WriteString(renderLink(opts.CTA, "btn btn-primary btn-sm"))
		sb.WriteString("\n")
	}

	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</nav>`)
	sb.WriteString("\n")

	return sb.String()
}

func renderLink(link website.NavLink, class string) string {
	extra := ""
	if link.External {
		extra = ` target="_blank" rel="noopener noreferrer"`
	}
	return fmt.Sprintf(`<a href="%s" class="%s"%s>%s</a>`,
		html.EscapeString(link.URL), class, extra, html.EscapeString(link.Label))
}

// DefaultNavbar is the navbar every page uses.
func DefaultNavbar() NavbarOptions {
	return NavbarOptions{
		Logo:     "CampusMatch",
		LogoIcon: "🎓",
		Links: []website.NavLink{
			{Label: "Home", URL: "/"},
			{Label: "How it works", URL: "/#how-it-works"},
			{Label: "Success stories", URL: "/#success-stories"},
		},
		CTA: website.NavLink{Label: "Get Started", URL: "/register"},
	}
}

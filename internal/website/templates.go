// Package website renders the pages of the campusmatch site: the shared
// head and styles here, the sections in components, the landing page in
// landing.
package website

import (
	"github.com/campusmatch/campusmatch/client"
)

// PageConfig defines the configuration for a page including SEO metadata.
type PageConfig struct {
	// Title is the page title (shown in browser tab and search results)
	Title string
	// Description is the meta description for SEO
	Description string
	// URL is the canonical URL of the page
	URL string
	// Keywords are SEO keywords for the page
	Keywords []string
	// Language is the page language (default: "en")
	Language string
	// ThemeColor is the mobile browser theme color
	ThemeColor string

	// Nonce is the per-request CSP nonce put on inline <style> and
	// <script> tags. Empty outside an HTTP request.
	Nonce string

	// Live loads the live client script.
	Live bool
}

// Feature represents a feature card in the features section.
type Feature struct {
	// Icon is a Unicode emoji or symbol
	Icon string
	// Title is the feature title
	Title string
	// Description explains the feature
	Description string
}

// ProcessStep is one step of the "how it works" section.
type ProcessStep struct {
	Number      int
	Title       string
	Description string
}

// Testimonial is one card of the success stories carousel.
type Testimonial struct {
	Name string
	Role string
	Text string
	// Rating is out of five.
	Rating int
	// Enrolled is shown under the quote, e.g. "Enrolled Fall 2024".
	Enrolled string
}

// NavLink represents a navigation link.
type NavLink struct {
	// Label is the link text
	Label string
	// URL is the link destination
	URL string
	// External indicates if the link opens in a new tab
	External bool
}

// FooterConfig configures the footer section.
type FooterConfig struct {
	Email     string
	Phone     string
	Copyright string
	Links     []NavLink
	Legal     []NavLink
}

// DefaultPageConfig returns a PageConfig with sensible defaults.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Title:       "CampusMatch - Find your perfect college",
		Description: "Tell us about your grades, interests and budget and get matched with colleges that fit you.",
		Keywords:    []string{"college matching", "university search", "scholarships", "college admissions"},
		Language:    "en",
		ThemeColor:  Colors["primary"],
	}
}

// ScriptPath is where the live client is served.
func ScriptPath() string {
	return client.ScriptPath()
}

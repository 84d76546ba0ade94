// Package landing assembles the campusmatch home page.
package landing

import (
	"strings"

	"github.com/campusmatch/campusmatch/internal/website"
	"github.com/campusmatch/campusmatch/internal/website/components"
)

// Section anchors.
const (
	ProcessID      = "how-it-works"
	TestimonialsID = "success-stories"
)

// Options configures the landing page.
type Options struct {
	Highlights   []components.Highlight
	Features     []website.Feature
	Steps        []website.ProcessStep
	Testimonials []website.Testimonial

	// TestimonialIndex is the first card the carousel shows.
	TestimonialIndex int
	// TestimonialsVisible is how many cards show at once.
	TestimonialsVisible int

	// CustomCSS is additional CSS to include
	CustomCSS string
}

// DefaultOptions returns the production content.
func DefaultOptions() Options {
	return Options{
		Highlights:          components.DefaultHighlights(),
		Features:            components.DefaultFeatures(),
		Steps:               components.DefaultProcessSteps(),
		Testimonials:        components.DefaultTestimonials(),
		TestimonialsVisible: 3,
	}
}

// RenderLanding generates the complete home page.
func RenderLanding(cfg website.PageConfig, opts Options) string {
	var body strings.Builder

	body.WriteString(components.RenderNavbar(components.DefaultNavbar()))

	body.WriteString(`<main id="main-content">`)
	body.WriteString("\n")

	body.WriteString(components.RenderHero(components.HeroOptions{
		Eyebrow:    "Your future starts here",
		Headline:   "Find the college that",
		Accent:     "fits you",
		Lead:       "Tell us about your grades, interests, budget and where you want to be. We match you with schools where you will thrive.",
		Start:      components.Link{Text: "Get Started", Href: "/register", Arrow: true},
		Learn:      components.Link{Text: "How it works", Href: "#" + ProcessID},
		Highlights: opts.Highlights,
	}))

	if len(opts.Features) > 0 {
		body.WriteString(components.RenderFeatures(components.FeaturesOptions{
			Title:    "Why CampusMatch",
			Subtitle: "Everything you need to choose with confidence",
			Features: opts.Features,
		}))
	}

	if len(opts.Steps) > 0 {
		body.WriteString(components.RenderProcess(components.ProcessOptions{
			ID:       ProcessID,
			Title:    "Your Journey to the Perfect College",
			Subtitle: "Our streamlined process helps you navigate college selection with ease and confidence.",
			Steps:    opts.Steps,
		}))
	}

	if len(opts.Testimonials) > 0 {
		body.WriteString(components.RenderTestimonials(components.TestimonialsOptions{
			ID:       TestimonialsID,
			Title:    "Student Success Stories",
			Subtitle: "Hear from students who found their perfect academic fit.",
			Items:    opts.Testimonials,
			Index:    opts.TestimonialIndex,
			Visible:  opts.TestimonialsVisible,
		}))
	}

	body.WriteString(`</main>`)
	body.WriteString("\n")

	body.WriteString(components.RenderFooter(components.DefaultFooter()))

	return website.RenderDocument(cfg, opts.CustomCSS, body.String())
}

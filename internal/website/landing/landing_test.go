package landing

import (
	"strings"
	"testing"

	"github.com/campusmatch/campusmatch/internal/website"
)

func TestRenderLanding(t *testing.T) {
	cfg := website.DefaultPageConfig()
	cfg.Live = true
	page := RenderLanding(cfg, DefaultOptions())

	for _, want := range []string{
		`<main id="main-content">`,
		`href="/register"`,
		`id="` + ProcessID + `"`,
		`id="` + TestimonialsID + `"`,
		`data-slot="testimonials"`,
		"Emma Johnson",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("landing page missing %q", want)
		}
	}
	if strings.Contains(page, ` style="`) {
		t.Error("inline style attributes are blocked by the CSP")
	}
}

func TestRenderLanding_CarouselIndex(t *testing.T) {
	opts := DefaultOptions()
	opts.TestimonialsVisible = 1
	opts.TestimonialIndex = 2

	page := RenderLanding(website.DefaultPageConfig(), opts)
	if !strings.Contains(page, opts.Testimonials[2].Name) {
		t.Error("card at the index should show")
	}
	if strings.Contains(page, opts.Testimonials[0].Name) {
		t.Error("only one card should show")
	}
}

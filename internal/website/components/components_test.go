package components

import (
	"strings"
	"testing"

	"github.com/campusmatch/campusmatch/internal/website"
	"github.com/campusmatch/campusmatch/pkg/forms"
	"github.com/campusmatch/campusmatch/pkg/wizard"
)

func TestRenderField_TextWithError(t *testing.T) {
	out := RenderField(wizard.FieldView{
		Path:  "email",
		Field: forms.EmailField("email", "Email", forms.WithPlaceholder("you@example.com")),
		Value: `a"b`,
		Error: "Enter a valid email",
	})

	for _, want := range []string{
		`class="field field-invalid"`,
		`<label for="field-email">Email</label>`,
		`type="email"`,
		`data-field="email"`,
		`aria-invalid="true"`,
		`value="a&#34;b"`,
		`Enter a valid email`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}

func TestRenderField_NestedPathID(t *testing.T) {
	out := RenderField(wizard.FieldView{
		Path:  "workExperience.description",
		Field: forms.Textarea("description", "Describe it"),
	})
	if !strings.Contains(out, `id="field-workexperience-description"`) {
		t.Errorf("unexpected id in %s", out)
	}
	if !strings.Contains(out, `data-field="workExperience.description"`) {
		t.Errorf("data-field must keep the dotted path: %s", out)
	}
}

func TestRenderField_ListMarksItems(t *testing.T) {
	out := RenderField(wizard.FieldView{
		Path:  "majors",
		Field: forms.List("majors", "Majors", forms.Opts("Biology", "History")),
		Value: []string{"History"},
	})
	if strings.Count(out, `data-item=`) != 2 {
		t.Errorf("expected a data-item per option: %s", out)
	}
	if !strings.Contains(out, `data-item="History" value="History" checked`) {
		t.Errorf("selected item not checked: %s", out)
	}
}

func TestRenderField_RadioAndSelect(t *testing.T) {
	radio := RenderField(wizard.FieldView{
		Path:  "hasExperience",
		Field: forms.Choice("hasExperience", "Any?", forms.YesNo(), forms.AsRadio()),
		Value: "yes",
	})
	if !strings.Contains(radio, `type="radio"`) || !strings.Contains(radio, `value="yes" checked`) {
		t.Errorf("radio not rendered: %s", radio)
	}

	sel := RenderField(wizard.FieldView{
		Path:  "gender",
		Field: forms.Choice("gender", "Gender", forms.Opts("Female", "Male")),
		Value: "Male",
	})
	if !strings.Contains(sel, `<option value="Male" selected>`) {
		t.Errorf("select not rendered: %s", sel)
	}
}

func TestRenderField_Checkbox(t *testing.T) {
	out := RenderField(wizard.FieldView{
		Path:  "terms",
		Field: forms.Checkbox("terms", "I agree"),
		Value: true,
	})
	if !strings.Contains(out, `type="checkbox"`) || !strings.Contains(out, " checked") {
		t.Errorf("checkbox not rendered: %s", out)
	}
	if strings.Contains(out, "data-item") {
		t.Error("a bool checkbox must not toggle list items")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{3.5, "3.5"},
		{float64(2026), "2026"},
		{true, "true"},
		{[]string{"a", "b"}, "a, b"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderProgress(t *testing.T) {
	out := RenderProgress([]ProgressStep{
		{Label: "Eligibility", Status: wizard.StepDone},
		{Label: "Personal", Status: wizard.StepActive},
	})
	if !strings.Contains(out, `class="progress-step done"`) || !strings.Contains(out, `class="progress-step active" data-event="goto_step" data-step="1" aria-current="step"`) {
		t.Errorf("unexpected progress: %s", out)
	}
}

func TestRenderTestimonialWindow_Wraps(t *testing.T) {
	items := DefaultTestimonials()
	out := RenderTestimonialWindow(items, -1, 2)

	last, first := items[len(items)-1].Name, items[0].Name
	if !strings.Contains(out, last) || !strings.Contains(out, first) {
		t.Errorf("window at -1 should show the last and first cards: %s", out)
	}
	if strings.Contains(out, items[1].Name) {
		t.Error("only two cards should show")
	}
	if strings.Count(out, `data-event="testimonial_goto"`) != len(items) {
		t.Error("expected one dot per testimonial")
	}
}

func TestWrapIndex(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{0, 5, 0}, {5, 5, 0}, {-1, 5, 4}, {12, 5, 2}, {3, 0, 0},
	}
	for _, tt := range tests {
		if got := WrapIndex(tt.i, tt.n); got != tt.want {
			t.Errorf("WrapIndex(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestRenderStars(t *testing.T) {
	out := renderStars(4)
	if !strings.Contains(out, `4 out of 5`) || strings.Count(out, "★") != 5 {
		t.Errorf("unexpected stars: %s", out)
	}
}

func TestRenderNavbarAndFooter(t *testing.T) {
	nav := RenderNavbar(DefaultNavbar())
	if !strings.Contains(nav, `href="/register"`) {
		t.Error("navbar should link to registration")
	}
	footer := RenderFooter(DefaultFooter())
	if !strings.Contains(footer, "mailto:info@campusmatch.example") || !strings.Contains(footer, "tel:+15551234567") {
		t.Errorf("footer contact links missing: %s", footer)
	}
	ext := renderLink(website.NavLink{Label: "x", URL: "https://x", External: true}, "")
	if !strings.Contains(ext, `rel="noopener noreferrer"`) {
		t.Error("external links need rel")
	}
}

func TestRenderProcess(t *testing.T) {
	out := RenderProcess(ProcessOptions{ID: "how-it-works", Title: "How", Steps: DefaultProcessSteps()})
	if strings.Count(out, `class="process-step"`) != 5 {
		t.Error("expected five steps")
	}
	if !strings.Contains(out, `id="how-it-works-title"`) {
		t.Error("heading id missing")
	}
}

func TestRenderHero(t *testing.T) {
	out := RenderHero(HeroOptions{
		Headline:   "Find the college that",
		Accent:     "fits <you>",
		Start:      Link{Text: "Get Started", Href: "/register", Arrow: true},
		Highlights: DefaultHighlights(),
	})
	if !strings.Contains(out, `Find the college that <span class="text-gradient">fits &lt;you&gt;</span>`) {
		t.Errorf("headline not escaped or accented: %s", out)
	}
	if !strings.Contains(out, `href="/register" class="btn btn-primary btn-lg">Get Started <span aria-hidden="true">→</span>`) {
		t.Error("start link missing")
	}
	if strings.Contains(out, "btn-secondary") {
		t.Error("empty learn link rendered")
	}
	if strings.Count(out, `class="hero-highlight"`) != 3 {
		t.Error("expected three highlights")
	}
}

package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/campusmatch/campusmatch/internal/website"
)

// Carousel events sent by the prev, next and dot buttons.
const (
	EventTestimonialPrev = "testimonial_prev"
	EventTestimonialNext = "testimonial_next"
	EventTestimonialGoto = "testimonial_goto"
)

// TestimonialsOptions configures the success stories carousel.
type TestimonialsOptions struct {
	ID       string
	Title    string
	Subtitle string
	Items    []website.Testimonial

	// Index is the first visible card. Visible cards wrap around.
	Index   int
	Visible int
}

// RenderTestimonials generates the carousel. The cards and dots live in
// the "testimonials" slot so paging only resends them.
func RenderTestimonials(opts TestimonialsOptions) string {
	var sb strings.Builder

	id := html.EscapeString(opts.ID)
	sb.WriteString(fmt.Sprintf(`<section id="%s" class="section" aria-labelledby="%s-title">`, id, id))
	sb.WriteString("\n")
	sb.WriteString(`<div class="container">`)
	sb.WriteString("\n")
	sb.WriteString(renderSectionHead(id, opts.Title, opts.Subtitle))

	sb.WriteString(`<div class="carousel" aria-roledescription="carousel">`)
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf(`<button type="button" class="btn btn-secondary btn-icon" data-event="%s" aria-label="Previous story">‹</button>`, EventTestimonialPrev))
	sb.WriteString("\n")
	sb.WriteString(`<div class="carousel-body" data-slot="testimonials">`)
	sb.WriteString(RenderTestimonialWindow(opts.Items, opts.Index, opts.Visible))
	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf(`<button type="button" class="btn btn-secondary btn-icon" data-event="%s" aria-label="Next story">›</button>`, EventTestimonialNext))
	sb.WriteString("\n")
	sb.WriteString(`</div>`)
	sb.WriteString("\n")

	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</section>`)
	sb.WriteString("\n")

	return sb.String()
}

// RenderTestimonialWindow renders the visible cards starting at index and
// one dot per testimonial.
func RenderTestimonialWindow(items []website.Testimonial, index, visible int) string {
	if len(items) == 0 {
		return ""
	}
	if visible <= 0 || visible > len(items) {
		visible = len(items)
	}
	index = WrapIndex(index, len(items))

	var sb strings.Builder
	sb.WriteString(`<div class="carousel-track" aria-live="polite">`)
	for i := 0; i < visible; i++ {
		sb.WriteString(renderTestimonialCard(items[(index+i)%len(items)]))
	}
	sb.WriteString(`</div>`)

	sb.WriteString(`<div class="carousel-dots">`)
	for i := range items {
		class := "carousel-dot"
		current := ""
		if i == index {
			class += " active"
			current = ` aria-current="true"`
		}
		sb.WriteString(fmt.Sprintf(`<button type="button" class="%s" data-event="%s" data-step="%d" aria-label="Show story %d"%s></button>`,
			class, EventTestimonialGoto, i, i+1, current))
	}
	sb.WriteString(`</div>`)
	return sb.String()
}

func renderTestimonialCard(t website.Testimonial) string {
	var sb strings.Builder
	sb.WriteString(`<figure class="card testimonial">`)
	sb.WriteString(`<div class="testimonial-head">`)
	sb.WriteString(fmt.Sprintf(`<span class="avatar" aria-hidden="true">%s</span>`, html.EscapeString(initials(t.Name))))
	sb.WriteString(`<div>`)
	sb.WriteString(fmt.Sprintf(`<h3>%s</h3>`, html.EscapeString(t.Name)))
	sb.WriteString(fmt.Sprintf(`<p class="testimonial-role">%s</p>`, html.EscapeString(t.Role)))
	sb.WriteString(`</div></div>`)
	sb.WriteString(fmt.Sprintf(`<blockquote class="testimonial-text"><p>&ldquo;%s&rdquo;</p></blockquote>`, html.EscapeString(t.Text)))
	sb.WriteString(renderStars(t.Rating))
	if t.Enrolled != "" {
		sb.WriteString(fmt.Sprintf(`<figcaption class="enrolled">%s</figcaption>`, html.EscapeString(t.Enrolled)))
	}
	sb.WriteString(`</figure>`)
	return sb.String()
}

func renderStars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return fmt.Sprintf(`<p class="stars" aria-label="%d out of 5 stars">%s<span class="off">%s</span></p>`,
		rating, strings.Repeat("★", rating), strings.Repeat("★", 5-rating))
}

func initials(name string) string {
	var out []rune
	for _, part := range strings.Fields(name) {
		out = append(out, []rune(part)[0])
	}
	return string(out)
}

// WrapIndex maps any integer onto 0..n-1.
func WrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// DefaultTestimonials returns the success stories shown on the landing page.
func DefaultTestimonials() []website.Testimonial {
	return []website.Testimonial{
		{Name: "Emma Johnson", Role: "Pre-Med Student", Rating: 5, Enrolled: "Enrolled Fall 2024",
			Text: "This platform helped me find a college with the perfect biology program for my pre-med journey. I got accepted to my dream school!"},
		{Name: "Marcus Chen", Role: "Computer Science Major", Rating: 5, Enrolled: "Enrolled Fall 2024",
			Text: "The personalized recommendations were spot on! I found a university with the exact specialization in AI that I was looking for."},
		{Name: "Sophia Rodriguez", Role: "Business School Student", Rating: 4, Enrolled: "Enrolled Fall 2024",
			Text: "I discovered affordable business schools with great internship opportunities that I hadn't even considered before."},
		{Name: "Jamal Wilson", Role: "Engineering Student", Rating: 5, Enrolled: "Enrolled Fall 2024",
			Text: "The detailed comparisons between engineering programs saved me countless hours of research."},
		{Name: "Aisha Patel", Role: "Fine Arts Major", Rating: 5, Enrolled: "Enrolled Fall 2024",
			Text: "Finding arts programs that matched my specific interests was difficult until I used this site."},
	}
}

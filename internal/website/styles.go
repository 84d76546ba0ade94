package website

import (
	"fmt"
	"sort"
	"strings"
)

// Color palette (WCAG 2.1 AA: 4.5:1 minimum contrast for text)
var Colors = map[string]string{
	"bg":      "#FFFFFF",
	"bgAlt":   "#EFF6FF", // light blue sections
	"bgGreen": "#ECFDF5",
	"bgHover": "#DBEAFE",

	"text":      "#0F172A",
	"textMuted": "#1E3A8A", // dark blue body copy (10:1 on bg)
	"textDim":   "#475569",

	"primary":       "#1D4ED8",
	"primaryBright": "#2563EB",
	"secondary":     "#059669",
	"accent":        "#10B981",

	"success": "#047857",
	"warning": "#B45309",
	"danger":  "#B91C1C",
	"info":    "#1D4ED8",

	"star":  "#F59E0B",
	"muted": "#CBD5E1",

	"border":      "#BFDBFE",
	"borderLight": "#E2E8F0",
}

// Typography uses system font stack for instant loading
var FontFamily = `system-ui, -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif`

// StyleOption allows customizing the generated CSS
type StyleOption func(*styleConfig)

type styleConfig struct {
	customColors      map[string]string
	includeReset      bool
	includeAnimations bool
}

// WithCustomColors overrides default colors
func WithCustomColors(colors map[string]string) StyleOption {
	return func(cfg *styleConfig) {
		for k, v := range colors {
			cfg.customColors[k] = v
		}
	}
}

// WithReset includes a CSS reset
func WithReset(include bool) StyleOption {
	return func(cfg *styleConfig) {
		cfg.includeReset = include
	}
}

// WithAnimations includes animation definitions
func WithAnimations(include bool) StyleOption {
	return func(cfg *styleConfig) {
		cfg.includeAnimations = include
	}
}

// RenderStyles generates the site's CSS.
func RenderStyles(opts ...StyleOption) string {
	cfg := &styleConfig{
		customColors:      make(map[string]string),
		includeReset:      true,
		includeAnimations: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	colors := make(map[string]string)
	for k, v := range Colors {
		colors[k] = v
	}
	for k, v := range cfg.customColors {
		colors[k] = v
	}

	var sb strings.Builder

	if cfg.includeReset {
		sb.WriteString(cssReset())
	}
	sb.WriteString(cssVariables(colors))
	sb.WriteString(cssBase())
	sb.WriteString(cssLayout())
	sb.WriteString(cssComponents())
	sb.WriteString(cssButtons())
	sb.WriteString(cssCards())
	sb.WriteString(cssProcess())
	sb.WriteString(cssTestimonials())
	sb.WriteString(cssForms())
	sb.WriteString(cssWizard())
	if cfg.includeAnimations {
		sb.WriteString(cssAnimations())
	}
	sb.WriteString(cssAccessibility())
	sb.WriteString(cssResponsive())

	return sb.String()
}

func cssReset() string {
	return `
*,*::before,*::after{box-sizing:border-box;margin:0;padding:0}
html{-webkit-text-size-adjust:100%;scroll-behavior:smooth}
body{line-height:1.6;-webkit-font-smoothing:antialiased}
img,svg{display:block;max-width:100%}
input,button,textarea,select{font:inherit}
a{color:inherit;text-decoration:none}
ul,ol{list-style:none}
`
}

// cssVariables is sorted so the stylesheet is byte-stable between renders.
func cssVariables(colors map[string]string) string {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	vars := make([]string, 0, len(names))
	for _, name := range names {
		vars = append(vars, fmt.Sprintf("--color-%s:%s", name, colors[name]))
	}
	return fmt.Sprintf(`:root{%s;--font-sans:%s}`, strings.Join(vars, ";"), FontFamily)
}

func cssBase() string {
	return `
body{font-family:var(--font-sans);background:var(--color-bg);color:var(--color-text);min-height:100vh}
h1{font-size:clamp(2rem,5vw,3.5rem);font-weight:800;line-height:1.1;color:var(--color-primary)}
h2{font-size:clamp(1.5rem,3vw,2.25rem);font-weight:700;line-height:1.2;color:var(--color-primary)}
h3{font-size:1.125rem;font-weight:600;color:var(--color-textMuted)}
p{color:var(--color-textMuted)}
.text-gradient{background:linear-gradient(90deg,var(--color-primary),var(--color-secondary));-webkit-background-clip:text;-webkit-text-fill-color:transparent;background-clip:text}
`
}

func cssLayout() string {
	return `
.container{width:100%;max-width:1200px;margin:0 auto;padding:0 1rem}
.container-narrow{max-width:760px}
.section{padding:3rem 0}
.section-alt{background:linear-gradient(135deg,var(--color-bgAlt),var(--color-bgGreen))}
.section-head{text-align:center;margin-bottom:2.5rem}
.section-head p{max-width:40rem;margin:0.5rem auto 0}
.flex{display:flex}.items-center{align-items:center}.justify-center{justify-content:center}.justify-between{justify-content:space-between}
.gap-sm{gap:0.5rem}.gap-md{gap:1rem}.gap-lg{gap:1.5rem}
.grid{display:grid;gap:1.5rem;grid-template-columns:1fr}
.text-center{text-align:center}
`
}

func cssComponents() string {
	return `
.nav{position:sticky;top:0;z-index:100;padding:0.75rem 0;background:rgba(255,255,255,0.96);border-bottom:1px solid var(--color-border)}
.nav-inner{display:flex;align-items:center;justify-content:space-between;gap:0.5rem}
.nav-links{display:none;align-items:center;gap:0.5rem}
.logo{font-size:1.25rem;font-weight:800;color:var(--color-primary)}
.hero{padding:4rem 0 3rem;text-align:center;background:linear-gradient(135deg,var(--color-bgAlt),var(--color-bg),var(--color-bgGreen))}
.hero-title{margin-bottom:1rem}
.hero-subtitle{font-size:1.125rem;max-width:640px;margin:0 auto 1.5rem}
.hero-actions{display:flex;gap:0.75rem;justify-content:center;flex-wrap:wrap}
.hero-highlights{display:flex;gap:2rem;justify-content:center;flex-wrap:wrap;margin:2.5rem 0 0}
.hero-highlight dt{font-size:1.5rem;font-weight:700;color:var(--color-primary)}
.hero-highlight dd{margin:0;font-size:0.875rem;color:var(--color-textMuted)}
.badge{display:inline-flex;align-items:center;gap:0.4rem;padding:0.35rem 0.8rem;border-radius:9999px;font-size:0.8rem;font-weight:600;background:var(--color-bgAlt);color:var(--color-primary);border:1px solid var(--color-border);margin-bottom:1.25rem}
.footer{border-top:1px solid var(--color-border);background:var(--color-bgAlt)}
.footer-grid{display:grid;gap:2rem;grid-template-columns:1fr}
.footer-links li{margin:0.35rem 0}
.footer-links a,.footer-contact a{color:var(--color-primaryBright)}
.footer-legal{display:flex;flex-wrap:wrap;gap:1rem;justify-content:center;margin-top:2rem;font-size:0.85rem}
.to-top{font-weight:600;color:var(--color-primary)}
.hide-mobile{display:none}
`
}

func cssButtons() string {
	return `
.btn{display:inline-flex;align-items:center;justify-content:center;gap:0.5rem;padding:0.75rem 1.25rem;font-size:1rem;font-weight:600;border-radius:0.5rem;border:none;cursor:pointer;transition:all 0.2s ease;min-height:2.75rem}
.btn:focus-visible{outline:2px solid var(--color-primary);outline-offset:2px}
.btn-primary{background:linear-gradient(90deg,var(--color-primary),var(--color-secondary));color:#FFFFFF}
.btn-primary:hover{transform:translateY(-2px);box-shadow:0 4px 16px rgba(29,78,216,0.3)}
.btn-secondary{background:#FFFFFF;color:var(--color-primary);border:1px solid var(--color-border)}
.btn-secondary:hover{background:var(--color-bgHover)}
.btn-ghost{background:transparent;color:var(--color-textMuted)}
.btn-ghost:hover{color:var(--color-primary)}
.btn-lg{padding:1rem 1.75rem;font-size:1.125rem}
.btn-sm{padding:0.5rem 1rem;font-size:0.875rem;min-height:2.5rem}
.btn-icon{width:2.75rem;height:2.75rem;padding:0;border-radius:9999px}
`
}

func cssCards() string {
	return `
.card{background:#FFFFFF;border-radius:1rem;border:1px solid var(--color-border);box-shadow:0 8px 24px rgba(30,58,138,0.06)}
.card-body{padding:1.5rem}
.feature-card{padding:1.5rem;border-radius:1rem;background:#FFFFFF;border:1px solid var(--color-border)}
.feature-icon{font-size:2rem;margin-bottom:0.75rem}
.feature-title{font-weight:600;margin-bottom:0.5rem}
`
}

func cssProcess() string {
	return `
.process{display:grid;gap:1.5rem}
.process-step{display:flex;gap:1rem;align-items:flex-start}
.process-number{flex:none;display:flex;align-items:center;justify-content:center;width:3rem;height:3rem;border-radius:9999px;font-weight:800;color:#FFFFFF;background:linear-gradient(135deg,var(--color-primary),var(--color-secondary))}
.process-title{margin-bottom:0.25rem}
`
}

func cssTestimonials() string {
	return `
.carousel{display:flex;align-items:center;gap:1rem}
.carousel-track{flex:1;display:grid;gap:1.5rem;grid-template-columns:1fr}
.testimonial{padding:1.5rem}
.testimonial-head{display:flex;gap:0.75rem;align-items:center;margin-bottom:1rem}
.avatar{display:flex;align-items:center;justify-content:center;width:3rem;height:3rem;border-radius:9999px;font-weight:700;color:#FFFFFF;background:linear-gradient(135deg,var(--color-primaryBright),var(--color-accent))}
.testimonial-role{font-size:0.875rem;color:var(--color-primaryBright)}
.testimonial-text{margin-bottom:1rem}
.stars{color:var(--color-star);letter-spacing:0.1em}
.stars .off{color:var(--color-muted)}
.enrolled{font-size:0.75rem;font-style:italic;color:var(--color-textDim)}
.carousel-dots{display:flex;gap:0.5rem;justify-content:center;margin-top:1.5rem}
.carousel-dot{width:0.6rem;height:0.6rem;border-radius:9999px;background:var(--color-border)}
.carousel-dot.active{background:var(--color-primary)}
`
}

func cssForms() string {
	return `
.form{display:grid;gap:1.25rem}
.field{display:grid;gap:0.35rem}
.field label,.field legend{font-weight:600;color:var(--color-textMuted)}
.field input[type=text],.field input[type=email],.field input[type=tel],.field input[type=number],.field input[type=date],.field select,.field textarea{width:100%;padding:0.65rem 0.8rem;border:1px solid var(--color-border);border-radius:0.5rem;background:#FFFFFF;color:var(--color-text)}
.field textarea{min-height:6rem}
.field-invalid input,.field-invalid select,.field-invalid textarea{border-color:var(--color-danger)}
.field-error{font-size:0.85rem;color:var(--color-danger)}
.field-help{font-size:0.85rem;color:var(--color-textDim)}
.choices{display:flex;flex-wrap:wrap;gap:0.5rem 1.25rem}
.choice{display:inline-flex;align-items:center;gap:0.4rem;font-weight:400}
.group{border:1px solid var(--color-borderLight);border-radius:0.75rem;padding:1rem;display:grid;gap:1rem}
`
}

func cssWizard() string {
	return `
.wizard{padding:2rem 0 4rem}
.wizard-head{margin-bottom:1.5rem}
.wizard-actions{display:flex;justify-content:space-between;gap:0.75rem;margin-top:1.5rem}
.progress{display:flex;gap:0.5rem;margin-bottom:1.5rem}
.progress-step{flex:1;display:grid;gap:0.35rem;font-size:0.8rem;color:var(--color-textDim);background:none;border:none;text-align:left;cursor:pointer}
.progress-bar{height:0.4rem;border-radius:9999px;background:var(--color-borderLight)}
.progress-step.done .progress-bar{background:var(--color-secondary)}
.progress-step.active .progress-bar{background:var(--color-primary)}
.progress-step.active{color:var(--color-primary);font-weight:600}
.banner{padding:0.85rem 1rem;border-radius:0.5rem;margin-bottom:1rem;font-weight:600}
.banner-error{background:#FEF2F2;color:var(--color-danger);border:1px solid #FECACA}
.banner-warning{background:#FFFBEB;color:var(--color-warning);border:1px solid #FDE68A}
body[data-live-error] .banner-live{display:block}
.banner-live{display:none}
`
}

func cssAnimations() string {
	return `
@keyframes fadeIn{from{opacity:0;transform:translateY(12px)}to{opacity:1;transform:translateY(0)}}
.animate-fade-in{animation:fadeIn 0.5s ease forwards}
@media(prefers-reduced-motion:reduce){*{animation-duration:0.01ms!important;transition-duration:0.01ms!important}}
`
}

func cssAccessibility() string {
	return `
.sr-only{position:absolute;width:1px;height:1px;padding:0;margin:-1px;overflow:hidden;clip:rect(0,0,0,0);white-space:nowrap;border:0}
.skip-link{position:absolute;top:-40px;left:0;background:var(--color-primary);color:#FFFFFF;padding:0.5rem 1rem;z-index:1000;font-weight:600}
.skip-link:focus{top:0}
:focus-visible{outline:2px solid var(--color-primary);outline-offset:2px}
`
}

func cssResponsive() string {
	return `
@media(min-width:640px){
.nav-links{display:flex}
.hide-mobile{display:inline-flex}
}
@media(min-width:768px){
.section{padding:4.5rem 0}
.hero{padding:6rem 0 4rem}
.grid-3{grid-template-columns:repeat(3,1fr)}
.carousel-track{grid-template-columns:repeat(2,1fr)}
.footer-grid{grid-template-columns:2fr 1fr 1fr}
}
@media(min-width:1024px){
.carousel-track{grid-template-columns:repeat(3,1fr)}
.process-step:nth-child(even){flex-direction:row-reverse;text-align:right}
}
`
}

package website

import (
	"fmt"
	"html"
	"strings"
)

// RenderHead generates a complete <head> section with SEO and Open Graph
// tags and the inline stylesheet.
func RenderHead(cfg PageConfig, customCSS string) string {
	var sb strings.Builder

	themeColor := cfg.ThemeColor
	if themeColor == "" {
		themeColor = Colors["primary"]
	}

	sb.WriteString("<head>\n")

	sb.WriteString(`<meta charset="UTF-8">` + "\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")

	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(cfg.Title)))

	if cfg.Description != "" {
		sb.WriteString(fmt.Sprintf(`<meta name="description" content="%s">`+"\n", html.EscapeString(cfg.Description)))
	}
	if len(cfg.Keywords) > 0 {
		sb.WriteString(fmt.Sprintf(`<meta name="keywords" content="%s">`+"\n", html.EscapeString(strings.Join(cfg.Keywords, ", "))))
	}
	if cfg.URL != "" {
		sb.WriteString(fmt.Sprintf(`<link rel="canonical" href="%s">`+"\n", html.EscapeString(cfg.URL)))
	}
	sb.WriteString(fmt.Sprintf(`<meta name="theme-color" content="%s">`+"\n", themeColor))

	sb.WriteString(renderOpenGraph(cfg))
	sb.WriteString(renderJSONLD(cfg))

	sb.WriteString(`<link rel="icon" href="data:image/svg+xml,<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'><text y='.9em' font-size='90'>🎓</text></svg>">` + "\n")

	sb.WriteString("<style" + nonceAttr(cfg.Nonce) + ">\n")
	sb.WriteString(RenderStyles())
	if customCSS != "" {
		sb.WriteString("\n")
		sb.WriteString(customCSS)
	}
	sb.WriteString("\n</style>\n")

	sb.WriteString("</head>\n")

	return sb.String()
}

func renderOpenGraph(cfg PageConfig) string {
	var sb strings.Builder

	sb.WriteString(`<meta property="og:type" content="website">` + "\n")
	if cfg.Title != "" {
		sb.WriteString(fmt.Sprintf(`<meta property="og:title" content="%s">`+"\n", html.EscapeString(cfg.Title)))
	}
	if cfg.Description != "" {
		sb.WriteString(fmt.Sprintf(`<meta property="og:description" content="%s">`+"\n", html.EscapeString(cfg.Description)))
	}
	if cfg.URL != "" {
		sb.WriteString(fmt.Sprintf(`<meta property="og:url" content="%s">`+"\n", html.EscapeString(cfg.URL)))
	}
	sb.WriteString(fmt.Sprintf(`<meta property="og:locale" content="%s">`+"\n", language(cfg)))

	return sb.String()
}

func renderJSONLD(cfg PageConfig) string {
	jsonLD := fmt.Sprintf(`{
  "@context": "https://schema.org",
  "@type": "EducationalOrganization",
  "name": %q,
  "description": %q,
  "url": %q
}`, cfg.Title, cfg.Description, cfg.URL)

	return fmt.Sprintf(`<script type="application/ld+json"%s>%s</script>`+"\n", nonceAttr(cfg.Nonce), jsonLD)
}

// RenderDocument wraps content in a complete HTML document. Live pages get
// the client script and a data-live-root marker the script looks for.
func RenderDocument(cfg PageConfig, customCSS, bodyContent string) string {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(fmt.Sprintf(`<html lang="%s">`+"\n", language(cfg)))
	sb.WriteString(RenderHead(cfg, customCSS))
	if cfg.Live {
		sb.WriteString("<body data-live-root>\n")
	} else {
		sb.WriteString("<body>\n")
	}
	sb.WriteString(bodyContent)
	sb.WriteString("\n")
	if cfg.Live {
		sb.WriteString(fmt.Sprintf(`<script src="%s" defer%s></script>`+"\n", ScriptPath(), nonceAttr(cfg.Nonce)))
	}
	sb.WriteString("</body>\n</html>")

	return sb.String()
}

func language(cfg PageConfig) string {
	if cfg.Language == "" {
		return "en"
	}
	return cfg.Language
}

func nonceAttr(nonce string) string {
	if nonce == "" {
		return ""
	}
	return fmt.Sprintf(` nonce="%s"`, html.EscapeString(nonce))
}

// Package placeholder synthesizes a deterministic image when generation is
// unavailable.
package placeholder

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"
	"unicode"
)

const (
	// Prefix starts every placeholder data URI.
	Prefix = "data:image/svg+xml;base64,"

	maxCaptionRunes = 60
	defaultCaption  = "Illustration"
)

const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="512" height="320" viewBox="0 0 512 320">` +
	`<rect width="512" height="320" fill="#f1f5f9" stroke="#cbd5e1" stroke-width="4"/>` +
	`<text x="256" y="140" font-family="sans-serif" font-size="22" fill="#64748b" text-anchor="middle">Image unavailable</text>` +
	`<text x="256" y="180" font-family="sans-serif" font-size="14" fill="#94a3b8" text-anchor="middle">%s</text>` +
	`</svg>`

// SVGDataURI renders a placeholder whose caption is a truncated form of the
// prompt. It is a pure function of its input and never fails.
func SVGDataURI(prompt string) string {
	svg := fmt.Sprintf(svgTemplate, html.EscapeString(Caption(prompt)))
	return Prefix + base64.StdEncoding.EncodeToString([]byte(svg))
}

// IsPlaceholder reports whether uri was produced by SVGDataURI.
func IsPlaceholder(uri string) bool {
	return strings.HasPrefix(uri, Prefix)
}

// Caption normalizes whitespace, drops control characters and truncates the
// prompt to a display-safe length.
func Caption(prompt string) string {
	clean := strings.ToValidUTF8(prompt, "")
	clean = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, clean)
	clean = strings.Join(strings.Fields(clean), " ")
	if clean == "" {
		return defaultCaption
	}

	runes := []rune(clean)
	if len(runes) <= maxCaptionRunes {
		return clean
	}
	return strings.TrimSpace(string(runes[:maxCaptionRunes])) + "..."
}

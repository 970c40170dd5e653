package pipeline

import (
	"regexp"
	"strings"
)

var (
	mathEnvRe      = regexp.MustCompile(`\\(?:begin|end)\{(?:equation\*?|displaymath|math)\}`)
	displayStyleRe = regexp.MustCompile(`\\displaystyle\s*`)
	blockBracketRe = regexp.MustCompile(`(?s)\\\[(.+?)\\\]`)
	inlineParenRe  = regexp.MustCompile(`(?s)\\\((.+?)\\\)`)
	breakBeforeRe  = regexp.MustCompile(`[ \t]*\r?\n[ \t\r\n]*\$`)
	breakAfterRe   = regexp.MustCompile(`\$[ \t]*\r?\n[ \t\r\n]*`)
)

// SanitizeMath rewrites math markup into inline-only form: block delimiters
// become single dollars, display directives and equation environments are
// dropped, and line breaks touching a dollar delimiter become spaces.
// The result is a fixed point, so SanitizeMath(SanitizeMath(s)) == SanitizeMath(s).
func SanitizeMath(s string) string {
	if s == "" {
		return s
	}
	for {
		next := sanitizePass(s)
		if next == s {
			return s
		}
		s = next
	}
}

// sanitizePass never grows the string and only replaces newlines with spaces,
// so repeated application terminates.
func sanitizePass(s string) string {
	s = mathEnvRe.ReplaceAllString(s, "")
	s = displayStyleRe.ReplaceAllString(s, "")
	s = collapseBlockDollars(s)
	s = blockBracketRe.ReplaceAllStringFunc(s, func(m string) string {
		return inlineMath(m[2 : len(m)-2])
	})
	s = inlineParenRe.ReplaceAllStringFunc(s, func(m string) string {
		return inlineMath(m[2 : len(m)-2])
	})
	s = breakBeforeRe.ReplaceAllString(s, " $$")
	s = breakAfterRe.ReplaceAllString(s, "$$ ")
	return s
}

// collapseBlockDollars turns $$...$$ spans into inline math. A "$$" that
// directly follows an open inline span is an inline close followed by a new
// inline open, so "$a$$b$" is left alone. Escaped dollars are copied as is.
func collapseBlockDollars(s string) string {
	if !strings.Contains(s, "$$") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inInline := false
	for i := 0; i < len(s); {
		switch {
		case s[i] == '\\' && i+1 < len(s) && s[i+1] == '$':
			b.WriteString(s[i : i+2])
			i += 2
		case s[i] != '$':
			b.WriteByte(s[i])
			i++
		case inInline || i+1 == len(s) || s[i+1] != '$':
			inInline = !inInline
			b.WriteByte('$')
			i++
		default:
			end := strings.Index(s[i+2:], "$$")
			if end < 0 {
				b.WriteString(s[i:])
				return b.String()
			}
			b.WriteString(inlineMath(s[i+2 : i+2+end]))
			i += end + 4
		}
	}
	return b.String()
}

func inlineMath(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	return "$" + body + "$"
}

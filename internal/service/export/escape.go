package export

import "strings"

// User-authored text is embedded into generated TSX source. Unescaped angle
// brackets, braces, or quotes produce source that does not compile, so
// escaping here is a correctness requirement, not cosmetics.

var jsxReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"{", "&#123;",
	"}", "&#125;",
	`"`, "&quot;",
	"'", "&#39;",
	"`", "&#96;",
)

// escapeJSXText makes arbitrary text safe inside a JSX element body.
// Newlines collapse to spaces; JSX treats them as whitespace anyway and
// keeping them multiplies diff noise in the generated files.
func escapeJSXText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return jsxReplacer.Replace(s)
}

var tsStringReplacer = strings.NewReplacer(
	`\`, `\\`,
	"'", `\'`,
	"\n", `\n`,
	"\r", "",
)

// escapeTSString makes arbitrary text safe inside a single-quoted
// TypeScript string literal.
func escapeTSString(s string) string {
	return tsStringReplacer.Replace(s)
}

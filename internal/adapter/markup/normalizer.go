// Package markup removes Markdown syntax that would otherwise pollute
// linguistic analysis.
package markup

import (
	"regexp"
	"strings"
)

var (
	headingMarker = regexp.MustCompile(`(?m)^#+\s*`)
	fencedCode    = regexp.MustCompile("```[\\s\\S]*?```")
	inlineCode    = regexp.MustCompile("`[^`]+`")
	link          = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	emphasis      = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
)

// Strip removes heading markers, fenced and inline code, link targets and
// emphasis markers. It never fails; malformed markup is left as is.
func Strip(text string) string {
	text = headingMarker.ReplaceAllString(text, "")
	text = fencedCode.ReplaceAllString(text, "")
	text = inlineCode.ReplaceAllString(text, "")
	text = link.ReplaceAllString(text, "$1")
	text = emphasis.ReplaceAllString(text, "$1")
	return text
}

// HeadingText reports whether line is a heading and returns its text
// without the leading markers.
func HeadingText(line string) (string, bool) {
	stripped := strings.TrimSpace(line)
	if !strings.HasPrefix(stripped, "#") {
		return "", false
	}
	text := strings.TrimSpace(strings.TrimLeft(stripped, "#"))
	if text == "" {
		return "", false
	}
	return text, true
}

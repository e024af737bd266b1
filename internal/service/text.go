package service

import (
	"regexp"
	"strings"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// StripHTML converts HTML breaks to newlines and removes all HTML tags.
func StripHTML(s string) string {
	s = strings.ReplaceAll(s, "<br/>", "\n")
	s = strings.ReplaceAll(s, "<br>", "\n")
	s = strings.ReplaceAll(s, "<br />", "\n")
	s = htmlTagRe.ReplaceAllString(s, "")
	return s
}

// CleanThought prepares a streamed thought for single-line display. The
// message is only cleaned for rendering; the thought log itself keeps the
// original text.
func CleanThought(s string) string {
	s = strings.Join(strings.Fields(StripHTML(s)), " ")
	if s == "" {
		return "…"
	}
	return s
}

// Package slugutil derives URL slugs from titles. Titles are frequently
// Japanese, so everything outside [a-z0-9-] is dropped after lowercasing;
// a title with no ASCII letters falls back to "item" and the caller is
// expected to suffix a counter for uniqueness.
package slugutil

import (
	"regexp"
	"strings"
)

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9\-]`)
	dashRuns     = regexp.MustCompile(`-+`)
)

func Make(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.ReplaceAll(s, " ", "-")
	s = invalidChars.ReplaceAllString(s, "")
	s = dashRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "item"
	}
	return s
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sanitize validates and escapes free-form text, URLs, and DOI
// strings before they reach any output surface. All functions are pure.
package sanitize

import (
	"net/url"
	"regexp"
	"strings"
)

// doiPattern is the standard DOI format: "10." followed by a four-or-more
// digit registrant code, a slash, and a non-whitespace suffix.
var doiPattern = regexp.MustCompile(`^10\.\d{4,}/[^\s]+$`)

// htmlEscaper covers the five HTML-significant characters.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeText escapes HTML-significant characters for safe interpolation
// into markup. Empty input yields an empty string.
func EscapeText(s string) string {
	if s == "" {
		return ""
	}
	return htmlEscaper.Replace(s)
}

// URL returns s unchanged iff it parses as an absolute URL with scheme
// http or https; anything else becomes "#". It never fails.
func URL(s string) string {
	if s == "" {
		return "#"
	}
	u, err := url.Parse(s)
	if err != nil {
		return "#"
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return s
	}
	return "#"
}

// DOI returns s unchanged iff it matches the standard DOI pattern;
// otherwise it returns the empty string.
func DOI(s string) string {
	if doiPattern.MatchString(s) {
		return s
	}
	return ""
}

// Truncate returns s unchanged when it is at most max characters long,
// else the first max characters followed by "...". Counting is by rune so
// a multi-byte character is never split.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// Package htmlsanitize strips markup from free-text fields submitted by employers.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict is safe for concurrent use once configured.
var strict = bluemonday.StrictPolicy()

// maxPasses bounds nested entity encodings such as "&amp;lt;".
const maxPasses = 8

// PlainText removes every HTML element and attribute from s and returns
// readable text with entities decoded. Markup hidden behind entities is
// decoded and stripped again until nothing changes.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	// Still decoding into new markup; keep it escaped.
	return strings.TrimSpace(strict.Sanitize(s))
}

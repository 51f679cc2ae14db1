// Package sanitizer cleans user supplied strings before they are stored or
// rendered.
package sanitizer

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict     *bluemonday.Policy
	strictOnce sync.Once
)

func strictPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// maxPasses bounds the sanitize loop in Text.
const maxPasses = 4

// Text strips every HTML element from s, decodes entities and collapses
// runs of whitespace. Entity-encoded markup is decoded before stripping, so
// it cannot come back as live HTML. The result is plain text; escaping is
// still the renderer's job.
func Text(s string) string {
	if s == "" {
		return ""
	}
	clean := decode(s)
	for range maxPasses {
		escaped := strictPolicy().Sanitize(clean)
		next := html.UnescapeString(escaped)
		if next == clean {
			return collapse(next)
		}
		// Stripping can join fragments into a new element ("<<b>i>").
		clean = next
	}
	// Still not stable: keep the policy's escaped form.
	return collapse(strictPolicy().Sanitize(clean))
}

// decode unescapes until no entity is left, so "&amp;lt;" ends up as "<".
func decode(s string) string {
	for range maxPasses {
		next := html.UnescapeString(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TextPtr applies Text to *s, keeping nil as nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Text(*s)
	return &v
}

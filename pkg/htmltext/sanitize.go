package htmltext

import (
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans rich post bodies before they are handed to a renderer.
// Markup commonly produced by the block editor survives; scripts, inline
// event handlers and iframes do not.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds a Sanitizer on top of bluemonday's UGC policy, with
// links forced to open in a new tab and images restricted to http(s).
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("loading", "srcset", "sizes").OnElements("img")
	p.AllowElements("figure", "figcaption")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	p.AllowURLSchemes("http", "https", "mailto")
	return &Sanitizer{policy: p}
}

// Sanitize returns the cleaned HTML. Empty input yields empty output.
func (s *Sanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return s.policy.Sanitize(raw)
}

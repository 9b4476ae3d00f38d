package coinview

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips executable content from upstream HTML.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a Sanitizer using the user generated content policy:
// links, emphasis and paragraphs survive; scripts, styles, event handlers and
// javascript: URLs do not. Links open in a new tab with noopener.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return &Sanitizer{policy: p}
}

// Sanitize returns HTML safe to insert into a page.
func (s *Sanitizer) Sanitize(raw string) template.HTML {
	return template.HTML(s.policy.Sanitize(raw))
}

package acquisition

import (
	"github.com/microcosm-cc/bluemonday"
)

// htmlSanitizer strips dangerous HTML elements and attributes before any
// markdown conversion or DOM text extraction runs over a fetched page.
type htmlSanitizer struct {
	policy *bluemonday.Policy
}

func newHTMLSanitizer() *htmlSanitizer {
	policy := bluemonday.UGCPolicy()
	policy.AllowDataURIImages()
	return &htmlSanitizer{policy: policy}
}

func (s *htmlSanitizer) sanitize(html string) string {
	return s.policy.Sanitize(html)
}

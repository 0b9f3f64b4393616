package acquisition

import (
	"net/url"
	"path"
	"strings"
)

// Classify determines a URL's Kind by extension, defaulting to HTML when the
// extension is absent or unrecognized. contentType, when non-empty (e.g.
// from a response's Content-Type header), takes precedence over extension.
func Classify(rawURL, contentType string) Kind {
	if contentType != "" {
		ct := strings.ToLower(contentType)
		if strings.Contains(ct, "pdf") {
			return KindPDF
		}
		if strings.Contains(ct, "html") || strings.Contains(ct, "text/") {
			return KindHTML
		}
	}

	if u, err := url.Parse(rawURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		if ext == ".pdf" {
			return KindPDF
		}
	}

	return KindHTML
}

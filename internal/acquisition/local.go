package acquisition

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	md "github.com/JohannesKaufmann/html-to-markdown"
	pdfread "github.com/ledongthuc/pdf"
)

// LocalAcquirer stands in for a headless-browser fetch: it performs a plain
// HTTP GET, strips non-content elements with goquery the way a browser's DOM
// would let a caller read only rendered body text, sanitizes the remaining
// markup, and converts it to markdown. No headless-browser runtime
// (chromedp/playwright/rod) is available to this module, so this is the
// closest in-pack substitute; LocalAcquirer is swappable behind Acquirer if
// a real browser driver is wired in later.
type LocalAcquirer struct {
	client    *http.Client
	sanitizer *htmlSanitizer
	converter *md.Converter
	limits    Limits
}

func NewLocalAcquirer(limits Limits) *LocalAcquirer {
	timeout := limits.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &LocalAcquirer{
		client:    &http.Client{Timeout: timeout},
		sanitizer: newHTMLSanitizer(),
		converter: md.NewConverter("", true, nil),
		limits:    limits,
	}
}

func (a *LocalAcquirer) Acquire(ctx context.Context, rawURL string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ErrTimeout
		}
		return Result{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Result{}, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "audio/") || strings.HasPrefix(contentType, "video/") {
		return Result{}, ErrUnsupportedType
	}

	kind := Classify(rawURL, resp.Header.Get("Content-Type"))

	switch kind {
	case KindPDF:
		return a.acquirePDF(rawURL, resp.Body)
	case KindHTML:
		return a.acquireHTML(rawURL, resp.Body)
	default:
		return Result{}, ErrUnsupportedType
	}
}

func (a *LocalAcquirer) acquireHTML(rawURL string, body io.Reader) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	doc.Find("script, style, nav, footer, noscript").Remove()

	bodyHTML, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(bodyHTML) == "" {
		bodyHTML, _ = doc.Html()
	}

	sanitized := a.sanitizer.sanitize(bodyHTML)

	text, err := a.converter.ConvertString(sanitized)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	if a.limits.MaxHTMLLength > 0 && len(text) > a.limits.MaxHTMLLength {
		text = text[:a.limits.MaxHTMLLength]
	}

	return Result{URL: rawURL, Kind: KindHTML, Text: strings.TrimSpace(text)}, nil
}

func (a *LocalAcquirer) acquirePDF(rawURL string, body io.Reader) (Result, error) {
	maxSize := a.limits.PDFMaxFilesize
	if maxSize <= 0 {
		maxSize = defaultPDFMaxFilesize
	}

	tmp, err := os.CreateTemp("", "acquisition-pdf-*.pdf")
	if err != nil {
		return Result{}, fmt.Errorf("%w: create temp file: %v", ErrFetchFailed, err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	n, err := io.Copy(tmp, io.LimitReader(body, maxSize+1))
	if err != nil {
		return Result{}, fmt.Errorf("%w: write temp file: %v", ErrFetchFailed, err)
	}
	if n > maxSize {
		return Result{}, ErrTooLarge
	}

	f, r, err := pdfread.Open(tmp.Name())
	if err != nil {
		return Result{}, fmt.Errorf("%w: open pdf: %v", ErrFetchFailed, err)
	}
	defer f.Close()

	maxPages := a.limits.PDFMaxPages
	if maxPages <= 0 {
		maxPages = defaultPDFMaxPages
	}

	var sb strings.Builder
	pages := r.NumPage()
	if pages > maxPages {
		pages = maxPages
	}
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	return Result{URL: rawURL, Kind: KindPDF, Text: strings.TrimSpace(sb.String())}, nil
}

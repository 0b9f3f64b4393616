package acquisition

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLocalAcquirerAcquireHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><script>evil()</script></head><body><nav>menu</nav><p>Hello world</p><footer>bye</footer></body></html>`))
	}))
	defer server.Close()

	a := NewLocalAcquirer(Limits{})

	result, err := a.Acquire(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if result.Kind != KindHTML {
		t.Errorf("Acquire() Kind = %q, want html", result.Kind)
	}
	if !strings.Contains(result.Text, "Hello world") {
		t.Errorf("Acquire() Text = %q, want it to contain body content", result.Text)
	}
	if strings.Contains(result.Text, "menu") || strings.Contains(result.Text, "bye") {
		t.Errorf("Acquire() Text = %q, expected nav/footer stripped", result.Text)
	}
}

func TestLocalAcquirerAcquireTruncatesToMaxHTMLLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><p>` + strings.Repeat("a", 500) + `</p></body></html>`))
	}))
	defer server.Close()

	a := NewLocalAcquirer(Limits{MaxHTMLLength: 10})

	result, err := a.Acquire(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if len(result.Text) > 10 {
		t.Errorf("Acquire() Text length = %d, want <= 10", len(result.Text))
	}
}

func TestLocalAcquirerAcquireNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	a := NewLocalAcquirer(Limits{})

	_, err := a.Acquire(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Acquire() expected error for 404 response")
	}
}

func TestLocalAcquirerAcquireUnsupportedType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("binary-ish"))
	}))
	defer server.Close()

	a := NewLocalAcquirer(Limits{})

	_, err := a.Acquire(context.Background(), server.URL)
	if err != ErrUnsupportedType {
		t.Errorf("Acquire() error = %v, want %v", err, ErrUnsupportedType)
	}
}

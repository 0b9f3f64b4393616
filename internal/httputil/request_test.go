package httputil

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseJSONDecodesBody(t *testing.T) {
	var dest struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"fathom"}`))
	w := httptest.NewRecorder()

	if err := ParseJSON(w, r, &dest); err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if dest.Name != "fathom" {
		t.Errorf("dest.Name = %q, want %q", dest.Name, "fathom")
	}
}

func TestParseJSONRejectsMalformedBody(t *testing.T) {
	var dest struct{}
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{not json`))
	w := httptest.NewRecorder()

	if err := ParseJSON(w, r, &dest); err == nil {
		t.Fatal("ParseJSON() expected error for malformed body")
	}
}

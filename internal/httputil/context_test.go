package httputil

import (
	"net/http/httptest"
	"testing"
)

func TestUserIDRoundTrip(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := GetUserID(r); got != "" {
		t.Errorf("GetUserID() = %q before WithUserID, want empty", got)
	}

	r = WithUserID(r, "user-1")
	if got := GetUserID(r); got != "user-1" {
		t.Errorf("GetUserID() = %q, want %q", got, "user-1")
	}
}

func TestProjectIDRoundTrip(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r = WithProjectID(r, "project-1")
	if got := GetProjectID(r); got != "project-1" {
		t.Errorf("GetProjectID() = %q, want %q", got, "project-1")
	}
}

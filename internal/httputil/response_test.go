package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondJSONWritesStatusAndBody(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, http.StatusCreated, map[string]string{"id": "abc"})

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if body["id"] != "abc" {
		t.Errorf("body[id] = %q, want %q", body["id"], "abc")
	}
}

func TestRespondErrorWritesProblemDetail(t *testing.T) {
	w := httptest.NewRecorder()
	RespondError(w, http.StatusNotFound, "session not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}

	var problem ProblemDetail
	if err := json.Unmarshal(w.Body.Bytes(), &problem); err != nil {
		t.Fatalf("unmarshal problem detail: %v", err)
	}
	if problem.Status != http.StatusNotFound {
		t.Errorf("problem.Status = %d, want %d", problem.Status, http.StatusNotFound)
	}
	if problem.Detail != "session not found" {
		t.Errorf("problem.Detail = %q, want %q", problem.Detail, "session not found")
	}
}

func TestRespondErrorWithExtrasIncludesExtraFields(t *testing.T) {
	w := httptest.NewRecorder()
	RespondErrorWithExtras(w, http.StatusConflict, "duplicate", map[string]interface{}{"field": "session_id"})

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if body["field"] != "session_id" {
		t.Errorf("body[field] = %v, want %q", body["field"], "session_id")
	}
	if body["status"].(float64) != float64(http.StatusConflict) {
		t.Errorf("body[status] = %v, want %d", body["status"], http.StatusConflict)
	}
}

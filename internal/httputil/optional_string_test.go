package httputil

import (
	"encoding/json"
	"testing"
)

func TestOptionalStringAbsentWhenFieldMissing(t *testing.T) {
	var payload struct {
		Name OptionalString `json:"name"`
	}
	if err := json.Unmarshal([]byte(`{}`), &payload); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if payload.Name.Present {
		t.Error("Present = true for missing field, want false")
	}
}

func TestOptionalStringNullClearsValue(t *testing.T) {
	var payload struct {
		Name OptionalString `json:"name"`
	}
	if err := json.Unmarshal([]byte(`{"name":null}`), &payload); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !payload.Name.Present {
		t.Fatal("Present = false for null field, want true")
	}
	if payload.Name.Value != nil {
		t.Errorf("Value = %v, want nil", *payload.Name.Value)
	}
}

func TestOptionalStringSetsValue(t *testing.T) {
	var payload struct {
		Name OptionalString `json:"name"`
	}
	if err := json.Unmarshal([]byte(`{"name":"fathom"}`), &payload); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !payload.Name.Present || payload.Name.Value == nil || *payload.Name.Value != "fathom" {
		t.Errorf("Name = %+v, want Present=true Value=fathom", payload.Name)
	}
}

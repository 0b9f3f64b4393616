package orchestrator

import (
	"reflect"
	"testing"
)

func TestParseBracketedList(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"simple bracketed list", `["query one", "query two"]`, []string{"query one", "query two"}},
		{"single-quoted items", `['query one', 'query two']`, []string{"query one", "query two"}},
		{"no brackets", `query one, query two`, []string{"query one", "query two"}},
		{"whitespace padding", `[ "a" ,  "b" ]`, []string{"a", "b"}},
		{"empty", "", nil},
		{"brackets only", "[]", nil},
		{"single item", `["only one"]`, []string{"only one"}},
		{"trailing empty item dropped", `["a", ""]`, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseBracketedList(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseBracketedList(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

package util

import (
	"strings"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"gcamp6f", "gcmap6f", 2}, // transposition counts as 2
	}

	for _, tc := range tests {
		t.Run(tc.a+"_"+tc.b, func(t *testing.T) {
			result := levenshteinDistance(tc.a, tc.b)
			if result != tc.expected {
				t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tc.a, tc.b, result, tc.expected)
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"GCaMP6s", "GCaMP6m", "GCaMP6f", "jGCaMP7f", "OGB-1"}
	tests := []struct {
		input string
		want  string
	}{
		{"gcamp6f", "GCaMP6f"},
		{"GCaMP6F ", "GCaMP6f"},
		{"gcamp6x", "GCaMP6f"}, // tie among 6f/6m/6s, first in sort order
		{"ogb1", "OGB-1"},
		{"jgcamp7", "jGCaMP7f"},
		{"fluo-4-am-long", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := Suggest(tc.input, candidates); got != tc.want {
				t.Errorf("Suggest(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestUnknownNameError(t *testing.T) {
	err := UnknownNameError("colormap", "hot", []string{"heat", "gray"})
	if !strings.Contains(err.Error(), `did you mean "heat"`) {
		t.Errorf("expected a suggestion, got: %v", err)
	}

	err = UnknownNameError("colormap", "plasma-extended", []string{"heat", "gray"})
	if !strings.Contains(err.Error(), "valid: heat, gray") {
		t.Errorf("expected the valid list, got: %v", err)
	}
}

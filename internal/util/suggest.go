package util

import (
	"fmt"
	"slices"
	"strings"
)

// maxSuggestDistance is the largest edit distance still offered as a suggestion.
const maxSuggestDistance = 3

// Suggest returns the candidate closest to input (case-insensitive Levenshtein
// distance), or "" when nothing is within maxSuggestDistance edits. Ties go
// to the candidate that sorts first.
func Suggest(input string, candidates []string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	sorted := slices.Clone(candidates)
	slices.Sort(sorted)

	bestDistance := maxSuggestDistance + 1
	var bestMatch string
	for _, c := range sorted {
		if d := levenshteinDistance(input, strings.ToLower(c)); d < bestDistance {
			bestDistance = d
			bestMatch = c
		}
	}
	return bestMatch
}

// UnknownNameError builds the "unknown <kind>" error, with a suggestion when
// a candidate is close enough.
func UnknownNameError(kind, name string, candidates []string) error {
	if s := Suggest(name, candidates); s != "" {
		return fmt.Errorf("unknown %s %q, did you mean %q?", kind, name, s)
	}
	return fmt.Errorf("unknown %s %q (valid: %s)", kind, name, strings.Join(candidates, ", "))
}

// levenshteinDistance is the minimum number of single-character insertions,
// deletions or substitutions turning a into b.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

package textutil

import "github.com/agnivade/levenshtein"

// Distance returns the Levenshtein edit distance between a and b in runes.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// NormalizedDistance compares two raw titles after NormalizeTitle.
func NormalizedDistance(a, b string) int {
	return Distance(NormalizeTitle(a), NormalizeTitle(b))
}

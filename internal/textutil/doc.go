// Package textutil provides the title normalization and edit-distance
// primitives used when matching user-supplied game titles against catalog
// names.
//
// SanitizeTitle performs Unicode compatibility decomposition, strips combining
// marks (diacritics) and trademark glyphs, unifies typographic quotes and
// dashes, and collapses whitespace. NormalizeTitle additionally case-folds the
// result so two titles compare equal exactly when a reader would call them
// "the same name". Distance reports the Levenshtein distance between two
// normalized titles in runes.
package textutil

// Package matching picks the single catalog entry that best matches a title.
//
// A Resolver searches once, short-circuits on an exact normalized name match,
// otherwise ranks results by edit distance with popularity as the tie-break,
// and, when a Steam app id is supplied, confirms identity against a small
// number of detail pages before settling on the top-ranked entry.
//
// An exact name match wins without Steam confirmation even when an app id is
// given. Re-releases that share a name with the original can therefore
// resolve to the more popular entry.
package matching

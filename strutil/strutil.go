// Copyright 2026 The Tracklist Authors.
// All rights reserved.

// Package strutil contains string helpers shared by the track sources.
package strutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Narrow replaces full-width and ideographic forms (e.g. "１２：３４" or "ＡＢＣ")
// with their narrow equivalents. Other characters are left untouched.
func Narrow(s string) string { return width.Narrow.String(s) }

// https://go.dev/blog/normalization#performing-magic
var matchChain = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// MatchKey returns a lowercased, de-accented and whitespace-collapsed version of s
// that's suitable for comparing titles from different sources.
// Compatibility characters are decomposed, so e.g. "Ⅳ" and "IV" produce the same key.
func MatchKey(s string) string {
	out, _, err := transform.String(matchChain, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// Levenshtein returns the edit distance between a and b,
// i.e. the minimum number of rune insertions, deletions, and substitutions
// needed to transform a into b.
func Levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)

	// prev[j] holds the distance between the previous prefix of a and the first j runes of b.
	prev := make([]int, len(br)+1)
	cur := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		cur[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(br)]
}

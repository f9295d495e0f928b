package textsim

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NGramSize is the token width of the shingles compared by Similarity.
const NGramSize = 3

// Similarity scores how much of a is covered by b, 0..100.
//
// Both strings are normalized (lowercase, punctuation stripped, whitespace
// collapsed), split into 3-token shingles, and the score is the share of a's
// distinct shingles that also occur in b. It is normalized by the first
// argument only, so Similarity(a, b) and Similarity(b, a) may differ.
// Strings whose normalized lengths differ by more than 70% score 0.
func Similarity(a, b string) int {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" || nb == "" {
		return 0
	}

	la := utf8.RuneCountInString(na)
	lb := utf8.RuneCountInString(nb)
	if float64(min(la, lb))/float64(max(la, lb)) < 0.3 {
		return 0
	}

	ga := NGrams(strings.Fields(na), NGramSize)
	gb := NGrams(strings.Fields(nb), NGramSize)
	if len(ga) == 0 || len(gb) == 0 {
		return 0
	}

	shared := 0
	for g := range ga {
		if _, ok := gb[g]; ok {
			shared++
		}
	}
	return int(math.Round(float64(shared) / float64(len(ga)) * 100))
}

// Normalize lowercases s, drops everything that is not a letter, digit,
// underscore or space, and collapses whitespace runs.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if space {
				b.WriteByte(' ')
				space = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NGrams returns the set of space-joined n-token windows over tokens.
func NGrams(tokens []string, n int) map[string]struct{} {
	out := map[string]struct{}{}
	if n <= 0 {
		return out
	}
	for i := 0; i+n <= len(tokens); i++ {
		out[strings.Join(tokens[i:i+n], " ")] = struct{}{}
	}
	return out
}

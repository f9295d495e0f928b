package fragment

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"plagcheck/internal/textsim"
)

const (
	MinSentenceLen  = 20 // sentences this short or shorter are dropped
	MinFragmentLen  = 50
	MaxSearch       = 8
	DuplicateCutoff = 80 // similarity above this marks a near-duplicate

	wordStep   = 15
	wordWindow = 20
	wordMinFit = 6
)

var reSentenceEnd = regexp.MustCompile(`[.!?]+`)

// Set is the outcome of splitting one document.
type Set struct {
	All    []string `json:"allFragments"`
	Unique []string `json:"uniqueFragments"`
	Search []string `json:"searchFragments"`
}

// Extract splits text into search fragments. It is deterministic.
func Extract(text string) Set {
	if strings.TrimSpace(text) == "" {
		return Set{}
	}

	all := fromSentences(text)
	if len(all) == 0 {
		all = fromWords(text)
	}
	if len(all) == 0 {
		all = []string{strings.TrimSpace(text)}
	}

	unique := dedupe(all)
	return Set{
		All:    all,
		Unique: unique,
		Search: sample(unique, MaxSearch),
	}
}

func fromSentences(text string) []string {
	var sentences []string
	for _, s := range reSentenceEnd.Split(text, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) > MinSentenceLen {
			sentences = append(sentences, s)
		}
	}

	var out []string
	for i := 0; i < len(sentences); i++ {
		s := sentences[i]
		if utf8.RuneCountInString(s) >= MinFragmentLen {
			out = append(out, s)
			continue
		}
		if i+1 >= len(sentences) {
			continue
		}
		// Short sentence: try to reach the minimum together with the next one.
		joined := s + " " + sentences[i+1]
		if utf8.RuneCountInString(joined) >= MinFragmentLen {
			out = append(out, joined)
			i++
		}
	}
	return out
}

func fromWords(text string) []string {
	words := strings.Fields(text)
	var out []string
	for i := 0; i < len(words); i += wordStep {
		if i+wordMinFit >= len(words) {
			continue
		}
		n := min(wordWindow, len(words)-i)
		out = append(out, strings.Join(words[i:i+n], " "))
	}
	return out
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		dup := false
		for _, kept := range out {
			// Similarity is not symmetric; a kept sentence contained in f
			// only scores high in one direction.
			if max(textsim.Similarity(f, kept), textsim.Similarity(kept, f)) > DuplicateCutoff {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}

// sample keeps the first and last fragment and evenly spaced ones between,
// returned in document order.
func sample(in []string, limit int) []string {
	if len(in) <= limit {
		return append([]string(nil), in...)
	}

	n := len(in)
	picked := []int{0, n - 1}
	step := (n - 2) / (limit - 2)
	if step < 1 {
		step = 1
	}
	for i := 1; i < n-1 && len(picked) < limit; i += step {
		picked = append(picked, i)
	}
	sort.Ints(picked)

	out := make([]string, 0, len(picked))
	for _, i := range picked {
		out = append(out, in[i])
	}
	return out
}

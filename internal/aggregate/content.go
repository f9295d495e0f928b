package aggregate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// Span is a contiguous run of text with one plagiarism classification.
type Span struct {
	Text          string `json:"text"`
	IsPlagiarized bool   `json:"isPlagiarized"`
}

// ContentOptions tune the span scan.
type ContentOptions struct {
	// MaxChars caps how much of the document is scanned.
	MaxChars int
	// Window is the number of words tested at each position.
	Window int
	// PrefixLen is how much of a matched fragment must appear in the window.
	PrefixLen int
	// Stride is the step between tested positions.
	Stride int
}

func DefaultContentOptions() ContentOptions {
	return ContentOptions{MaxChars: 5000, Window: 5, PrefixLen: 30, Stride: 1}
}

var (
	reWord        = regexp.MustCompile(`\S+`)
	reSentenceEnd = regexp.MustCompile(`[.!?]+`)
)

// word is one token plus the whitespace that follows it.
type word struct {
	text string
	tail string
}

// AnalyzeContent splits the (truncated) text into spans. A position is
// flagged when the window of words starting there contains the opening
// characters of a matched fragment; every word of that window is flagged.
// Concatenating the span texts gives back the truncated input.
func AnalyzeContent(text string, matched []string, opts ContentOptions) []Span {
	opts = withContentDefaults(opts)
	text = truncate(text, opts.MaxChars)
	if text == "" {
		return []Span{}
	}

	lead, words := splitWords(text)
	if len(words) == 0 {
		return []Span{{Text: text}}
	}

	needles := lo.Uniq(lo.FilterMap(matched, func(f string, _ int) (string, bool) {
		n := collapse(truncate(f, opts.PrefixLen))
		return n, n != ""
	}))

	flags := make([]bool, len(words))
	if len(needles) > 0 {
		for i := 0; i < len(words); i += opts.Stride {
			end := min(i+opts.Window, len(words))
			window := collapse(strings.Join(lo.Map(words[i:end], func(w word, _ int) string { return w.text }), " "))
			if lo.SomeBy(needles, func(n string) bool { return strings.Contains(window, n) }) {
				for j := i; j < end; j++ {
					flags[j] = true
				}
			}
		}
	}

	var spans []Span
	var b strings.Builder
	b.WriteString(lead)
	current := flags[0]
	for i, w := range words {
		if flags[i] != current {
			spans = append(spans, Span{Text: b.String(), IsPlagiarized: current})
			b.Reset()
			current = flags[i]
		}
		b.WriteString(w.text)
		b.WriteString(w.tail)
	}
	spans = append(spans, Span{Text: b.String(), IsPlagiarized: current})
	return spans
}

func withContentDefaults(o ContentOptions) ContentOptions {
	d := DefaultContentOptions()
	if o.MaxChars <= 0 {
		o.MaxChars = d.MaxChars
	}
	if o.Window <= 0 {
		o.Window = d.Window
	}
	if o.PrefixLen <= 0 {
		o.PrefixLen = d.PrefixLen
	}
	if o.Stride <= 0 {
		o.Stride = d.Stride
	}
	return o
}

// splitWords returns the leading whitespace and every word with its
// trailing separator.
func splitWords(text string) (string, []word) {
	locs := reWord.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text, nil
	}
	words := make([]word, len(locs))
	for i, loc := range locs {
		next := len(text)
		if i+1 < len(locs) {
			next = locs[i+1][0]
		}
		words[i] = word{text: text[loc[0]:loc[1]], tail: text[loc[1]:next]}
	}
	return text[:locs[0][0]], words
}

// collapse lowercases, drops sentence terminators and squeezes whitespace
// runs to single spaces. Fragments are cut on the same terminators, so a
// fragment joined from two sentences still matches the original text.
func collapse(s string) string {
	s = reSentenceEnd.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

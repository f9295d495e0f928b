// Package aidetect estimates how likely a text is machine-generated from
// a few surface statistics. The score is a fixed heuristic with no
// calibration behind it.
package aidetect

import (
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// FormalConnectives are the transition words counted by the formal
// language feature, in English and Spanish.
var FormalConnectives = []string{
	"furthermore", "moreover", "additionally", "consequently", "therefore",
	"thus", "hence", "subsequently", "nevertheless", "accordingly",
	"sin embargo", "por lo tanto", "en consecuencia", "además", "adicionalmente",
}

// minPatternLen is the shortest text the pattern indicators are computed for.
const minPatternLen = 100

var (
	reSentenceEnd = regexp.MustCompile(`[.!?]+`)
	reToken       = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

type Features struct {
	AverageSentenceLength float64 `json:"averageSentenceLength"`
	RepeatedPhrases       int     `json:"repeatedPhrases"`
	FormalLanguage        int     `json:"formalLanguage"`
}

// Patterns are secondary 0..1 indicators reported alongside the score.
// They do not feed into it.
type Patterns struct {
	RepetitivePhrases        float64 `json:"repetitivePhrases"`
	SentenceComplexity       float64 `json:"sentenceComplexity"`
	VocabularyDiversity      float64 `json:"vocabularyDiversity"`
	TransitionUsage          float64 `json:"transitionUsage"`
	SentenceLengthUniformity float64 `json:"sentenceLengthUniformity"`
}

type Analysis struct {
	Score    int       `json:"score"`
	Features Features  `json:"features"`
	Patterns *Patterns `json:"patterns,omitempty"`
}

func Analyze(text string) Analysis {
	sentences := splitSentences(text)
	tokens := reToken.FindAllString(strings.ToLower(text), -1)

	f := Features{
		AverageSentenceLength: averageLength(sentences),
		RepeatedPhrases:       repeatedPhrases(tokens),
		FormalLanguage:        formalCount(tokens),
	}

	raw := f.AverageSentenceLength/20*40 +
		float64(f.RepeatedPhrases)/10*30 +
		float64(f.FormalLanguage)/5*30
	score := int(math.Round(raw))
	score = max(0, min(100, score))

	a := Analysis{Score: score, Features: f}
	if utf8.RuneCountInString(text) >= minPatternLen {
		p := patterns(sentences, tokens, f)
		a.Patterns = &p
	}
	return a
}

func splitSentences(text string) []string {
	return lo.FilterMap(reSentenceEnd.Split(text, -1), func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
}

func averageLength(sentences []string) float64 {
	if len(sentences) == 0 {
		return 0
	}
	total := lo.SumBy(sentences, func(s string) int { return utf8.RuneCountInString(s) })
	return float64(total) / float64(len(sentences))
}

// repeatedPhrases counts distinct three-word phrases seen more than once.
func repeatedPhrases(tokens []string) int {
	counts := map[string]int{}
	for i := 0; i+3 <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+3], " ")]++
	}
	return len(lo.PickBy(counts, func(_ string, n int) bool { return n > 1 }))
}

// formalCount counts connective occurrences as whole-word token runs.
func formalCount(tokens []string) int {
	total := 0
	for _, c := range FormalConnectives {
		phrase := strings.Fields(c)
		for i := 0; i+len(phrase) <= len(tokens); i++ {
			if slices.Equal(tokens[i:i+len(phrase)], phrase) {
				total++
			}
		}
	}
	return total
}

func patterns(sentences, tokens []string, f Features) Patterns {
	words := lo.Filter(tokens, func(w string, _ int) bool { return utf8.RuneCountInString(w) > 1 })

	lengths := lo.Map(sentences, func(s string, _ int) float64 { return float64(len(strings.Fields(s))) })
	var mean, variation float64
	if len(lengths) > 0 {
		mean = lo.Sum(lengths) / float64(len(lengths))
		sq := lo.SumBy(lengths, func(l float64) float64 { return (l - mean) * (l - mean) })
		variation = math.Sqrt(sq / float64(len(lengths)))
	}

	var diversity, repeatRatio float64
	if len(words) > 0 {
		diversity = float64(len(lo.Uniq(words))) / float64(len(words))
		repeatRatio = float64(f.RepeatedPhrases) / (float64(len(words)) / 3)
	}

	var transitions float64
	if len(sentences) > 0 {
		transitions = float64(f.FormalLanguage) / float64(len(sentences))
	}

	uniformity := 0.0
	if mean > 0 {
		uniformity = unit(1 - variation/mean)
	}

	return Patterns{
		RepetitivePhrases:        unit(repeatRatio * 2),
		SentenceComplexity:       unit(1 - variation/8),
		VocabularyDiversity:      unit(1 - diversity),
		TransitionUsage:          unit(transitions * 2),
		SentenceLengthUniformity: uniformity,
	}
}

func unit(v float64) float64 {
	return math.Round(math.Max(0, math.Min(1, v))*1000) / 1000
}

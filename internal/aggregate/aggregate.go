// Package aggregate merges per-fragment search results into scored sources,
// an overall percentage and the span map of the analyzed text.
package aggregate

import (
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"

	"plagcheck/internal/search"
	"plagcheck/internal/textsim"
)

const (
	// MinSimilarity is the relevance floor; matches at or below it are noise.
	MinSimilarity = 25
	// DefaultLimit is how many sources a report keeps.
	DefaultLimit = 10
	// SingleProviderLimit applies when only one backend fed the report.
	SingleProviderLimit = 8
)

// Source is one external URL believed to match part of the document.
type Source struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	MatchPercentage int      `json:"matchPercentage"`
	Source          string   `json:"source"`
	Providers       []string `json:"providers"`
	Snippet         string   `json:"snippet"`
	// Fragment is the document fragment that produced the best match.
	Fragment string `json:"-"`
}

// FragmentResults holds everything the backends returned for one search fragment.
type FragmentResults struct {
	Fragment string
	Results  []search.Result
}

// Input is the settled output of the searching stage.
type Input struct {
	Text      string
	Fragments []FragmentResults
	// Document holds results from providers queried with the whole text.
	Document []search.Result
}

type Options struct {
	Limit   int
	Content ContentOptions
}

func DefaultOptions() Options {
	return Options{Limit: DefaultLimit, Content: DefaultContentOptions()}
}

// Outcome is what the aggregating stage contributes to a report.
type Outcome struct {
	Percentage      int
	Sources         []Source
	AnalyzedContent []Span
	// Matched lists the search fragments with at least one accepted result.
	Matched []string
}

func Aggregate(in Input, opts Options) Outcome {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	m := newMerger()
	var matched []string
	for _, fr := range in.Fragments {
		accepted := false
		for _, r := range fr.Results {
			if !complete(r) {
				continue
			}
			score := textsim.Similarity(fr.Fragment, r.Snippet)
			if score <= MinSimilarity {
				continue
			}
			accepted = true
			m.add(r, score, fr.Fragment)
		}
		if accepted {
			matched = append(matched, fr.Fragment)
		}
	}

	searchFragments := lo.Map(in.Fragments, func(fr FragmentResults, _ int) string { return fr.Fragment })
	for _, r := range in.Document {
		if !complete(r) {
			continue
		}
		score, frag := r.Score, bestFragment(searchFragments, r.Snippet)
		if score <= 0 {
			score = textsim.Similarity(frag, r.Snippet)
		}
		if score <= MinSimilarity {
			continue
		}
		m.add(r, score, frag)
	}

	sources := m.sorted()
	if len(sources) > opts.Limit {
		sources = sources[:opts.Limit]
	}

	return Outcome{
		Percentage:      Percentage(len(matched), len(in.Fragments), sources),
		Sources:         sources,
		AnalyzedContent: AnalyzeContent(in.Text, matched, opts.Content),
		Matched:         matched,
	}
}

// Percentage combines the share of fragments that matched with the mean
// score of the retained sources. It is a heuristic, not a calibrated
// measure.
func Percentage(matchedFragments, totalFragments int, sources []Source) int {
	if totalFragments == 0 || len(sources) == 0 {
		return 0
	}
	matchRatio := float64(matchedFragments) / float64(totalFragments)
	avgTop := float64(lo.SumBy(sources, func(s Source) int { return s.MatchPercentage })) / float64(len(sources))

	p := int(math.Round((matchRatio*0.6 + avgTop/100*0.4) * 100))
	return clamp(p, 0, 100)
}

func complete(r search.Result) bool {
	return strings.TrimSpace(r.URL) != "" &&
		strings.TrimSpace(r.Title) != "" &&
		strings.TrimSpace(r.Snippet) != ""
}

// bestFragment is the fragment most similar to snippet.
func bestFragment(fragments []string, snippet string) string {
	best, bestScore := "", -1
	for _, f := range fragments {
		if s := textsim.Similarity(f, snippet); s > bestScore {
			best, bestScore = f, s
		}
	}
	return best
}

// merger folds results into sources keyed by URL, keeping first-seen order.
type merger struct {
	byURL map[string]*Source
	order []string
}

func newMerger() *merger {
	return &merger{byURL: map[string]*Source{}}
}

func (m *merger) add(r search.Result, score int, fragment string) {
	score = clamp(score, 0, 100)
	s, ok := m.byURL[r.URL]
	if !ok {
		m.byURL[r.URL] = &Source{
			URL:             r.URL,
			Title:           r.Title,
			MatchPercentage: score,
			Source:          r.Provider,
			Providers:       []string{r.Provider},
			Snippet:         r.Snippet,
			Fragment:        fragment,
		}
		m.order = append(m.order, r.URL)
		return
	}

	if !lo.Contains(s.Providers, r.Provider) {
		s.Providers = append(s.Providers, r.Provider)
	}
	if score > s.MatchPercentage {
		s.MatchPercentage = score
		s.Snippet = r.Snippet
		s.Fragment = fragment
		if !lo.Contains(strings.Split(s.Source, ", "), r.Provider) {
			s.Source = r.Provider + ", " + s.Source
		}
	}
}

func (m *merger) sorted() []Source {
	out := lo.Map(m.order, func(u string, _ int) Source { return *m.byURL[u] })
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchPercentage > out[j].MatchPercentage
	})
	return out
}

func clamp(v, lower, upper int) int {
	if v < lower {
		return lower
	}
	if v > upper {
		return upper
	}
	return v
}

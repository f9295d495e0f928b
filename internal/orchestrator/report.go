package orchestrator

import (
	"unicode/utf8"

	"plagcheck/internal/aggregate"
	"plagcheck/internal/aidetect"
)

const (
	documentPreviewLen = 1000
	snippetPreviewLen  = 150
)

// Report is the final result of one analysis. It is not modified after
// Run returns.
type Report struct {
	Percentage             int              `json:"percentage"`
	Sources                []ReportSource   `json:"sources"`
	DocumentContent        string           `json:"documentContent"`
	AnalyzedContent        []aggregate.Span `json:"analyzedContent"`
	AIGeneratedProbability int              `json:"aiGeneratedProbability"`
	AIAnalysisDetails      AIDetails        `json:"aiAnalysisDetails"`
	SearchStats            SearchStats      `json:"searchStats"`
}

type ReportSource struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	MatchPercentage int      `json:"matchPercentage"`
	Source          string   `json:"source"`
	Providers       []string `json:"providers"`
	Snippet         string   `json:"snippet"`
}

type AIDetails struct {
	ConfidenceScore float64            `json:"confidenceScore"`
	Features        aidetect.Features  `json:"features"`
	Patterns        *aidetect.Patterns `json:"patterns,omitempty"`
}

// SearchStats counts per-fragment search outcomes.
type SearchStats struct {
	Fragments int `json:"fragments"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Blocked   int `json:"blocked"`
	TimedOut  int `json:"timedOut"`
}

func buildReport(text string, agg aggregate.Outcome, ai aidetect.Analysis, stats SearchStats) *Report {
	sources := make([]ReportSource, 0, len(agg.Sources))
	for _, s := range agg.Sources {
		sources = append(sources, ReportSource{
			URL:             s.URL,
			Title:           s.Title,
			MatchPercentage: s.MatchPercentage,
			Source:          s.Source,
			Providers:       s.Providers,
			Snippet:         preview(s.Snippet, snippetPreviewLen),
		})
	}

	spans := agg.AnalyzedContent
	if spans == nil {
		spans = []aggregate.Span{}
	}

	return &Report{
		Percentage:             agg.Percentage,
		Sources:                sources,
		DocumentContent:        preview(text, documentPreviewLen),
		AnalyzedContent:        spans,
		AIGeneratedProbability: ai.Score,
		AIAnalysisDetails: AIDetails{
			ConfidenceScore: float64(ai.Score) / 100,
			Features:        ai.Features,
			Patterns:        ai.Patterns,
		},
		SearchStats: stats,
	}
}

// preview cuts s to n characters and marks the cut with "...".
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

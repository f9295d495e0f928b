// Package report renders an analysis Report as a Word document.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/gingfrederik/docx"

	"plagcheck/internal/orchestrator"
)

const (
	colorPlagiarized = "C00000"
	colorMuted       = "808080"
	colorLink        = "0000FF"
	colorScore       = "008000"
	separator        = "--------------------------------------------------"
)

// Build lays out r as a DOCX file. query, when set, is printed under the
// title.
func Build(r *orchestrator.Report, query string) *docx.File {
	f := docx.NewFile()

	p := f.AddParagraph()
	p.AddText("Plagiarism Analysis Report").Size(20)
	if query != "" {
		f.AddParagraph().AddText(query).Size(10).Color(colorMuted)
	}
	f.AddParagraph() // Spacer

	p = f.AddParagraph()
	p.AddText(fmt.Sprintf("Plagiarism: %d%%", r.Percentage)).Size(16)
	p = f.AddParagraph()
	p.AddText(fmt.Sprintf("AI-generated probability: %d%%", r.AIGeneratedProbability)).Size(16)

	feat := r.AIAnalysisDetails.Features
	f.AddParagraph().AddText(fmt.Sprintf(
		"Average sentence length: %.1f | Repeated phrases: %d | Formal connectives: %d",
		feat.AverageSentenceLength, feat.RepeatedPhrases, feat.FormalLanguage,
	)).Size(10).Color(colorMuted)

	st := r.SearchStats
	f.AddParagraph().AddText(fmt.Sprintf(
		"Fragments searched: %d (ok %d, failed %d, blocked %d, timed out %d)",
		st.Fragments, st.Succeeded, st.Failed, st.Blocked, st.TimedOut,
	)).Size(10).Color(colorMuted)

	f.AddParagraph().AddText(separator)

	f.AddParagraph().AddText("Sources").Size(16)
	if len(r.Sources) == 0 {
		f.AddParagraph().AddText("No matching sources were found.")
	}
	for i, s := range r.Sources {
		f.AddParagraph().AddText(fmt.Sprintf("%d. %s", i+1, s.Title))
		f.AddParagraph().AddText(s.URL).Size(10).Color(colorLink)
		f.AddParagraph().AddText(fmt.Sprintf(
			"Match: %d%% | Found by: %s", s.MatchPercentage, strings.Join(s.Providers, ", "),
		)).Color(colorScore)
		if s.Snippet != "" {
			f.AddParagraph().AddText(s.Snippet).Size(10).Color(colorMuted)
		}
		f.AddParagraph() // Spacer
	}

	f.AddParagraph().AddText(separator)

	f.AddParagraph().AddText("Analyzed content").Size(16)
	p = f.AddParagraph()
	for _, span := range r.AnalyzedContent {
		run := p.AddText(span.Text)
		if span.IsPlagiarized {
			run.Color(colorPlagiarized)
		}
	}

	return f
}

// Write renders r as DOCX into w.
func Write(w io.Writer, r *orchestrator.Report, query string) error {
	if r == nil {
		return fmt.Errorf("write report: nil report")
	}
	if err := Build(r, query).Write(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Save renders r as DOCX into the file at path.
func Save(path string, r *orchestrator.Report, query string) error {
	if r == nil {
		return fmt.Errorf("save report: nil report")
	}
	if err := Build(r, query).Save(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}

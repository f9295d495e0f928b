package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plagcheck/internal/aggregate"
	"plagcheck/internal/aidetect"
	"plagcheck/internal/extract"
	"plagcheck/internal/orchestrator"
)

func sampleReport() *orchestrator.Report {
	return &orchestrator.Report{
		Percentage: 64,
		Sources: []orchestrator.ReportSource{{
			URL:             "https://es.wikipedia.org/wiki/Inteligencia_artificial",
			Title:           "Inteligencia artificial - Wikipedia",
			MatchPercentage: 91,
			Source:          "Google",
			Providers:       []string{"Google", "Google Scholar"},
			Snippet:         "La inteligencia artificial es la simulación...",
		}},
		AnalyzedContent: []aggregate.Span{
			{Text: "Texto propio ", IsPlagiarized: false},
			{Text: "texto copiado", IsPlagiarized: true},
		},
		AIGeneratedProbability: 35,
		AIAnalysisDetails: orchestrator.AIDetails{
			ConfidenceScore: 0.35,
			Features:        aidetect.Features{AverageSentenceLength: 18.5, RepeatedPhrases: 2, FormalLanguage: 1},
		},
		SearchStats: orchestrator.SearchStats{Fragments: 3, Succeeded: 2, Blocked: 1},
	}
}

func TestWrite_ProducesReadableDOCX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), "trabajo final"))

	text, err := extract.Text(buf.Bytes(), "", "report.docx")
	require.NoError(t, err)
	assert.Contains(t, text, "Plagiarism: 64%")
	assert.Contains(t, text, "AI-generated probability: 35%")
	assert.Contains(t, text, "trabajo final")
	assert.Contains(t, text, "1. Inteligencia artificial - Wikipedia")
	assert.Contains(t, text, "Match: 91% | Found by: Google, Google Scholar")
	assert.Contains(t, text, "blocked 1")
	assert.Contains(t, text, "texto copiado")
}

func TestWrite_NoSources(t *testing.T) {
	r := sampleReport()
	r.Sources = nil

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, ""))
	text, err := extract.Text(buf.Bytes(), "", "report.docx")
	require.NoError(t, err)
	assert.Contains(t, text, "No matching sources were found.")
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, Save(path, sampleReport(), ""))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestNilReport(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, nil, ""))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "x.docx"), nil, ""))
}

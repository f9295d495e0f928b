package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"plagcheck/internal/extract"
	"plagcheck/internal/metrics"
	"plagcheck/internal/orchestrator"
	"plagcheck/internal/search"
)

const sampleText = "La inteligencia artificial es la simulación de procesos de inteligencia humana por parte de máquinas. " +
	"Estos procesos incluyen el aprendizaje, el razonamiento y la autocorrección de los sistemas informáticos."

type stubProvider struct{ results []search.Result }

func (stubProvider) Name() string { return "Google" }

func (p stubProvider) Search(context.Context, string) ([]search.Result, error) {
	return p.results, nil
}

func newTestServer(t *testing.T, a Analyzer) *httptest.Server {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	if a == nil {
		web := stubProvider{results: []search.Result{{
			URL:      "https://es.wikipedia.org/wiki/Inteligencia_artificial",
			Title:    "Inteligencia artificial - Wikipedia",
			Snippet:  "La inteligencia artificial es la simulación de procesos de inteligencia humana por parte de máquinas.",
			Provider: "Google",
		}}}
		cfg := orchestrator.DefaultConfig()
		cfg.Stagger = 0
		a = orchestrator.New(orchestrator.Backends{Web: web}, cfg, zap.NewNop(), m)
	}
	srv := httptest.NewServer(New(a, m, zap.NewNop(), 1<<20).Handler())
	t.Cleanup(srv.Close)
	return srv
}

type analyzerFunc func(context.Context, orchestrator.Request) (*orchestrator.Report, error)

func (f analyzerFunc) Run(ctx context.Context, req orchestrator.Request) (*orchestrator.Report, error) {
	return f(ctx, req)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestDetect_OK(t *testing.T) {
	srv := newTestServer(t, nil)
	body, _ := json.Marshal(map[string]string{"text": sampleText})

	resp := postJSON(t, srv.URL+"/detect-plagiarism", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	out := decode(t, resp)
	for _, k := range []string{"percentage", "sources", "documentContent", "analyzedContent",
		"aiGeneratedProbability", "aiAnalysisDetails", "searchStats"} {
		assert.Contains(t, out, k)
	}
	sources := out["sources"].([]any)
	require.Len(t, sources, 1)
	assert.Equal(t, "Google", sources[0].(map[string]any)["source"])
	assert.Positive(t, out["percentage"].(float64))
}

func TestDetect_MissingText(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, body := range []string{`{}`, `{"text": ""}`, `{"text": null}`} {
		resp := postJSON(t, srv.URL+"/detect-plagiarism", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, msgTextRequired, decode(t, resp)["error"])
	}
}

func TestDetect_MalformedJSON(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := postJSON(t, srv.URL+"/detect-plagiarism", `{"text": `)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	out := decode(t, resp)
	assert.NotEmpty(t, out["error"])
	assert.Equal(t, noteRequest, out["note"])
}

func TestDetect_PanicBecomes500(t *testing.T) {
	srv := newTestServer(t, analyzerFunc(func(context.Context, orchestrator.Request) (*orchestrator.Report, error) {
		panic("boom")
	}))
	resp := postJSON(t, srv.URL+"/detect-plagiarism", `{"text": "hola"}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, "boom", out["error"])
	assert.Equal(t, noteUnexpected, out["note"])
}

func TestDetect_BodyTooLarge(t *testing.T) {
	srv := newTestServer(t, nil)
	big := `{"text": "` + strings.Repeat("a", 1<<20+100) + `"}`
	resp := postJSON(t, srv.URL+"/detect-plagiarism", big)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t, nil)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/detect-plagiarism", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestRequestID_Propagated(t *testing.T) {
	srv := newTestServer(t, nil)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "ok", decode(t, resp)["status"])
}

func multipartFile(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCheckFile_Text(t *testing.T) {
	srv := newTestServer(t, nil)
	body, ct := multipartFile(t, "trabajo.txt", "text/plain", []byte(sampleText))
	resp, err := http.Post(srv.URL+"/check-file", ct, body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, decode(t, resp)["documentContent"], "La inteligencia artificial")
}

func TestCheckFile_ExtractionFailure(t *testing.T) {
	srv := newTestServer(t, nil)
	body, ct := multipartFile(t, "roto.pdf", "application/pdf", []byte("not a pdf"))
	resp, err := http.Post(srv.URL+"/check-file", ct, body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decode(t, resp)["error"], "roto.pdf")
}

func TestCheckFile_MissingFile(t *testing.T) {
	srv := newTestServer(t, nil)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/check-file", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, msgFileRequired, decode(t, resp)["error"])
}

func TestReportDOCX(t *testing.T) {
	srv := newTestServer(t, nil)
	rep := orchestrator.Report{
		Percentage: 42,
		Sources:    []orchestrator.ReportSource{{URL: "https://example.org/a", Title: "Fuente A", MatchPercentage: 70, Providers: []string{"Google"}}},
	}
	body, err := json.Marshal(rep)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/report.docx?title=Ensayo", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, docxContentType, resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	text, err := extract.Text(buf.Bytes(), docxContentType, "")
	require.NoError(t, err)
	assert.Contains(t, text, "Plagiarism: 42%")
	assert.Contains(t, text, "Ensayo")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	body, _ := json.Marshal(map[string]string{"text": sampleText})
	decode(t, postJSON(t, srv.URL+"/detect-plagiarism", string(body)))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "plagcheck_analysis_states_total")
}

package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"plagcheck/internal/config"
	"plagcheck/internal/extract"
	"plagcheck/internal/search"
)

const keywordText = "La inteligencia artificial es la simulación de procesos de inteligencia humana por parte de máquinas. " +
	"Su estudio combina estadística y lógica formal para resolver problemas complejos de manera automática."

func TestValidateQuery(t *testing.T) {
	cases := []struct {
		in     string
		ok     bool
		reason string
	}{
		{"", false, "empty"},
		{"   ", false, "empty"},
		{"123 456 !!!", false, "no words detected"},
		{"ab cd ef 12", false, "no real word token found"},
		{"abc 1234567890 1234567890", false, "too many non-letter characters"},
		{"solo dos", false, "too few words"},
		{"un texto breve válido", true, ""},
	}
	for _, c := range cases {
		ok, reason := validateQuery(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.reason, reason, c.in)
	}
}

func TestReadMultiline(t *testing.T) {
	var prompts bytes.Buffer
	r := bufio.NewReader(strings.NewReader("\n\nprimera línea\r\nsegunda línea\n\nresto"))

	got, eof, err := readMultiline(r, &prompts)
	require.NoError(t, err)
	assert.False(t, eof)
	assert.Equal(t, "primera línea\nsegunda línea", got)
	assert.Equal(t, "> > ", prompts.String())

	got, eof, err = readMultiline(r, &prompts)
	require.NoError(t, err)
	assert.True(t, eof)
	assert.Equal(t, "resto", got)
}

func TestPromptText_RetriesUntilValid(t *testing.T) {
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader("12345\n\nun texto que sí vale\n\n"))
	got, err := promptText(in, &out)
	require.NoError(t, err)
	assert.Equal(t, "un texto que sí vale", got)
	assert.Contains(t, out.String(), "Invalid input (no words detected)")
}

func TestPromptText_InvalidAtEOF(t *testing.T) {
	_, err := promptText(bufio.NewReader(strings.NewReader("!!")), &bytes.Buffer{})
	assert.EqualError(t, err, "invalid input: no words detected")
}

// offlineEnv disables every network backend so only the keyword index
// can answer.
func offlineEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for k, v := range map[string]string{
		config.FileEnv:        "",
		"SEARCH_WEB":          "false",
		"SEARCH_SCHOLAR":      "false",
		"SEARCH_NEWS":         "false",
		"KEYWORD_FALLBACK":    "true",
		"SEARCH_STAGGER":      "0",
		"CACHE_TTL":           "0s",
		"REDIS_ADDR":          "",
		"DEEPSEEK_API_KEY":    "",
		"WOWINSTON_API_KEY":   "",
		"DETECTINGAI_API_KEY": "",
		"OPENAI_API_KEY":      "",
		"LOG_LEVEL":           "error",
	} {
		t.Setenv(k, v)
	}
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCheck_StdinSummary(t *testing.T) {
	offlineEnv(t)
	out, prompts, err := runCLI(t, keywordText+"\n\n", "check")
	require.NoError(t, err)
	assert.Contains(t, prompts, "Submit with a blank line.")
	assert.Contains(t, out, "Plagiarism:")
	assert.Contains(t, out, "https://es.wikipedia.org/wiki/Inteligencia_artificial")
	assert.Contains(t, out, "via Keyword Index")
}

func TestCheck_FileJSONAndDOCX(t *testing.T) {
	offlineEnv(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "ensayo.txt")
	require.NoError(t, os.WriteFile(in, []byte(keywordText), 0o644))
	docxPath := filepath.Join(dir, "informe.docx")

	out, _, err := runCLI(t, "", "check", in, "--json", "--docx", docxPath)
	require.NoError(t, err)

	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	sources := rep["sources"].([]any)
	require.NotEmpty(t, sources)
	assert.Equal(t, "Keyword Index", sources[0].(map[string]any)["source"])

	data, err := os.ReadFile(docxPath)
	require.NoError(t, err)
	text, err := extract.Text(data, "", "informe.docx")
	require.NoError(t, err)
	assert.Contains(t, text, "ensayo.txt")
	assert.Contains(t, text, "Inteligencia artificial - Wikipedia")
}

func TestCheck_UnsupportedFile(t *testing.T) {
	offlineEnv(t)
	path := filepath.Join(t.TempDir(), "foto.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o644))

	_, _, err := runCLI(t, "", "check", path)
	var ee *extract.ExtractionError
	assert.ErrorAs(t, err, &ee)
}

func TestNewService_Backends(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.TTL = 0
	cfg.Search.News = true
	cfg.APIs.OpenAIKey = "sk-test"
	cfg.APIs.WowinstonKey = "w-test"

	svc, err := NewService(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer svc.Close()

	b := svc.Backends
	require.NotNil(t, b.Web)
	require.NotNil(t, b.Scholar)
	assert.Equal(t, "Google", b.Web.Name())
	assert.Equal(t, "Google Scholar", b.Scholar.Name())
	assert.Equal(t, []string{"Google News", "Wowinston.AI", "OpenAI"}, providerNames(b.Document))
	assert.IsType(t, &search.Breaker{}, b.Web)
	assert.Equal(t, search.Keyword{}, b.Fallback)
	assert.NotNil(t, svc.Orchestrator)
}

func TestNewService_FileCacheWrapsProviders(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.json")
	cfg.Search.Scholar = false
	cfg.Search.Fallback = false

	svc, err := NewService(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &search.Cached{}, svc.Backends.Web)
	assert.Nil(t, svc.Backends.Scholar)
	assert.Nil(t, svc.Backends.Fallback)
	assert.Empty(t, svc.Backends.Document)
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(config.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	_, err = NewLogger(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

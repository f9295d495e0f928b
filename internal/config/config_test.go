package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	FileEnv, "PLAGCHECK_ADDR", "LOG_LEVEL", "LOG_FORMAT", "SEARCH_TIMEOUT", "SEARCH_STAGGER",
	"RATE_MIN_DELAY", "RATE_MAX_DELAY", "SEARCH_LOCALE_HL", "SEARCH_LOCALE_GL", "SEARCH_FILLER",
	"SEARCH_WEB", "SEARCH_SCHOLAR", "SEARCH_NEWS", "KEYWORD_FALLBACK", "PROXY_SERVICE", "PROXY_API_KEY",
	"DEEPSEEK_API_KEY", "WOWINSTON_API_KEY", "DETECTINGAI_API_KEY", "OPENAI_API_KEY", "CACHE_PATH",
	"CACHE_TTL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "BREAKER_MAX_FAILURES", "BREAKER_COOLDOWN",
	"API_RATE_PER_SEC", "MAX_UPLOAD_BYTES",
}

// cleanEnv runs the test from an empty directory with every key unset.
func cleanEnv(t *testing.T) string {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("PLAGCHECK_ADDR", ":8080")
	t.Setenv("SEARCH_STAGGER", "0")
	t.Setenv("SEARCH_TIMEOUT", "3s")
	t.Setenv("SEARCH_SCHOLAR", "false")
	t.Setenv("SEARCH_NEWS", "1")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("API_RATE_PER_SEC", "0.5")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, time.Duration(0), cfg.Search.Stagger)
	assert.Equal(t, 3*time.Second, cfg.Search.Timeout)
	assert.False(t, cfg.Search.Scholar)
	assert.True(t, cfg.Search.News)
	assert.Equal(t, "sk-test", cfg.APIs.OpenAIKey)
	assert.Equal(t, 2, cfg.Cache.RedisDB)
	assert.InDelta(t, 0.5, cfg.Search.APIPerSec, 1e-9)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := cleanEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DEEPSEEK_API_KEY=from-dotenv\n"), 0o644))
	// godotenv never overrides variables that are already set, even to "".
	require.NoError(t, os.Unsetenv("DEEPSEEK_API_KEY"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.APIs.DeepSeekKey)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	dir := cleanEnv(t)
	path := filepath.Join(dir, "plagcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
search:
  timeout: 20s
  gl: mx
  news: true
cache:
  path: /tmp/plagcheck-cache.json
  ttl: 1h
`), 0o644))
	t.Setenv(FileEnv, path)
	t.Setenv("SEARCH_LOCALE_GL", "ar")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 20*time.Second, cfg.Search.Timeout)
	assert.Equal(t, "ar", cfg.Search.GL, "environment wins over the file")
	assert.True(t, cfg.Search.News)
	assert.True(t, cfg.Search.Web, "unset keys keep their defaults")
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
}

func TestLoad_BadValues(t *testing.T) {
	cleanEnv(t)
	t.Setenv("SEARCH_TIMEOUT", "soon")
	t.Setenv("SEARCH_WEB", "maybe")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEARCH_TIMEOUT")
	assert.Contains(t, err.Error(), "SEARCH_WEB")
}

func TestLoad_MissingYAML(t *testing.T) {
	cleanEnv(t)
	t.Setenv(FileEnv, "does-not-exist.yaml")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_Clamps(t *testing.T) {
	cfg := Default()
	cfg.Addr = " "
	cfg.Search.MinDelay = -time.Second
	cfg.Search.MaxDelay = -2 * time.Second
	cfg.Search.Stagger = -time.Second
	cfg.Search.Timeout = 0
	cfg.Search.Breaker.MaxFailures = 0
	cfg.MaxUploadBytes = -1
	cfg.Log.Format = "xml"

	cfg.Validate()
	d := Default()
	assert.Equal(t, d.Addr, cfg.Addr)
	assert.Equal(t, time.Duration(0), cfg.Search.MinDelay)
	assert.Equal(t, time.Duration(0), cfg.Search.MaxDelay)
	assert.Equal(t, time.Duration(0), cfg.Search.Stagger)
	assert.Equal(t, d.Search.Timeout, cfg.Search.Timeout)
	assert.Equal(t, d.Search.Breaker.MaxFailures, cfg.Search.Breaker.MaxFailures)
	assert.Equal(t, d.MaxUploadBytes, cfg.MaxUploadBytes)
	assert.Equal(t, "console", cfg.Log.Format)

	cfg.Search.MinDelay = 3 * time.Second
	cfg.Search.MaxDelay = time.Second
	cfg.Validate()
	assert.Equal(t, 3*time.Second, cfg.Search.MaxDelay)
}

func TestGetenvDuration_Milliseconds(t *testing.T) {
	t.Setenv("X_DELAY", "600")
	d, err := getenvDuration("X_DELAY", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 600*time.Millisecond, d)
}

package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProvider struct {
	name    string
	results []Result
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(context.Context, string) ([]Result, error) {
	s.calls++
	return s.results, s.err
}

func TestFileCache_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	ctx := context.Background()

	c := NewFileCache(path, time.Hour)
	require.NoError(t, c.Put(ctx, "k", []Result{{URL: "https://a.example.com", Title: "A"}}))

	reopened := NewFileCache(path, time.Hour)
	got, ok := reopened.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "https://a.example.com", got[0].URL)
}

func TestFileCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewFileCache("", time.Minute)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }
	require.NoError(t, c.Put(ctx, "k", []Result{{URL: "u"}}))

	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	c.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCached_HitSkipsProvider(t *testing.T) {
	ctx := context.Background()
	p := &stubProvider{name: "Google", results: []Result{{URL: "https://a.example.com"}}}
	c := NewCached(p, NewFileCache("", 0), zap.NewNop())

	_, err := c.Search(ctx, "Hola, Mundo")
	require.NoError(t, err)
	got, err := c.Search(ctx, "hola mundo")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, p.calls)
}

func TestCached_EmptyAndErrorsNotStored(t *testing.T) {
	ctx := context.Background()
	p := &stubProvider{name: "Google"}
	c := NewCached(p, NewFileCache("", 0), nil)

	_, _ = c.Search(ctx, "q")
	p.err = errors.New("boom")
	_, err := c.Search(ctx, "q")
	assert.Error(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "Google|hola mundo", cacheKey("Google", "  ¡Hola,   MUNDO! "))
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	p := &stubProvider{name: "Google", err: &SearchError{Backend: "Google", Status: 503}}
	b := NewBreaker(p, 2, time.Hour, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := b.Search(ctx, "q")
		assert.Error(t, err)
	}
	_, err := b.Search(ctx, "q")
	assert.Equal(t, "open", Outcome(err))
	assert.Equal(t, 2, p.calls)
	assert.Equal(t, "Google", b.Name())
}

func TestBreaker_PassesResults(t *testing.T) {
	p := &stubProvider{name: "Google", results: []Result{{URL: "u"}}}
	got, err := NewBreaker(p, 1, time.Second, nil).Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestKeyword_Search(t *testing.T) {
	got, err := Keyword{}.Search(context.Background(), "Sobre la Inteligencia Artificial y el algoritmo de búsqueda")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://es.wikipedia.org/wiki/Inteligencia_artificial", got[0].URL)
	assert.Equal(t, "Keyword Index", got[0].Provider)
	assert.Equal(t, 2, got[1].Position)

	got, _ = Keyword{}.Search(context.Background(), "nada que ver")
	assert.Empty(t, got)
}

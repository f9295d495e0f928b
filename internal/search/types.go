package search

import "context"

// MaxResults caps how many results one provider call may return.
const MaxResults = 10

// Result is one hit returned by a provider for one query.
type Result struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Provider string `json:"provider"`
	Position int    `json:"position"`
	// Score is a provider-reported match in 0..100; zero when the provider has none.
	Score int `json:"score,omitempty"`
}

// Provider is one search or detection backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]Result, error)
}

// finalize caps the list and stamps provider name and 1-based positions.
func finalize(in []Result, provider string) []Result {
	if len(in) > MaxResults {
		in = in[:MaxResults]
	}
	for i := range in {
		in[i].Provider = provider
		in[i].Position = i + 1
	}
	return in
}

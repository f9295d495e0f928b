package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// apiQueryLen is how much of the document is sent to detection APIs.
const apiQueryLen = 1000

// apiClient is the JSON-over-HTTP plumbing shared by the API providers.
type apiClient struct {
	Client   *http.Client
	Endpoint string
	APIKey   string
	Limiter  *rate.Limiter
}

func newAPIClient(endpoint, key string, limiter *rate.Limiter) apiClient {
	return apiClient{
		Client:   &http.Client{Timeout: 30 * time.Second},
		Endpoint: endpoint,
		APIKey:   key,
		Limiter:  limiter,
	}
}

// NewAPILimiter paces all API providers together at perSecond requests.
func NewAPILimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

func (c apiClient) post(ctx context.Context, backend string, headers map[string]string, payload, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return &SearchError{Backend: backend, Err: err}
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &SearchError{Backend: backend, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return &SearchError{Backend: backend, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return &SearchError{Backend: backend, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &SearchError{
			Backend: backend,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("%s api: %s", backend, errorBody(resp)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &SearchError{Backend: backend, Err: fmt.Errorf("decode reply: %w", err)}
	}
	return nil
}

func ratioScore(v float64) int {
	return int(math.Max(0, math.Min(100, math.Round(v*100))))
}

// ---------- DeepSeek ----------

type DeepSeek struct{ apiClient }

func NewDeepSeek(key string, limiter *rate.Limiter) *DeepSeek {
	return &DeepSeek{newAPIClient("https://api.deepseek.com/v1/search", key, limiter)}
}

func (d *DeepSeek) Name() string { return "DeepSeek-R1" }

type deepSeekReply struct {
	Results []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

func (d *DeepSeek) Search(ctx context.Context, text string) ([]Result, error) {
	var reply deepSeekReply
	err := d.post(ctx, d.Name(),
		map[string]string{"Authorization": "Bearer " + d.APIKey},
		map[string]any{
			"query":        truncateRunes(text, apiQueryLen),
			"max_results":  5,
			"search_depth": "comprehensive",
		},
		&reply,
	)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(reply.Results))
	for _, r := range reply.Results {
		out = append(out, Result{URL: r.URL, Title: r.Title, Snippet: r.Snippet})
	}
	return finalize(out, d.Name()), nil
}

// ---------- Wowinston ----------

type Wowinston struct{ apiClient }

func NewWowinston(key string, limiter *rate.Limiter) *Wowinston {
	return &Wowinston{newAPIClient("https://api.wowinston.ai/v1/plagiarism/check", key, limiter)}
}

func (w *Wowinston) Name() string { return "Wowinston.AI" }

type wowinstonReply struct {
	Sources []struct {
		URL        string  `json:"url"`
		Title      string  `json:"title"`
		Similarity float64 `json:"similarity"`
		Snippet    string  `json:"snippet"`
	} `json:"sources"`
}

func (w *Wowinston) Search(ctx context.Context, text string) ([]Result, error) {
	var reply wowinstonReply
	err := w.post(ctx, w.Name(),
		map[string]string{"Authorization": "Bearer " + w.APIKey},
		map[string]any{
			"text":         truncateRunes(text, apiQueryLen),
			"language":     "es",
			"detail_level": "high",
		},
		&reply,
	)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(reply.Sources))
	for _, s := range reply.Sources {
		out = append(out, Result{URL: s.URL, Title: s.Title, Snippet: s.Snippet, Score: ratioScore(s.Similarity)})
	}
	return finalize(out, w.Name()), nil
}

// ---------- Detecting-AI ----------

type DetectingAI struct{ apiClient }

func NewDetectingAI(key string, limiter *rate.Limiter) *DetectingAI {
	return &DetectingAI{newAPIClient("https://api.detecting-ai.com/v1/plagiarism", key, limiter)}
}

func (d *DetectingAI) Name() string { return "Detecting-AI" }

type detectingAIReply struct {
	Sources []struct {
		URL        string  `json:"url"`
		Title      string  `json:"title"`
		MatchScore float64 `json:"match_score"`
		Excerpt    string  `json:"excerpt"`
	} `json:"sources"`
}

func (d *DetectingAI) Search(ctx context.Context, text string) ([]Result, error) {
	var reply detectingAIReply
	err := d.post(ctx, d.Name(),
		map[string]string{"X-API-Key": d.APIKey},
		map[string]any{
			"content":         truncateRunes(text, apiQueryLen),
			"search_depth":    "full",
			"include_sources": true,
		},
		&reply,
	)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(reply.Sources))
	for _, s := range reply.Sources {
		out = append(out, Result{URL: s.URL, Title: s.Title, Snippet: s.Excerpt, Score: ratioScore(s.MatchScore)})
	}
	return finalize(out, d.Name()), nil
}

// ---------- OpenAI ----------

const (
	openAIModel     = "gpt-3.5-turbo"
	openAIMaxURLs   = 5
	openAIContext   = 100
	openAIBaseScore = 70
	openAIPrompt    = "Eres un asistente experto en detectar plagio. Analiza este texto y proporciona 3 posibles fuentes " +
		"académicas o web de donde podría provenir (título, URL y un fragmento). Si no encuentras coincidencias, indica que parece original."
)

var (
	reSuggestedURL = regexp.MustCompile(`(?:https?://[^\s]+)|(?:www\.[^\s]+)`)
	reQuoted       = regexp.MustCompile(`["']([^"']*)["']`)
)

// OpenAI asks a chat model for likely sources and reads URLs out of its answer.
type OpenAI struct{ apiClient }

func NewOpenAI(key string, limiter *rate.Limiter) *OpenAI {
	return &OpenAI{newAPIClient("https://api.openai.com/v1/chat/completions", key, limiter)}
}

func (o *OpenAI) Name() string { return "OpenAI" }

type chatReply struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) Search(ctx context.Context, text string) ([]Result, error) {
	var reply chatReply
	err := o.post(ctx, o.Name(),
		map[string]string{"Authorization": "Bearer " + o.APIKey},
		map[string]any{
			"model": openAIModel,
			"messages": []map[string]string{
				{"role": "system", "content": openAIPrompt},
				{"role": "user", "content": truncateRunes(text, apiQueryLen)},
			},
			"temperature": 0.3,
		},
		&reply,
	)
	if err != nil {
		return nil, err
	}
	if len(reply.Choices) == 0 {
		return nil, nil
	}
	return finalize(suggestedSources(reply.Choices[0].Message.Content), o.Name()), nil
}

// suggestedSources turns URLs mentioned in a model answer into results,
// scored by order of appearance.
func suggestedSources(answer string) []Result {
	var out []Result
	for i, loc := range reSuggestedURL.FindAllStringIndex(answer, openAIMaxURLs) {
		raw := strings.TrimRight(answer[loc[0]:loc[1]], `.,;:!?)'"`)
		u := raw
		if !strings.HasPrefix(u, "http") {
			u = "https://" + u
		}

		start := max(0, loc[0]-openAIContext)
		end := min(len(answer), loc[0]+openAIContext)
		around := strings.ToValidUTF8(answer[start:end], "")

		title := fmt.Sprintf("Fuente OpenAI %d", i+1)
		if m := reQuoted.FindStringSubmatch(around); m != nil && strings.TrimSpace(m[1]) != "" {
			title = strings.TrimSpace(m[1])
		}
		snippet := strings.TrimSpace(reQuoted.ReplaceAllString(around, ""))

		out = append(out, Result{
			URL:     u,
			Title:   title,
			Snippet: cleanText(snippet),
			Score:   openAIBaseScore - i*10,
		})
	}
	return out
}

package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"plagcheck/internal/disguise"
)

// DefaultTimeout bounds one fetch, rate limiting excluded.
const DefaultTimeout = 15 * time.Second

// Variant selects which results page a Google provider scrapes.
type Variant int

const (
	Web Variant = iota
	Scholar
)

func (v Variant) String() string {
	if v == Scholar {
		return "Google Scholar"
	}
	return "Google"
}

// Google scrapes a Google results page for one query.
type Google struct {
	Client  *http.Client
	Variant Variant
	// BaseURL replaces the search endpoint; tests point it at httptest.
	BaseURL string
	HL      string
	GL      string
	Timeout time.Duration

	Disguise   *disguise.Disguiser
	Limiter    *disguise.RateLimiter
	Proxy      *Proxy
	Strategies []Strategy
	Logger     *zap.Logger
}

func NewGoogle(variant Variant, d *disguise.Disguiser, limiter *disguise.RateLimiter, logger *zap.Logger) *Google {
	if logger == nil {
		logger = zap.NewNop()
	}
	if d == nil {
		d = disguise.New(nil, "")
	}
	chain := WebStrategies
	base := googleOrigin + "/search"
	if variant == Scholar {
		chain = ScholarStrategies
		base = scholarOrigin + "/scholar"
	}
	return &Google{
		Client:     &http.Client{Timeout: 2 * DefaultTimeout},
		Variant:    variant,
		BaseURL:    base,
		HL:         "es",
		GL:         "es",
		Timeout:    DefaultTimeout,
		Disguise:   d,
		Limiter:    limiter,
		Strategies: chain,
		Logger:     logger.Named("search").With(zap.String("provider", variant.String())),
	}
}

func (g *Google) Name() string { return g.Variant.String() }

func (g *Google) Search(ctx context.Context, fragment string) ([]Result, error) {
	query, variation := g.Disguise.Vary(fragment)

	if g.Limiter != nil {
		if err := g.Limiter.Acquire(ctx); err != nil {
			return nil, &SearchError{Backend: g.Name(), Err: err}
		}
	}

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := g.buildURL(query)
	fp := g.Disguise.Fingerprint()
	headers := fp.Headers()
	if g.Proxy.Enabled() {
		target = g.Proxy.Wrap(target)
		headers = fp.ProxyHeaders()
	}

	g.Logger.Debug("fetching results page",
		zap.String("variation", string(variation)),
		zap.Bool("proxied", g.Proxy.Enabled()),
	)

	raw, err := g.fetch(tctx, target, headers)
	if err != nil {
		if errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &TimeoutError{Backend: g.Name(), After: timeout}
		}
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &SearchError{Backend: g.Name(), Err: fmt.Errorf("parse html: %w", err)}
	}
	if ind, blocked := detectBlock(string(raw), doc); blocked {
		return nil, &BlockedError{Backend: g.Name(), Indicator: ind}
	}

	results, strategy := RunChain(doc, g.Strategies)
	g.Logger.Debug("parsed results page",
		zap.String("strategy", strategy),
		zap.Int("results", len(results)),
	)
	return finalize(results, g.Name()), nil
}

func (g *Google) fetch(ctx context.Context, target string, headers http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &SearchError{Backend: g.Name(), Err: err}
	}
	req.Header = headers

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, &SearchError{Backend: g.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SearchError{
			Backend: g.Name(),
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("unexpected reply: %s", errorBody(resp)),
		}
	}

	raw, err := readBody(resp)
	if err != nil {
		return nil, &SearchError{Backend: g.Name(), Err: err}
	}
	return raw, nil
}

func (g *Google) buildURL(query string) string {
	if g.Variant == Scholar {
		return fmt.Sprintf("%s?q=%s&hl=%s",
			g.BaseURL,
			url.QueryEscape(query),
			url.QueryEscape(g.HL),
		)
	}
	return fmt.Sprintf("%s?q=%s&hl=%s&gl=%s&pws=0&source=hp&ei=%s&start=0",
		g.BaseURL,
		url.QueryEscape(query),
		url.QueryEscape(g.HL),
		url.QueryEscape(g.GL),
		g.Disguise.Decoy(),
	)
}

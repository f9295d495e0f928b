package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

const newsKeywords = 8

// News searches the Google News RSS endpoint with the document's leading
// keywords. It runs once per document, not per fragment.
type News struct {
	Client  *http.Client
	BaseURL string
	Lang    string
	Country string
	Logger  *zap.Logger
}

func NewNews(lang, country string, logger *zap.Logger) *News {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &News{
		Client:  &http.Client{Timeout: 20 * time.Second},
		BaseURL: "https://news.google.com/rss/search",
		Lang:    lang,
		Country: country,
		Logger:  logger.Named("search").With(zap.String("provider", "Google News")),
	}
}

func (n *News) Name() string { return "Google News" }

func (n *News) Search(ctx context.Context, text string) ([]Result, error) {
	keywords := searchKeywords(text, newsKeywords)
	if len(keywords) == 0 {
		return nil, nil
	}

	hl, gl, ceid := newsParams(n.Country, n.Lang)
	u := fmt.Sprintf("%s?q=%s&hl=%s&gl=%s&ceid=%s",
		n.BaseURL,
		url.QueryEscape(strings.Join(keywords, " ")),
		url.QueryEscape(hl),
		url.QueryEscape(gl),
		url.QueryEscape(ceid),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &SearchError{Backend: n.Name(), Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 plagcheck/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.1")

	resp, err := n.Client.Do(req)
	if err != nil {
		return nil, &SearchError{Backend: n.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SearchError{
			Backend: n.Name(),
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("google news rss: %s", errorBody(resp)),
		}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, &SearchError{Backend: n.Name(), Err: fmt.Errorf("parse feed: %w", err)}
	}

	out := make([]Result, 0, MaxResults)
	seen := map[string]bool{}
	for _, it := range feed.Items {
		if len(out) >= MaxResults {
			break
		}
		link := itemURL(it)
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true
		out = append(out, Result{
			Title:   cleanText(it.Title),
			URL:     link,
			Snippet: htmlText(it.Description),
		})
	}

	n.Logger.Debug("news feed searched", zap.Strings("keywords", keywords), zap.Int("results", len(out)))
	return finalize(out, n.Name()), nil
}

// itemURL picks the best article URL for a feed item: a publisher link in
// the description, then an unwrapped wrapper link, then the raw link.
func itemURL(it *gofeed.Item) string {
	if it.Description != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(it.Description)); err == nil {
			var found string
			doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
				href, _ := a.Attr("href")
				if isExternalURL(href) {
					found = href
					return false
				}
				return true
			})
			if found != "" {
				return found
			}
		}
	}

	link := strings.TrimSpace(it.Link)
	if target := unwrapRedirect(link); target != "" && isExternalURL(target) {
		return target
	}
	if isAbsoluteHTTP(link) {
		return link
	}
	return ""
}

// htmlText strips markup from a feed description.
func htmlText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return cleanText(s)
	}
	return cleanText(doc.Text())
}

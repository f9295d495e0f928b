package search

import (
	"fmt"
	"net/url"
	"strings"
)

// Proxy routes scraping requests through a hosted scraping API.
type Proxy struct {
	Service string // scraperapi, scrapeninja or scrapeops
	APIKey  string
}

func (p *Proxy) Enabled() bool {
	return p != nil && strings.TrimSpace(p.APIKey) != ""
}

// Wrap returns the proxy URL that fetches target on our behalf.
func (p *Proxy) Wrap(target string) string {
	key := url.QueryEscape(p.APIKey)
	u := url.QueryEscape(target)
	switch strings.ToLower(strings.TrimSpace(p.Service)) {
	case "scraperapi":
		return fmt.Sprintf("http://api.scraperapi.com?api_key=%s&url=%s", key, u)
	case "scrapeninja":
		return fmt.Sprintf("https://api.scrapeninja.net/scrape?api_key=%s&url=%s", key, u)
	default:
		return fmt.Sprintf("https://proxy.scrapeops.io/v1/?api_key=%s&url=%s&residential=true", key, u)
	}
}

package disguise

import (
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// MinVariableLen is the shortest query (in characters) that may be rephrased.
	MinVariableLen = 10
	// KeepProbability is the chance a long enough query is sent unchanged.
	KeepProbability = 0.3
	// DefaultFiller is appended by the filler variation.
	DefaultFiller = "información"
)

// Variation names one rephrasing applied by Disguiser.Vary.
type Variation string

const (
	Unchanged Variation = "unchanged"
	Quoted    Variation = "quoted"
	Lowercase Variation = "lowercase"
	Filler    Variation = "filler"
	Swapped   Variation = "swapped"
)

var variations = []Variation{Quoted, Lowercase, Filler, Swapped}

// Fingerprint is one randomly drawn browser identity.
type Fingerprint struct {
	UserAgent      string
	AcceptLanguage string
	Browser        Browser
	Cookie         string
}

// Disguiser draws query variants and request fingerprints from fixed pools.
// All randomness comes from the injected source so tests can seed it.
type Disguiser struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	filler string
}

func New(src rand.Source, filler string) *Disguiser {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	if strings.TrimSpace(filler) == "" {
		filler = DefaultFiller
	}
	return &Disguiser{
		rnd:    rand.New(src),
		filler: filler,
	}
}

// Vary returns a rephrased query and the variation used.
func (d *Disguiser) Vary(query string) (string, Variation) {
	if utf8.RuneCountInString(query) < MinVariableLen {
		return query, Unchanged
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rnd.Float64() < KeepProbability {
		return query, Unchanged
	}

	v := variations[d.rnd.Intn(len(variations))]
	switch v {
	case Quoted:
		return `"` + query + `"`, v
	case Lowercase:
		return strings.ToLower(query), v
	case Filler:
		return query + " " + d.filler, v
	case Swapped:
		words := strings.Fields(query)
		if len(words) <= 3 {
			return query, Unchanged
		}
		for i := 0; i < min(2, len(words)-1); i++ {
			a := d.rnd.Intn(len(words))
			b := d.rnd.Intn(len(words))
			words[a], words[b] = words[b], words[a]
		}
		return strings.Join(words, " "), v
	}
	return query, Unchanged
}

// Fingerprint draws each component independently and uniformly.
func (d *Disguiser) Fingerprint() Fingerprint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Fingerprint{
		UserAgent:      userAgents[d.rnd.Intn(len(userAgents))],
		AcceptLanguage: acceptLanguages[d.rnd.Intn(len(acceptLanguages))],
		Browser:        browsers[d.rnd.Intn(len(browsers))],
		Cookie:         consentCookies[d.rnd.Intn(len(consentCookies))],
	}
}

// Decoy returns a pseudo-random "ei" parameter value.
func (d *Disguiser) Decoy() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fmt.Sprintf("a%db", d.rnd.Intn(10000))
}

// Intn exposes the shared source for callers that need extra jitter.
func (d *Disguiser) Intn(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rnd.Intn(n)
}

// Headers is the full browser-like header set for a direct request.
func (f Fingerprint) Headers() http.Header {
	platform := strings.TrimSpace(strings.Split(f.Browser.Platform, ";")[0])

	h := http.Header{}
	h.Set("User-Agent", f.UserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", f.AcceptLanguage)
	// No "br": the body is decoded by hand and only gzip/deflate are handled.
	h.Set("Accept-Encoding", "gzip, deflate")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Cache-Control", "max-age=0")
	h.Set("Referer", "https://www.google.com/")
	h.Set("DNT", "1")
	h.Set("Sec-CH-UA", fmt.Sprintf(`"%s";v="%s", "Not(A:Brand";v="24"`, f.Browser.Name, f.Browser.Version))
	h.Set("Sec-CH-UA-Mobile", "?0")
	h.Set("Sec-CH-UA-Platform", `"`+platform+`"`)
	h.Set("Cookie", f.Cookie)
	return h
}

// ProxyHeaders is the reduced set sent when a scraping proxy fetches for us.
func (f Fingerprint) ProxyHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", f.UserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	return h
}

package search

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	containerSelector = "div.g, div[data-hveid], div.MjjYud, div.Gx5Zad, div.tF2Cxc, div.yuRUbf"
	linkSelector      = `a[href^="http"], a[href^="/url"]`
	snippetSelector   = ".VwiC3b, .lyLwlc, .IsZvec"
	captchaSelector   = "form#captcha-form, div.g-recaptcha, #recaptcha"

	minSnippetLen = 20
	maxSnippetLen = 200
	ancestorDepth = 3
)

// Titles that belong to page furniture rather than organic results.
var boilerplateTitles = []string{
	"people also ask",
	"related searches",
	"preguntas relacionadas",
	"búsquedas relacionadas",
	"otras preguntas de los usuarios",
}

// Strategy is one way of reading results out of a parsed results page.
type Strategy struct {
	Name    string
	Extract func(doc *goquery.Document) []Result
}

// WebStrategies is the fallback chain for the general web results page.
var WebStrategies = []Strategy{
	{Name: "containers", Extract: containerResults},
	{Name: "headings", Extract: headingResults},
	{Name: "links", Extract: linkResults},
}

// ScholarStrategies is the chain for the academic results page. The
// generic ones follow in case the scholar markup drifts.
var ScholarStrategies = []Strategy{
	{Name: "scholar", Extract: scholarResults},
	{Name: "headings", Extract: headingResults},
	{Name: "links", Extract: linkResults},
}

// RunChain tries each strategy in order and returns the first non-empty
// result set together with the name of the strategy that produced it.
func RunChain(doc *goquery.Document, chain []Strategy) ([]Result, string) {
	for _, s := range chain {
		if out := s.Extract(doc); len(out) > 0 {
			return out, s.Name
		}
	}
	return nil, ""
}

// collector dedupes and caps results for a single strategy run.
type collector struct {
	out       []Result
	seenURL   map[string]bool
	seenTitle map[string]bool
	urlOnly   bool
}

func newCollector(urlOnly bool) *collector {
	return &collector{
		seenURL:   map[string]bool{},
		seenTitle: map[string]bool{},
		urlOnly:   urlOnly,
	}
}

func (c *collector) add(r Result) {
	if c.full() || r.Title == "" || r.URL == "" || isBoilerplate(r.Title) {
		return
	}
	if c.seenURL[r.URL] || (!c.urlOnly && c.seenTitle[r.Title]) {
		return
	}
	c.seenURL[r.URL] = true
	c.seenTitle[r.Title] = true
	c.out = append(c.out, r)
}

func (c *collector) full() bool { return len(c.out) >= MaxResults }

func containerResults(doc *goquery.Document) []Result {
	c := newCollector(false)
	doc.Find(containerSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := cleanText(s.Find("h3").First().Text())
		href, ok := s.Find(linkSelector).First().Attr("href")
		if !ok {
			return true
		}
		c.add(Result{
			Title:   title,
			URL:     resolveResultURL(href, googleOrigin),
			Snippet: cleanText(s.Find(snippetSelector).First().Text()),
		})
		return !c.full()
	})
	return c.out
}

func headingResults(doc *goquery.Document) []Result {
	c := newCollector(false)
	doc.Find("h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		title := cleanText(h.Text())
		if title == "" {
			return true
		}

		var href string
		cur := h
		for i := 0; i < ancestorDepth; i++ {
			cur = cur.Parent()
			if cur.Length() == 0 {
				break
			}
			if v, ok := cur.Find(linkSelector).First().Attr("href"); ok {
				href = v
				break
			}
		}
		if href == "" {
			return true
		}

		var snippet string
		h.Parent().Find("div").EachWithBreak(func(_ int, d *goquery.Selection) bool {
			if d.Find("h3").Length() > 0 {
				return true
			}
			text := cleanText(d.Text())
			if text != title && utf8.RuneCountInString(text) > minSnippetLen {
				snippet = text
				return false
			}
			return true
		})

		c.add(Result{Title: title, URL: resolveResultURL(href, googleOrigin), Snippet: snippet})
		return !c.full()
	})
	return c.out
}

func linkResults(doc *goquery.Document) []Result {
	c := newCollector(true)
	doc.Find(linkSelector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if isGoogleInternal(href) {
			return true
		}
		target := resolveResultURL(href, googleOrigin)
		if target == "" {
			return true
		}

		linkText := cleanText(a.Text())
		title := linkText
		if n := utf8.RuneCountInString(linkText); n <= 5 || n >= 100 {
			title = ""
			cur := a
			for i := 0; i < ancestorDepth; i++ {
				cur = cur.Parent()
				if cur.Length() == 0 {
					break
				}
				if t := cur.Find("h3, h2, strong, b").First(); t.Length() > 0 {
					title = cleanText(t.Text())
					break
				}
			}
			if title == "" {
				title = hostLabel(target)
			}
		}

		var snippet string
		cur := a
		for i := 0; i < ancestorDepth; i++ {
			cur = cur.Parent()
			if cur.Length() == 0 {
				break
			}
			text := cleanText(cur.Text())
			text = strings.Replace(text, title, "", 1)
			if linkText != "" {
				text = strings.Replace(text, linkText, "", 1)
			}
			text = strings.TrimSpace(text)
			if utf8.RuneCountInString(text) > minSnippetLen {
				snippet = truncateRunes(text, maxSnippetLen)
				break
			}
		}

		c.add(Result{Title: title, URL: target, Snippet: snippet})
		return !c.full()
	})
	return c.out
}

func scholarResults(doc *goquery.Document) []Result {
	c := newCollector(false)
	doc.Find(".gs_ri").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		a := s.Find("h3 a").First()
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		c.add(Result{
			Title:   cleanText(a.Text()),
			URL:     resolveResultURL(href, scholarOrigin),
			Snippet: cleanText(s.Find(".gs_rs").First().Text()),
		})
		return !c.full()
	})
	return c.out
}

func isBoilerplate(title string) bool {
	lower := strings.ToLower(title)
	for _, b := range boilerplateTitles {
		if strings.Contains(lower, b) {
			return true
		}
	}
	return false
}

// cleanText trims and collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

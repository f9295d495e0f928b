package search

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Phrases that only show up on bot-detection pages. More specific phrases
// come first so the reported indicator is as precise as possible.
var blockIndicators = []string{
	"Our systems have detected unusual traffic",
	"Sorry, we couldn't process your request",
	"detected unusual traffic",
	"unusual traffic",
}

// captchaIndicator is also an ordinary word, so when the page is parsed it
// is only matched outside organic result containers.
const captchaIndicator = "captcha"

// detectBlock scans a fetched page for anti-automation markers. doc may be nil.
func detectBlock(html string, doc *goquery.Document) (string, bool) {
	lower := strings.ToLower(html)
	for _, ind := range blockIndicators {
		if strings.Contains(lower, strings.ToLower(ind)) {
			return ind, true
		}
	}
	if doc != nil {
		if doc.Find(captchaSelector).Length() > 0 {
			return captchaSelector, true
		}
		lower = strings.ToLower(outsideResults(doc))
	}
	if strings.Contains(lower, captchaIndicator) {
		return captchaIndicator, true
	}
	return "", false
}

// outsideResults renders a copy of the page without its result containers.
func outsideResults(doc *goquery.Document) string {
	page := doc.Selection.Clone()
	page.Find(containerSelector).Remove()
	h, err := goquery.OuterHtml(page)
	if err != nil {
		return ""
	}
	return h
}

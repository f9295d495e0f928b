package search

import (
	"net/url"
	"strings"
)

const (
	googleOrigin  = "https://www.google.com"
	scholarOrigin = "https://scholar.google.com"
)

// resolveResultURL turns an href from a results page into an absolute
// external URL. Relative "/url?" redirect wrappers are unwrapped through
// their q or url parameter. It returns "" when nothing usable remains.
func resolveResultURL(href, origin string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	if strings.HasPrefix(href, "/scholar") && origin == scholarOrigin {
		href = scholarOrigin + href
	}

	if strings.Contains(href, "/url?") {
		if strings.HasPrefix(href, "/") {
			href = googleOrigin + href
		}
		if target := unwrapRedirect(href); target != "" {
			href = target
		}
	}

	if !isAbsoluteHTTP(href) {
		return ""
	}
	return href
}

// unwrapRedirect pulls the embedded target out of a redirect wrapper URL.
func unwrapRedirect(wrapper string) string {
	parsed, err := url.Parse(wrapper)
	if err != nil {
		return ""
	}

	for _, param := range []string{"q", "url", "u", "link"} {
		if val := strings.TrimSpace(parsed.Query().Get(param)); val != "" && isAbsoluteHTTP(val) {
			return val
		}
	}
	return ""
}

// isAbsoluteHTTP checks for an http(s) URL with a host.
func isAbsoluteHTTP(urlStr string) bool {
	if !strings.HasPrefix(urlStr, "http://") && !strings.HasPrefix(urlStr, "https://") {
		return false
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return false
	}
	if strings.Contains(urlStr, "javascript:") || strings.Contains(urlStr, "mailto:") {
		return false
	}
	return true
}

// isGoogleInternal reports links that point back into Google's own
// search, account or help pages.
func isGoogleInternal(href string) bool {
	return strings.Contains(href, "google.com/search") ||
		strings.Contains(href, "accounts.google") ||
		strings.Contains(href, "support.google")
}

// hostLabel is the hostname without a leading "www.".
func hostLabel(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// isExternalURL rejects Google-owned hosts; used for news feed links.
func isExternalURL(urlStr string) bool {
	if !isAbsoluteHTTP(urlStr) {
		return false
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, gd := range []string{"google.com", "google.es", "news.google.com", "google.co.uk"} {
		if host == gd || strings.HasSuffix(host, "."+gd) {
			return false
		}
	}
	return true
}

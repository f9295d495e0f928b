package search

import "strings"

// newsLang maps three-letter language codes to the two-letter form the
// news feed expects. Unknown codes pass through lowercased.
func newsLang(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	switch code {
	case "spa":
		return "es"
	case "eng":
		return "en"
	case "por":
		return "pt"
	case "fra", "fre":
		return "fr"
	case "deu", "ger":
		return "de"
	case "ita":
		return "it"
	case "cat":
		return "ca"
	}
	return code
}

// newsParams derives hl, gl and ceid from a country and language.
// Example: country=ES, lang=es -> hl=es-ES, gl=ES, ceid=ES:es
func newsParams(country, lang string) (hl, gl, ceid string) {
	country = strings.ToUpper(strings.TrimSpace(country))
	lang = newsLang(lang)
	if country == "" || lang == "" {
		return "", "", ""
	}
	return lang + "-" + country, country, country + ":" + lang
}

var stopWords = map[string]bool{
	// English
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"this": true, "that": true, "its": true,
	// Spanish
	"el": true, "la": true, "los": true, "las": true, "un": true, "una": true,
	"unos": true, "unas": true, "y": true, "o": true, "de": true, "del": true,
	"en": true, "por": true, "para": true, "con": true, "sin": true, "que": true,
	"es": true, "son": true, "fue": true, "al": true, "lo": true, "se": true,
	"su": true, "sus": true, "como": true, "más": true, "pero": true,
}

// searchKeywords reduces free text to its first n content words.
func searchKeywords(text string, n int) []string {
	var out []string
	seen := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, `.,;:!?¡¿()[]{}"'«»`)
		if len([]rune(w)) <= 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) >= n {
			break
		}
	}
	return out
}

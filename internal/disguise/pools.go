package disguise

// Browser describes the client advertised through the Sec-CH-UA headers.
type Browser struct {
	Name     string
	Version  string
	Platform string
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (iPad; CPU OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36 Edg/122.0.0.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36 OPR/108.0.0.0",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36 Edg/123.0.0.0",
}

var acceptLanguages = []string{
	"es-ES,es;q=0.9",
	"en-US,en;q=0.8",
	"en-GB,en;q=0.8",
	"es-MX,es;q=0.9",
	"es-AR,es;q=0.9",
}

var browsers = []Browser{
	{Name: "Chrome", Version: "123.0.0.0", Platform: "Windows NT 10.0; Win64; x64"},
	{Name: "Firefox", Version: "124.0", Platform: "Windows NT 10.0; Win64; x64"},
	{Name: "Safari", Version: "17.4", Platform: "Macintosh; Intel Mac OS X 14_4"},
	{Name: "Edge", Version: "123.0.0.0", Platform: "Windows NT 10.0; Win64; x64"},
}

// Consent cookies skip the interstitial consent page.
var consentCookies = []string{
	"CONSENT=YES+cb.20220301-11-p0.en+FX+421; SID=RghYml23wnMFy_ZI65cDblahblah;",
	"CONSENT=PENDING+123; NID=511=mKcW6tmAZfs6OAblahblah;",
	"CONSENT=YES+; SOCS=CAESEwgUEg; OTZ=12345678_78_90_123456",
	"CONSENT=YES+; SIDCC=ABTdFD43Blahlblah; APISID=somedata/someotherdata",
}

// UserAgents returns a copy of the user-agent pool.
func UserAgents() []string { return append([]string(nil), userAgents...) }

// AcceptLanguages returns a copy of the Accept-Language pool.
func AcceptLanguages() []string { return append([]string(nil), acceptLanguages...) }

package fetch

import (
	"fmt"
	"net/url"
	"time"

	browser "github.com/EDDYCJY/fake-useragent"
)

const fallbackUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

func randomUserAgent() string {
	ua := browser.Chrome()
	if ua == "" {
		return fallbackUserAgent
	}
	return ua
}

// defaultHeaders builds the request profile of a Dutch desktop Chrome
// navigating to a page directly. Accept-Encoding is set explicitly so
// the transport hands compressed bodies through untouched, Normalize
// owns the decoding.
func defaultHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":                userAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
		"Accept-Language":           "nl-NL,nl;q=0.9,en-US;q=0.8,en;q=0.7",
		"Accept-Encoding":           "gzip, deflate, br",
		"DNT":                       "1",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Cache-Control":             "max-age=0",
	}
}

// ClientOptions configures one HTTP strategy client.
type ClientOptions struct {
	// Timeout bounds a single request, defaults to 30s.
	Timeout time.Duration
	// UserAgent pins the simulated client identity. Empty picks a
	// random desktop Chrome user agent.
	UserAgent string
}

func (o ClientOptions) timeout() time.Duration {
	if o.Timeout <= 0 {
		return time.Second * 30
	}
	return o.Timeout
}

func (o ClientOptions) userAgent() string {
	if o.UserAgent != "" {
		return o.UserAgent
	}
	return randomUserAgent()
}

// originOf returns the scheme://host root of a page url, used as the
// priming target and referer.
func originOf(pageUrl string) (string, error) {
	parsed, err := url.Parse(pageUrl)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("url has no origin: %s", pageUrl)
	}
	return fmt.Sprintf("%s://%s/", parsed.Scheme, parsed.Host), nil
}

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/language"

	"github.com/MimeLyc/sales-copilot/pkg/log"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultMaxChars  = 15000
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// maxBodyBytes bounds how much HTML is read before extraction.
	maxBodyBytes = 5 << 20
)

// Page is the visible text of a fetched URL
type Page struct {
	URL      string
	Text     string
	Language language.Tag
}

// FetchError reports why a page could not be fetched.
// StatusCode is zero for transport failures.
type FetchError struct {
	URL        string
	StatusCode int
	Reason     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

// Config holds fetcher settings
type Config struct {
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
}

// Fetcher retrieves pages with a single GET per call
type Fetcher struct {
	httpClient *http.Client
	maxChars   int
	userAgent  string
}

// NewFetcher creates a fetcher, filling zero config values with defaults
func NewFetcher(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxChars:   cfg.MaxChars,
		userAgent:  cfg.UserAgent,
	}
}

// FetchText returns the page text or a *FetchError. It never returns both.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (Page, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return Page{}, &FetchError{URL: rawURL, Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Page{}, &FetchError{URL: target, Reason: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Page{}, &FetchError{URL: target, Reason: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, &FetchError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return Page{}, &FetchError{URL: target, StatusCode: resp.StatusCode, Reason: fmt.Sprintf("decode body: %v", err)}
	}

	text, err := ExtractText(body)
	if err != nil {
		return Page{}, &FetchError{URL: target, StatusCode: resp.StatusCode, Reason: fmt.Sprintf("parse html: %v", err)}
	}
	text = Truncate(text, f.maxChars)

	log.Debug("Fetched %s: %d chars", target, len([]rune(text)))

	return Page{
		URL:      target,
		Text:     text,
		Language: DetectLanguage(text),
	}, nil
}

// normalizeURL accepts scheme-less input such as "www.linkedin.com/in/x"
func normalizeURL(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", fmt.Errorf("url is empty")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url has no host")
	}
	return u.String(), nil
}

// Truncate keeps the first maxChars characters of s
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == maxChars {
			return s[:i]
		}
		count++
	}
	return s
}

// DetectLanguage returns the dominant language of text, or language.Und
func DetectLanguage(text string) language.Tag {
	if strings.TrimSpace(text) == "" {
		return language.Und
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return language.Und
	}
	tag, err := language.Parse(info.Lang.Iso6391())
	if err != nil {
		return language.Und
	}
	return tag
}

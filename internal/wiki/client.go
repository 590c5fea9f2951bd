package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MimeLyc/sales-copilot/internal/fetch"
	"github.com/MimeLyc/sales-copilot/pkg/log"
)

const (
	DefaultAPIURL       = "https://en.wikipedia.org/w/api.php"
	DefaultTimeout      = 15 * time.Second
	DefaultPreviewChars = 2000
	DefaultUserAgent    = "sales-copilot/1.0 (https://github.com/MimeLyc/sales-copilot)"

	summarySentences = 5
	// search hits offered when a disambiguation page lists no usable links
	fallbackCandidates = 10
)

// Outcome distinguishes the three possible lookup results
type Outcome string

const (
	OutcomePage           Outcome = "page"
	OutcomeDisambiguation Outcome = "disambiguation"
	OutcomeNotFound       Outcome = "not_found"
)

// Result of a lookup. Only the fields relevant to Outcome are set.
type Result struct {
	Outcome        Outcome  `json:"outcome"`
	Query          string   `json:"query"`
	Title          string   `json:"title,omitempty"`
	URL            string   `json:"url,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	ContentPreview string   `json:"content_preview,omitempty"`
	Candidates     []string `json:"candidates,omitempty"`
}

type Config struct {
	APIURL       string
	Timeout      time.Duration
	PreviewChars int
	UserAgent    string
}

// Client talks to the MediaWiki Action API
type Client struct {
	apiURL       string
	userAgent    string
	previewChars int
	httpClient   *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PreviewChars <= 0 {
		cfg.PreviewChars = DefaultPreviewChars
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &Client{
		apiURL:       cfg.APIURL,
		userAgent:    cfg.UserAgent,
		previewChars: cfg.PreviewChars,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
	}
}

type queryResponse struct {
	Query struct {
		Pages  []page      `json:"pages"`
		Search []searchHit `json:"search"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

type page struct {
	Title     string            `json:"title"`
	Missing   bool              `json:"missing"`
	Invalid   bool              `json:"invalid"`
	Extract   string            `json:"extract"`
	FullURL   string            `json:"fullurl"`
	PageProps map[string]string `json:"pageprops"`
	Links     []struct {
		Title string `json:"title"`
	} `json:"links"`
}

type searchHit struct {
	Title string `json:"title"`
}

func (p page) exists() bool {
	return !p.Missing && !p.Invalid && p.Title != ""
}

func (p page) isDisambiguation() bool {
	_, ok := p.PageProps["disambiguation"]
	return ok
}

// Lookup resolves a topic to a page, a disambiguation list or not-found.
//
// The exact title is tried first, following redirects. When it does not
// exist the top full-text search hit is loaded instead. Disambiguation pages
// are never resolved to one of their candidates.
func (c *Client) Lookup(ctx context.Context, topic string) (Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Result{}, fmt.Errorf("topic is required")
	}

	p, err := c.loadPage(ctx, topic)
	if err != nil {
		return Result{}, err
	}

	if !p.exists() {
		title, err := c.topSearchHit(ctx, topic)
		if err != nil {
			return Result{}, err
		}
		if title == "" {
			log.Debug("Wiki lookup %q: no search hits", topic)
			return Result{Outcome: OutcomeNotFound, Query: topic}, nil
		}
		if p, err = c.loadPage(ctx, title); err != nil {
			return Result{}, err
		}
		if !p.exists() {
			return Result{Outcome: OutcomeNotFound, Query: topic}, nil
		}
	}

	if p.isDisambiguation() {
		options := candidates(p)
		if len(options) == 0 {
			hits, err := c.searchTitles(ctx, topic, fallbackCandidates)
			if err != nil {
				return Result{}, err
			}
			options = dedupe(hits, p.Title)
			log.Debug("Wiki lookup %q: disambiguation without links, %d search candidates", topic, len(options))
		}
		return Result{
			Outcome:    OutcomeDisambiguation,
			Query:      topic,
			Title:      p.Title,
			URL:        p.FullURL,
			Candidates: options,
		}, nil
	}

	summary, err := c.summary(ctx, p.Title)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Outcome:        OutcomePage,
		Query:          topic,
		Title:          p.Title,
		URL:            p.FullURL,
		Summary:        summary,
		ContentPreview: fetch.Truncate(strings.TrimSpace(p.Extract), c.previewChars),
	}, nil
}

func candidates(p page) []string {
	titles := make([]string, 0, len(p.Links))
	for _, l := range p.Links {
		titles = append(titles, l.Title)
	}
	return dedupe(titles, p.Title)
}

// dedupe keeps the first occurrence of each title, dropping blanks and self
func dedupe(titles []string, self string) []string {
	seen := make(map[string]bool, len(titles))
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if t == "" || t == self || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (c *Client) loadPage(ctx context.Context, title string) (page, error) {
	params := url.Values{}
	params.Set("titles", title)
	params.Set("redirects", "1")
	params.Set("prop", "extracts|pageprops|info|links")
	params.Set("explaintext", "1")
	params.Set("ppprop", "disambiguation")
	params.Set("inprop", "url")
	params.Set("pllimit", "max")
	params.Set("plnamespace", "0")

	resp, err := c.query(ctx, params)
	if err != nil {
		return page{}, err
	}
	if len(resp.Query.Pages) == 0 {
		return page{Missing: true}, nil
	}
	return resp.Query.Pages[0], nil
}

func (c *Client) topSearchHit(ctx context.Context, topic string) (string, error) {
	hits, err := c.searchTitles(ctx, topic, 1)
	if err != nil || len(hits) == 0 {
		return "", err
	}
	return hits[0], nil
}

func (c *Client) searchTitles(ctx context.Context, topic string, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("list", "search")
	params.Set("srsearch", topic)
	params.Set("srlimit", fmt.Sprint(limit))
	params.Set("srnamespace", "0")

	resp, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		titles = append(titles, hit.Title)
	}
	return titles, nil
}

func (c *Client) summary(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("titles", title)
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("exsentences", fmt.Sprint(summarySentences))

	resp, err := c.query(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Query.Pages) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Query.Pages[0].Extract), nil
}

func (c *Client) query(ctx context.Context, params url.Values) (*queryResponse, error) {
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, fetch.Truncate(string(body), 200))
	}

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if qr.Error != nil {
		return nil, fmt.Errorf("API error %s: %s", qr.Error.Code, qr.Error.Info)
	}
	return &qr, nil
}

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MimeLyc/sales-copilot/internal/fetch"
)

const (
	DefaultSearchAPIURL = "https://api.tavily.com/search"
	MaxSearchResults    = 5
	maxSnippetChars     = 500
)

// WebSearchTool implements web search using Tavily API
type WebSearchTool struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// WebSearchArgs represents the arguments for web search
type WebSearchArgs struct {
	Query string `json:"query" jsonschema_description:"The search query. Include names of people or companies and the topic you want to learn about."`
}

// SearchResult is one entry returned to the agent
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// TavilyRequest represents a request to Tavily API
type TavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth,omitempty"`
	IncludeAnswer bool   `json:"include_answer,omitempty"`
	MaxResults    int    `json:"max_results,omitempty"`
}

// TavilyResponse represents a response from Tavily API
type TavilyResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer,omitempty"`
	Results []TavilyResult `json:"results"`
}

// TavilyResult represents a single search result
type TavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// NewWebSearchTool creates a new web search tool
func NewWebSearchTool(apiKey, apiURL string) *WebSearchTool {
	if apiURL == "" {
		apiURL = DefaultSearchAPIURL
	}
	return &WebSearchTool{
		apiKey: apiKey,
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *WebSearchTool) Name() string {
	return "web_search"
}

func (t *WebSearchTool) Description() string {
	return `Search the web for recent information about a person, company or industry.
Use this tool to find:
- Recent news, funding rounds, acquisitions or product launches
- Industry trends and competitors
- Public information that is not on the prospect's profile or the company website

Returns up to 5 results with title, url and snippet.`
}

func (t *WebSearchTool) Parameters() json.RawMessage {
	return SchemaFor(WebSearchArgs{})
}

func (t *WebSearchTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var searchArgs WebSearchArgs
	if err := json.Unmarshal(args, &searchArgs); err != nil {
		return errorPayload("failed to parse search arguments: %v", err), nil
	}

	query := strings.TrimSpace(searchArgs.Query)
	if query == "" {
		return errorPayload("query is required"), nil
	}

	results, err := t.Search(ctx, query)
	if err != nil {
		return errorPayload("search failed: %v", err), nil
	}

	return ToolResult{
		Content: mustJSON(map[string]any{"query": query, "results": results}),
	}, nil
}

// Search runs one provider call and returns at most MaxSearchResults entries
func (t *WebSearchTool) Search(ctx context.Context, query string) ([]SearchResult, error) {
	resp, err := t.search(ctx, query)
	if err != nil {
		return nil, err
	}
	return toSearchResults(resp), nil
}

func (t *WebSearchTool) search(ctx context.Context, query string) (*TavilyResponse, error) {
	request := TavilyRequest{
		APIKey:      t.apiKey,
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  MaxSearchResults,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var tavilyResp TavilyResponse
	if err := json.Unmarshal(body, &tavilyResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &tavilyResp, nil
}

func toSearchResults(resp *TavilyResponse) []SearchResult {
	results := make([]SearchResult, 0, MaxSearchResults)
	for _, r := range resp.Results {
		if len(results) == MaxSearchResults {
			break
		}
		snippet := strings.TrimSpace(r.Content)
		if len([]rune(snippet)) > maxSnippetChars {
			snippet = fetch.Truncate(snippet, maxSnippetChars) + "..."
		}
		results = append(results, SearchResult{Title: r.Title, URL: r.URL, Snippet: snippet})
	}
	return results
}

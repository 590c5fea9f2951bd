package research

import (
	"context"
	"errors"

	"golang.org/x/text/language"

	"github.com/MimeLyc/sales-copilot/internal/fetch"
)

// Kind selects the instruction template a Researcher uses
type Kind string

const (
	KindProspect Kind = "prospect"
	KindCompany  Kind = "company"
)

// ErrSummarization marks a failed text-generation call
var ErrSummarization = errors.New("summarization failed")

// Result is the outcome of researching one URL.
//
// On success Summary is set. On summarization failure Content holds the
// first FallbackChars characters of the page text.
type Result struct {
	URL      string       `json:"url"`
	Subject  Kind         `json:"subject"`
	Success  bool         `json:"success"`
	Summary  string       `json:"summary,omitempty"`
	Content  string       `json:"content,omitempty"`
	Error    string       `json:"error,omitempty"`
	Language language.Tag `json:"-"`
}

// PageFetcher retrieves the visible text of a URL
type PageFetcher interface {
	FetchText(ctx context.Context, url string) (fetch.Page, error)
}

// Generator produces a single-shot text completion
type Generator interface {
	SimpleChat(ctx context.Context, prompt string, systemPrompt string) (string, error)
}

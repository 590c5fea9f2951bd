package research

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/MimeLyc/sales-copilot/internal/fetch"
	"github.com/MimeLyc/sales-copilot/pkg/log"
)

// FallbackChars is how much raw page text is kept when summarization fails
const FallbackChars = 1000

const systemPrompt = "You are a sales research analyst preparing a sales representative for a call. " +
	"Be factual, concise and only use information present in the provided page text. " +
	"Write in English."

const prospectTemplate = `Analyze the following profile page of a sales prospect and summarize it.

Structure the summary as:
- Name
- Current role and company
- Professional background and experience
- Skills, interests or recent activity worth mentioning
- Suggested talking points for a sales conversation

If a field cannot be determined from the text, write "Unknown".
%s
Profile URL: %s

Page text:
%s`

const companyTemplate = `Analyze the following company website and summarize it.

Structure the summary as:
- Company name and what it does
- Products and services
- Target market and customers
- Recent news or announcements
- Likely pain points and challenges
- Suggested talking points and value propositions

If a field cannot be determined from the text, write "Unknown".
%s
Website URL: %s

Page text:
%s`

// Researcher fetches one URL and summarizes it for a sales call
type Researcher struct {
	kind      Kind
	template  string
	fetcher   PageFetcher
	generator Generator
}

// NewProspectResearcher researches prospect profile pages
func NewProspectResearcher(fetcher PageFetcher, generator Generator) *Researcher {
	return &Researcher{kind: KindProspect, template: prospectTemplate, fetcher: fetcher, generator: generator}
}

// NewCompanyResearcher researches company websites
func NewCompanyResearcher(fetcher PageFetcher, generator Generator) *Researcher {
	return &Researcher{kind: KindCompany, template: companyTemplate, fetcher: fetcher, generator: generator}
}

func (r *Researcher) Kind() Kind {
	return r.kind
}

// Research never returns a Go error: failures are encoded in the Result.
func (r *Researcher) Research(ctx context.Context, url string) Result {
	page, err := r.fetcher.FetchText(ctx, url)
	if err != nil {
		log.Warn("Research %s %s: fetch failed: %v", r.kind, url, err)
		return Result{
			URL:     url,
			Subject: r.kind,
			Success: false,
			Error:   err.Error(),
		}
	}

	prompt := r.buildPrompt(page)
	summary, err := r.generator.SimpleChat(ctx, prompt, systemPrompt)
	if err == nil && strings.TrimSpace(summary) == "" {
		err = fmt.Errorf("empty response")
	}
	if err != nil {
		log.Warn("Research %s %s: summarization failed: %v", r.kind, url, err)
		return Result{
			URL:      url,
			Subject:  r.kind,
			Success:  false,
			Content:  fetch.Truncate(page.Text, FallbackChars),
			Error:    fmt.Errorf("%w: %v", ErrSummarization, err).Error(),
			Language: page.Language,
		}
	}

	return Result{
		URL:      url,
		Subject:  r.kind,
		Success:  true,
		Summary:  strings.TrimSpace(summary),
		Language: page.Language,
	}
}

func (r *Researcher) buildPrompt(page fetch.Page) string {
	langNote := ""
	if page.Language != language.Und && page.Language != language.English {
		langNote = fmt.Sprintf("\nThe page is written in %s; translate relevant facts.\n",
			display.English.Languages().Name(page.Language))
	}
	return fmt.Sprintf(r.template, langNote, page.URL, page.Text)
}

package tools

import (
	"github.com/MimeLyc/sales-copilot/internal/research"
	"github.com/MimeLyc/sales-copilot/pkg/log"
)

// Dependencies are the collaborators of the built-in tool set
type Dependencies struct {
	Fetcher   research.PageFetcher
	Generator research.Generator
	Wiki      WikiLooker

	SearchAPIKey string
	SearchAPIURL string
	SaveDir      string
}

// NewDefaultRegistry registers the sales research tools in a fixed order.
// web_search is left out when no search API key is configured.
func NewDefaultRegistry(deps Dependencies) (*Registry, error) {
	registry := NewRegistry()

	all := []Tool{
		NewResearchTool(research.NewProspectResearcher(deps.Fetcher, deps.Generator)),
		NewResearchTool(research.NewCompanyResearcher(deps.Fetcher, deps.Generator)),
		NewReportTool(),
	}
	if deps.SearchAPIKey != "" {
		all = append(all, NewWebSearchTool(deps.SearchAPIKey, deps.SearchAPIURL))
	} else {
		log.Warn("SEARCH_API_KEY not set, web_search tool disabled")
	}
	if deps.Wiki != nil {
		all = append(all, NewWikiTool(deps.Wiki))
	}
	all = append(all, NewSaveTool(deps.SaveDir))

	for _, t := range all {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

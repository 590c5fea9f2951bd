package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/MimeLyc/sales-copilot/internal/research"
)

// URLArgs is the argument shape of both research tools
type URLArgs struct {
	URL string `json:"url" jsonschema_description:"Full URL of the page to research, for example https://www.linkedin.com/in/john-smith or https://acme.com"`
}

// Researcher is implemented by research.Researcher
type Researcher interface {
	Kind() research.Kind
	Research(ctx context.Context, url string) research.Result
}

// ResearchTool exposes a Researcher to the agent
type ResearchTool struct {
	researcher Researcher
}

func NewResearchTool(r Researcher) *ResearchTool {
	return &ResearchTool{researcher: r}
}

func (t *ResearchTool) Name() string {
	if t.researcher.Kind() == research.KindCompany {
		return "company_researcher"
	}
	return "prospect_researcher"
}

func (t *ResearchTool) Description() string {
	if t.researcher.Kind() == research.KindCompany {
		return `Research a company by fetching its website and summarizing it for a sales call.
Returns the company's products and services, target market, recent news, likely pain points and talking points.
Input is the company website URL.`
	}
	return `Research a sales prospect by fetching their public profile page (for example LinkedIn) and summarizing it.
Returns the prospect's role, company, background, interests and suggested talking points.
Input is the profile URL.`
}

func (t *ResearchTool) Parameters() json.RawMessage {
	return SchemaFor(URLArgs{})
}

func (t *ResearchTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var in URLArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return errorPayload("failed to parse arguments: %v", err), nil
	}
	if strings.TrimSpace(in.URL) == "" {
		return errorPayload("url is required"), nil
	}

	result := t.researcher.Research(ctx, strings.TrimSpace(in.URL))
	return ToolResult{Content: mustJSON(result), IsError: !result.Success}, nil
}

// ReportArgs combines two research summaries
type ReportArgs struct {
	ProspectSummary string `json:"prospect_summary" jsonschema_description:"Summary of the prospect research"`
	CompanySummary  string `json:"company_summary" jsonschema_description:"Summary of the company research"`
}

// ReportTool is the terminal combine step before the final answer
type ReportTool struct{}

func NewReportTool() *ReportTool {
	return &ReportTool{}
}

func (t *ReportTool) Name() string {
	return "generate_pre_call_report"
}

func (t *ReportTool) Description() string {
	return `Combine the prospect summary and the company summary into a structured pre-call report.
Call this after both the prospect and the company have been researched.`
}

func (t *ReportTool) Parameters() json.RawMessage {
	return SchemaFor(ReportArgs{})
}

func (t *ReportTool) Execute(_ context.Context, args json.RawMessage) (ToolResult, error) {
	var in ReportArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return errorPayload("failed to parse arguments: %v", err), nil
	}
	return ToolResult{Content: mustJSON(research.MakeReport(in.ProspectSummary, in.CompanySummary))}, nil
}

package tools

import (
	"context"
	"encoding/json"

	"github.com/MimeLyc/sales-copilot/internal/wiki"
)

type WikiArgs struct {
	Topic string `json:"topic" jsonschema_description:"Company, person, product or industry term to look up"`
}

// WikiLooker is implemented by wiki.Client
type WikiLooker interface {
	Lookup(ctx context.Context, topic string) (wiki.Result, error)
}

// WikiTool looks topics up in Wikipedia
type WikiTool struct {
	client WikiLooker
}

func NewWikiTool(client WikiLooker) *WikiTool {
	return &WikiTool{client: client}
}

func (t *WikiTool) Name() string {
	return "wiki_lookup"
}

func (t *WikiTool) Description() string {
	return `Look up background information on Wikipedia about a company, industry or well-known person.
Returns one of:
- outcome "page": title, url, a short summary and a content preview
- outcome "disambiguation": candidate titles; call again with a more specific topic
- outcome "not_found": nothing matched`
}

func (t *WikiTool) Parameters() json.RawMessage {
	return SchemaFor(WikiArgs{})
}

func (t *WikiTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var in WikiArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return errorPayload("failed to parse arguments: %v", err), nil
	}

	result, err := t.client.Lookup(ctx, in.Topic)
	if err != nil {
		return errorPayload("wiki lookup failed: %v", err), nil
	}
	return ToolResult{
		Content: mustJSON(result),
		IsError: result.Outcome != wiki.OutcomePage,
	}, nil
}

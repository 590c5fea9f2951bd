package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ToolResult represents the result of a tool execution
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Tool defines the interface for tools that can be called by the agent
type Tool interface {
	// Name returns the unique name of the tool
	Name() string

	// Description returns a description of what the tool does
	Description() string

	// Parameters returns the JSON Schema for the tool's parameters
	Parameters() json.RawMessage

	// Execute runs the tool with the given arguments and returns the result.
	// Tool-level failures are reported through ToolResult.IsError.
	Execute(ctx context.Context, args json.RawMessage) (ToolResult, error)
}

// Descriptor is the immutable, model-facing description of a registered tool
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

var ErrToolNotFound = errors.New("tool not found")

// ArgumentError reports arguments that do not match a tool's schema
type ArgumentError struct {
	Tool     string
	Problems []string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, strings.Join(e.Problems, "; "))
}

// errorPayload renders a tool failure as a JSON observation
func errorPayload(format string, args ...any) ToolResult {
	return ToolResult{Content: mustJSON(map[string]string{"error": fmt.Sprintf(format, args...)}), IsError: true}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(b)
}

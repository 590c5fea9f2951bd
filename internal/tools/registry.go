package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/MimeLyc/sales-copilot/internal/llm"
)

type registered struct {
	tool       Tool
	descriptor Descriptor
	schema     *gojsonschema.Schema
}

// Registry manages available tools for the agent.
// Tools keep their registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registered
	names []string
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]registered),
	}
}

// Register adds a tool to the registry.
// Returns an error if a tool with the same name already exists or its schema does not compile.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	params := append(json.RawMessage(nil), tool.Parameters()...)
	schema, err := compileSchema(params)
	if err != nil {
		return fmt.Errorf("tool %q: invalid parameter schema: %w", name, err)
	}

	r.tools[name] = registered{
		tool: tool,
		descriptor: Descriptor{
			Name:        name,
			Description: tool.Description(),
			Parameters:  params,
		},
		schema: schema,
	}
	r.names = append(r.names, name)
	return nil
}

// MustRegister is Register for static tool sets
func (r *Registry) MustRegister(tools ...Tool) *Registry {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.tools[name]
	return entry.tool, exists
}

// List returns all registered tool names in registration order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// Count returns the number of registered tools
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Descriptors returns the descriptors of all tools in registration order
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.tools[name].descriptor)
	}
	return out
}

// Validate checks args against the named tool's schema.
// Returns ErrToolNotFound (wrapped) or an *ArgumentError.
func (r *Registry) Validate(name string, args json.RawMessage) error {
	r.mu.RLock()
	entry, exists := r.tools[name]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}
	if problems := validateAgainst(entry.schema, args); len(problems) > 0 {
		return &ArgumentError{Tool: name, Problems: problems}
	}
	return nil
}

// Execute validates args and runs the tool. A validation failure returns the
// error without running the tool. Errors returned by the tool itself are
// folded into an error ToolResult.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (ToolResult, error) {
	if err := r.Validate(name, args); err != nil {
		return ToolResult{Content: mustJSON(map[string]string{"error": err.Error()}), IsError: true}, err
	}
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	tool, _ := r.Get(name)
	result, err := tool.Execute(ctx, args)
	if err != nil {
		return errorPayload("tool execution error: %v", err), nil
	}
	return result, nil
}

// ToOpenAIFormat converts all registered tools to OpenAI tool definition format
func (r *Registry) ToOpenAIFormat() []llm.ToolDefinition {
	return DefinitionsFor(r.Descriptors())
}

// DefinitionsFor converts descriptors to OpenAI tool definitions
func DefinitionsFor(descriptors []Descriptor) []llm.ToolDefinition {
	definitions := make([]llm.ToolDefinition, 0, len(descriptors))
	for _, d := range descriptors {
		definitions = append(definitions, llm.ToolDefinition{
			Type: "function",
			Function: llm.Function{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return definitions
}

package agent

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MimeLyc/sales-copilot/internal/memory"
	"github.com/MimeLyc/sales-copilot/internal/tools"
)

// State of the agent loop
type State string

const (
	StateAwaitingModel State = "awaiting_model"
	StateExecutingTool State = "executing_tool"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// ActionKind tags the variant held by an Action
type ActionKind int

const (
	ActionCallTools ActionKind = iota + 1
	ActionFinalAnswer
)

func (k ActionKind) String() string {
	switch k {
	case ActionCallTools:
		return "call_tools"
	case ActionFinalAnswer:
		return "final_answer"
	default:
		return "unknown"
	}
}

// ToolCallRequest is one tool invocation asked for by the model
type ToolCallRequest struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Action is what the model decided to do next.
// Calls is set for ActionCallTools, Answer for ActionFinalAnswer.
type Action struct {
	Kind   ActionKind
	Calls  []ToolCallRequest
	Answer string
}

// Decision is everything the model sees for one step
type Decision struct {
	// SystemPrompt includes the output format instructions
	SystemPrompt string

	// History holds the turns recorded before the current request
	History []memory.Turn

	// Input is the current human request
	Input string

	// Scratchpad holds the tool_call turns produced so far for Input
	Scratchpad []memory.Turn

	Tools        []tools.Descriptor
	OutputSchema json.RawMessage

	// Iteration is 1-based
	Iteration int
}

// Decider chooses the next Action. Errors are fatal to the loop.
type Decider interface {
	Decide(ctx context.Context, d Decision) (Action, error)
}

// DeciderFunc adapts a function to Decider
type DeciderFunc func(ctx context.Context, d Decision) (Action, error)

func (f DeciderFunc) Decide(ctx context.Context, d Decision) (Action, error) {
	return f(ctx, d)
}

// Request represents a request to the agent
type Request struct {
	// SystemPrompt is the system prompt to set context
	SystemPrompt string

	// Input is the user's message
	Input string

	// MaxIterations overrides the orchestrator cap when > 0
	MaxIterations int
}

// Result represents the result from an agent execution
type Result struct {
	// Output is the final answer text
	Output string

	// Raw is the unparsed final answer returned by the model
	Raw string

	// Structured reports whether Raw matched the output schema
	Structured bool

	State State

	// Reason is set when State is StateFailed
	Reason string

	// ToolCalls contains a record of all tool calls made during execution
	ToolCalls []ToolCallRecord

	// Iterations is the number of model steps taken
	Iterations int
}

// ToolCallRecord records a single tool call and its result
type ToolCallRecord struct {
	CallID    string
	ToolName  string
	Arguments string
	Result    string
	IsError   bool
}

var (
	ErrIterationCapExceeded = errors.New("iteration cap exceeded")
	ErrOutputSchemaMismatch = errors.New("final answer does not match output schema")
)

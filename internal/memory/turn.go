package memory

import (
	"encoding/json"
	"time"
)

// Kind of a conversation turn
type Kind string

const (
	KindHuman       Kind = "human"
	KindToolCall    Kind = "tool_call"
	KindFinalAnswer Kind = "final_answer"
)

// ToolInvocation records one tool call and its observation
type ToolInvocation struct {
	CallID    string          `json:"call_id"`
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
	Result    string          `json:"result"`
	IsError   bool            `json:"is_error,omitempty"`
}

// Turn is one entry of the log. Text is set for human and final_answer turns,
// Invocation for tool_call turns.
type Turn struct {
	ID         string          `json:"id"`
	Seq        int             `json:"seq"`
	Kind       Kind            `json:"kind"`
	Text       string          `json:"text,omitempty"`
	Invocation *ToolInvocation `json:"invocation,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func Human(text string) Turn {
	return Turn{Kind: KindHuman, Text: text}
}

func FinalAnswer(text string) Turn {
	return Turn{Kind: KindFinalAnswer, Text: text}
}

func ToolCall(inv ToolInvocation) Turn {
	return Turn{Kind: KindToolCall, Invocation: &inv}
}

// Role maps the turn to the presentation role: human turns are "human",
// everything else "assistant".
func (t Turn) Role() string {
	if t.Kind == KindHuman {
		return "human"
	}
	return "assistant"
}

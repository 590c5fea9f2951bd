package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MimeLyc/sales-copilot/internal/llm"
	"github.com/MimeLyc/sales-copilot/internal/memory"
	"github.com/MimeLyc/sales-copilot/internal/tools"
)

// ChatClient is the part of llm.Client the decider needs
type ChatClient interface {
	ChatCompletionWithTools(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition, opts *llm.ChatCompletionOptions) (*llm.ChatResponse, error)
}

// LLMDecider asks an OpenAI-compatible chat model for the next action
type LLMDecider struct {
	client ChatClient
}

func NewLLMDecider(client ChatClient) *LLMDecider {
	return &LLMDecider{client: client}
}

func (d *LLMDecider) Decide(ctx context.Context, dec Decision) (Action, error) {
	messages := TurnsToMessages(dec.History)
	messages = append(messages, llm.Message{Role: "user", Content: dec.Input})
	messages = append(messages, TurnsToMessages(dec.Scratchpad)...)

	opts := llm.NewChatCompletionOptions().WithSystemPrompt(dec.SystemPrompt)

	resp, err := d.client.ChatCompletionWithTools(ctx, messages, tools.DefinitionsFor(dec.Tools), opts)
	if err != nil {
		return Action{}, err
	}
	if len(resp.Choices) == 0 {
		return Action{}, fmt.Errorf("no choices in response")
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		return Action{Kind: ActionFinalAnswer, Answer: msg.Content}, nil
	}

	calls := make([]ToolCallRequest, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		calls = append(calls, ToolCallRequest{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return Action{Kind: ActionCallTools, Calls: calls, Answer: msg.Content}, nil
}

// TurnsToMessages replays turns as chat messages.
// Consecutive tool_call turns become one assistant message carrying all
// calls, followed by one tool message per call.
func TurnsToMessages(turns []memory.Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(turns))
	for i := 0; i < len(turns); {
		t := turns[i]
		switch t.Kind {
		case memory.KindHuman:
			messages = append(messages, llm.Message{Role: "user", Content: t.Text})
			i++
		case memory.KindFinalAnswer:
			messages = append(messages, llm.Message{Role: "assistant", Content: t.Text})
			i++
		case memory.KindToolCall:
			j := i
			for j < len(turns) && turns[j].Kind == memory.KindToolCall {
				j++
			}
			messages = append(messages, toolExchange(turns[i:j])...)
			i = j
		default:
			i++
		}
	}
	return messages
}

func toolExchange(turns []memory.Turn) []llm.Message {
	assistant := llm.Message{Role: "assistant"}
	results := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		if t.Invocation == nil {
			continue
		}
		inv := t.Invocation
		args := string(inv.Arguments)
		if args == "" {
			args = "{}"
		}
		assistant.ToolCalls = append(assistant.ToolCalls, llm.ToolCall{
			ID:   inv.CallID,
			Type: "function",
			Function: llm.FunctionCall{
				Name:      inv.ToolName,
				Arguments: args,
			},
		})
		results = append(results, llm.Message{Role: "tool", Content: inv.Result, ToolCallID: inv.CallID})
	}
	if len(results) == 0 {
		return nil
	}
	return append([]llm.Message{assistant}, results...)
}

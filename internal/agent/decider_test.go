package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/sales-copilot/internal/llm"
	"github.com/MimeLyc/sales-copilot/internal/memory"
	"github.com/MimeLyc/sales-copilot/internal/tools"
)

type fakeChat struct {
	resp     *llm.ChatResponse
	err      error
	messages []llm.Message
	tools    []llm.ToolDefinition
	opts     *llm.ChatCompletionOptions
}

func (f *fakeChat) ChatCompletionWithTools(_ context.Context, messages []llm.Message, defs []llm.ToolDefinition, opts *llm.ChatCompletionOptions) (*llm.ChatResponse, error) {
	f.messages, f.tools, f.opts = messages, defs, opts
	return f.resp, f.err
}

func TestTurnsToMessages(t *testing.T) {
	turns := []memory.Turn{
		memory.Human("research acme"),
		memory.ToolCall(memory.ToolInvocation{CallID: "c1", ToolName: "company_researcher", Arguments: json.RawMessage(`{"url":"acme.com"}`), Result: "r1"}),
		memory.ToolCall(memory.ToolInvocation{CallID: "c2", ToolName: "wiki_lookup", Result: "r2", IsError: true}),
		memory.FinalAnswer("Acme makes anvils"),
	}

	msgs := TurnsToMessages(turns)
	require.Len(t, msgs, 5)

	assert.Equal(t, llm.Message{Role: "user", Content: "research acme"}, msgs[0])

	assert.Equal(t, "assistant", msgs[1].Role)
	require.Len(t, msgs[1].ToolCalls, 2)
	assert.Equal(t, "c1", msgs[1].ToolCalls[0].ID)
	assert.Equal(t, "function", msgs[1].ToolCalls[0].Type)
	assert.Equal(t, "company_researcher", msgs[1].ToolCalls[0].Function.Name)
	assert.Equal(t, `{"url":"acme.com"}`, msgs[1].ToolCalls[0].Function.Arguments)
	assert.Equal(t, "{}", msgs[1].ToolCalls[1].Function.Arguments)

	assert.Equal(t, llm.Message{Role: "tool", Content: "r1", ToolCallID: "c1"}, msgs[2])
	assert.Equal(t, llm.Message{Role: "tool", Content: "r2", ToolCallID: "c2"}, msgs[3])
	assert.Equal(t, llm.Message{Role: "assistant", Content: "Acme makes anvils"}, msgs[4])
}

func TestLLMDecider_ToolCalls(t *testing.T) {
	chat := &fakeChat{resp: &llm.ChatResponse{Choices: []llm.Choice{{
		FinishReason: "tool_calls",
		Message: llm.Message{Role: "assistant", ToolCalls: []llm.ToolCall{{
			ID: "call_1", Type: "function",
			Function: llm.FunctionCall{Name: "prospect_researcher", Arguments: `{"url":"https://valid.example/in/x"}`},
		}}},
	}}}}

	action, err := NewLLMDecider(chat).Decide(context.Background(), Decision{
		SystemPrompt: "sys",
		History:      []memory.Turn{memory.Human("earlier"), memory.FinalAnswer("reply")},
		Input:        "now",
		Tools:        []tools.Descriptor{{Name: "prospect_researcher", Description: "d", Parameters: json.RawMessage(`{"type":"object"}`)}},
	})
	require.NoError(t, err)

	assert.Equal(t, ActionCallTools, action.Kind)
	require.Len(t, action.Calls, 1)
	assert.Equal(t, "call_1", action.Calls[0].ID)
	assert.Equal(t, "prospect_researcher", action.Calls[0].Name)
	assert.JSONEq(t, `{"url":"https://valid.example/in/x"}`, string(action.Calls[0].Arguments))

	require.Len(t, chat.messages, 3)
	assert.Equal(t, "earlier", chat.messages[0].Content)
	assert.Equal(t, "assistant", chat.messages[1].Role)
	assert.Equal(t, llm.Message{Role: "user", Content: "now"}, chat.messages[2])
	assert.Equal(t, "sys", chat.opts.SystemPrompt)
	require.Len(t, chat.tools, 1)
	assert.Equal(t, "prospect_researcher", chat.tools[0].Function.Name)
}

func TestLLMDecider_FinalAnswer(t *testing.T) {
	chat := &fakeChat{resp: &llm.ChatResponse{Choices: []llm.Choice{{
		FinishReason: "stop",
		Message:      llm.Message{Role: "assistant", Content: `{"result":"ok"}`},
	}}}}

	action, err := NewLLMDecider(chat).Decide(context.Background(), Decision{Input: "x"})
	require.NoError(t, err)
	assert.Equal(t, ActionFinalAnswer, action.Kind)
	assert.Equal(t, `{"result":"ok"}`, action.Answer)
}

func TestLLMDecider_Errors(t *testing.T) {
	_, err := NewLLMDecider(&fakeChat{err: errors.New("503")}).Decide(context.Background(), Decision{})
	assert.Error(t, err)

	_, err = NewLLMDecider(&fakeChat{resp: &llm.ChatResponse{}}).Decide(context.Background(), Decision{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestActionKind_String(t *testing.T) {
	assert.Equal(t, "call_tools", ActionCallTools.String())
	assert.Equal(t, "final_answer", ActionFinalAnswer.String())
	assert.Equal(t, "unknown", ActionKind(0).String())
}

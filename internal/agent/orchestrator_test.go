package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/sales-copilot/internal/memory"
	"github.com/MimeLyc/sales-copilot/internal/tools"
)

type echoArgs struct {
	Text string `json:"text"`
}

type echoTool struct {
	calls atomic.Int32
}

func (*echoTool) Name() string                { return "echo" }
func (*echoTool) Description() string         { return "Echo back input arguments." }
func (*echoTool) Parameters() json.RawMessage { return tools.SchemaFor(echoArgs{}) }
func (e *echoTool) Execute(_ context.Context, args json.RawMessage) (tools.ToolResult, error) {
	e.calls.Add(1)
	return tools.ToolResult{Content: string(args)}, nil
}

// scriptedDecider replays actions in order and records every Decision
type scriptedDecider struct {
	actions   []Action
	decisions []Decision
}

func (s *scriptedDecider) Decide(_ context.Context, d Decision) (Action, error) {
	s.decisions = append(s.decisions, d)
	if len(s.decisions) > len(s.actions) {
		return s.actions[len(s.actions)-1], nil
	}
	return s.actions[len(s.decisions)-1], nil
}

func callEcho(id, args string) Action {
	return Action{Kind: ActionCallTools, Calls: []ToolCallRequest{{ID: id, Name: "echo", Arguments: json.RawMessage(args)}}}
}

func final(answer string) Action {
	return Action{Kind: ActionFinalAnswer, Answer: answer}
}

func newRegistry(t *testing.T) (*tools.Registry, *echoTool) {
	t.Helper()
	tool := &echoTool{}
	r := tools.NewRegistry()
	require.NoError(t, r.Register(tool))
	return r, tool
}

func TestOrchestrator_ToolThenFinalAnswer(t *testing.T) {
	registry, tool := newRegistry(t)
	decider := &scriptedDecider{actions: []Action{
		callEcho("call_1", `{"text":"hello"}`),
		final(`{"result":"done"}`),
	}}
	mem := memory.NewLog()

	result, err := NewOrchestrator(decider, registry, 5).Run(context.Background(), mem, Request{SystemPrompt: "sys", Input: "say hello"})
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, "done", result.Output)
	assert.True(t, result.Structured)
	assert.Equal(t, 2, result.Iterations)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "call_1", result.ToolCalls[0].CallID)
	assert.JSONEq(t, `{"text":"hello"}`, result.ToolCalls[0].Result)
	assert.Equal(t, int32(1), tool.calls.Load())

	turns := mem.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, memory.KindHuman, turns[0].Kind)
	assert.Equal(t, memory.KindToolCall, turns[1].Kind)
	assert.Equal(t, memory.KindFinalAnswer, turns[2].Kind)
	assert.Equal(t, "done", turns[2].Text)

	require.Len(t, decider.decisions, 2)
	first, second := decider.decisions[0], decider.decisions[1]
	assert.Equal(t, "sys", first.SystemPrompt)
	assert.Equal(t, "say hello", first.Input)
	assert.Empty(t, first.History)
	assert.Empty(t, first.Scratchpad)
	assert.Equal(t, 1, first.Iteration)
	require.Len(t, first.Tools, 1)
	assert.Equal(t, "echo", first.Tools[0].Name)
	assert.NotEmpty(t, first.OutputSchema)
	require.Len(t, second.Scratchpad, 1)
	assert.Equal(t, "echo", second.Scratchpad[0].Invocation.ToolName)
}

func TestOrchestrator_HistoryCarriesAcrossRequests(t *testing.T) {
	registry, _ := newRegistry(t)
	mem := memory.NewLog()
	o := NewOrchestrator(&scriptedDecider{actions: []Action{final("first answer")}}, registry, 5)
	_, err := o.Run(context.Background(), mem, Request{Input: "one"})
	require.NoError(t, err)

	decider := &scriptedDecider{actions: []Action{final("second answer")}}
	_, err = NewOrchestrator(decider, registry, 5).Run(context.Background(), mem, Request{Input: "two"})
	require.NoError(t, err)

	history := decider.decisions[0].History
	require.Len(t, history, 2)
	assert.Equal(t, "one", history[0].Text)
	assert.Equal(t, "first answer", history[1].Text)
	assert.Equal(t, 4, mem.Len())
}

func TestOrchestrator_IterationCap(t *testing.T) {
	registry, tool := newRegistry(t)
	decider := &scriptedDecider{actions: []Action{callEcho("", `{"text":"again"}`)}}

	for _, limit := range []int{1, 3, 15} {
		decider.decisions = nil
		tool.calls.Store(0)

		result, err := NewOrchestrator(decider, registry, limit).Run(context.Background(), memory.NewLog(), Request{Input: "loop forever"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIterationCapExceeded))
		require.NotNil(t, result)
		assert.Equal(t, StateFailed, result.State)
		assert.NotEmpty(t, result.Reason)
		assert.Empty(t, result.Output)
		assert.Equal(t, limit, result.Iterations)
		assert.Len(t, decider.decisions, limit)
		assert.Equal(t, int32(limit), tool.calls.Load())
	}
}

func TestOrchestrator_RequestCapOverridesDefault(t *testing.T) {
	registry, _ := newRegistry(t)
	decider := &scriptedDecider{actions: []Action{callEcho("", `{"text":"x"}`)}}

	_, err := NewOrchestrator(decider, registry, 0).Run(context.Background(), memory.NewLog(), Request{Input: "x", MaxIterations: 2})
	require.ErrorIs(t, err, ErrIterationCapExceeded)
	assert.Len(t, decider.decisions, 2)

	decider.decisions = nil
	_, err = NewOrchestrator(decider, registry, 0).Run(context.Background(), memory.NewLog(), Request{Input: "x"})
	require.ErrorIs(t, err, ErrIterationCapExceeded)
	assert.Len(t, decider.decisions, DefaultMaxIterations)
}

func TestOrchestrator_InvalidArgumentsAreNotExecuted(t *testing.T) {
	registry, tool := newRegistry(t)
	decider := &scriptedDecider{actions: []Action{
		callEcho("call_bad", `{"wrong":1}`),
		{Kind: ActionCallTools, Calls: []ToolCallRequest{{ID: "call_ghost", Name: "ghost", Arguments: json.RawMessage(`{}`)}}},
		final("gave up"),
	}}
	mem := memory.NewLog()

	result, err := NewOrchestrator(decider, registry, 5).Run(context.Background(), mem, Request{Input: "x"})
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.Zero(t, tool.calls.Load())

	require.Len(t, result.ToolCalls, 2)
	assert.True(t, result.ToolCalls[0].IsError)
	assert.Contains(t, result.ToolCalls[0].Result, "invalid arguments")
	assert.True(t, result.ToolCalls[1].IsError)
	assert.Contains(t, result.ToolCalls[1].Result, "tool not found")

	scratch := decider.decisions[2].Scratchpad
	require.Len(t, scratch, 2)
	assert.True(t, scratch[0].Invocation.IsError)
}

func TestOrchestrator_PlainTextFallback(t *testing.T) {
	registry, _ := newRegistry(t)
	decider := &scriptedDecider{actions: []Action{final("Here is your report:\n- item")}}

	result, err := NewOrchestrator(decider, registry, 5).Run(context.Background(), memory.NewLog(), Request{Input: "x"})
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.False(t, result.Structured)
	assert.Equal(t, "Here is your report:\n- item", result.Output)
}

func TestOrchestrator_EmptyToolCallsIsFinalAnswer(t *testing.T) {
	registry, _ := newRegistry(t)
	decider := &scriptedDecider{actions: []Action{{Kind: ActionCallTools, Answer: `{"result":"ok"}`}}}

	result, err := NewOrchestrator(decider, registry, 5).Run(context.Background(), memory.NewLog(), Request{Input: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Output)
}

func TestOrchestrator_DeciderErrorIsFatal(t *testing.T) {
	registry, _ := newRegistry(t)
	boom := errors.New("provider outage")
	decider := DeciderFunc(func(context.Context, Decision) (Action, error) { return Action{}, boom })

	result, err := NewOrchestrator(decider, registry, 5).Run(context.Background(), memory.NewLog(), Request{Input: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, 1, result.Iterations)
}

func TestOrchestrator_CanceledContext(t *testing.T) {
	registry, _ := newRegistry(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	decider := &scriptedDecider{actions: []Action{final("never")}}
	result, err := NewOrchestrator(decider, registry, 5).Run(ctx, memory.NewLog(), Request{Input: "x"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, result.State)
	assert.Empty(t, decider.decisions)
}

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MimeLyc/sales-copilot/internal/memory"
	"github.com/MimeLyc/sales-copilot/internal/tools"
	"github.com/MimeLyc/sales-copilot/pkg/log"
)

// DefaultMaxIterations bounds model steps per request
const DefaultMaxIterations = 15

// Orchestrator manages the agent loop for tool calling
type Orchestrator struct {
	decider       Decider
	registry      *tools.Registry
	maxIterations int
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(decider Decider, registry *tools.Registry, maxIterations int) *Orchestrator {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if registry == nil {
		registry = tools.NewRegistry()
	}
	return &Orchestrator{
		decider:       decider,
		registry:      registry,
		maxIterations: maxIterations,
	}
}

// Run executes the agent loop for one request, appending its turns to mem.
//
// Each iteration is one model step. Tool calls are validated before they run;
// invalid or unknown calls become error observations and the loop continues.
// When the cap is reached the returned Result has StateFailed and the error
// wraps ErrIterationCapExceeded.
func (o *Orchestrator) Run(ctx context.Context, mem *memory.Log, req Request) (*Result, error) {
	maxIterations := o.maxIterations
	if req.MaxIterations > 0 {
		maxIterations = req.MaxIterations
	}

	result := &Result{
		ToolCalls: make([]ToolCallRecord, 0),
		State:     StateAwaitingModel,
	}

	history := mem.Turns()
	mem.Append(memory.Human(req.Input))
	requestStart := mem.Len()

	descriptors := o.registry.Descriptors()

	for i := 0; i < maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return o.fail(result, err.Error()), err
		}

		result.Iterations++
		result.State = StateAwaitingModel

		action, err := o.decider.Decide(ctx, Decision{
			SystemPrompt: req.SystemPrompt,
			History:      history,
			Input:        req.Input,
			Scratchpad:   mem.Since(requestStart),
			Tools:        descriptors,
			OutputSchema: OutputSchema(),
			Iteration:    i + 1,
		})
		if err != nil {
			o.fail(result, err.Error())
			return result, fmt.Errorf("model call failed at iteration %d: %w", i+1, err)
		}

		if action.Kind == ActionCallTools && len(action.Calls) == 0 {
			action.Kind = ActionFinalAnswer
		}

		switch action.Kind {
		case ActionFinalAnswer:
			output, err := ParseFinalAnswer(action.Answer)
			if err != nil {
				log.Warn("Final answer used as raw text: %v", err)
			}
			result.Raw = action.Answer
			result.Output = output
			result.Structured = err == nil
			result.State = StateDone
			mem.Append(memory.FinalAnswer(output))
			return result, nil

		case ActionCallTools:
			result.State = StateExecutingTool
			for _, call := range action.Calls {
				record := o.executeTool(ctx, call)
				result.ToolCalls = append(result.ToolCalls, record)
				mem.Append(memory.ToolCall(memory.ToolInvocation{
					CallID:    record.CallID,
					ToolName:  record.ToolName,
					Arguments: json.RawMessage(record.Arguments),
					Result:    record.Result,
					IsError:   record.IsError,
				}))

				log.Info("Tool %s executed: error=%v", call.Name, record.IsError)
			}

		default:
			o.fail(result, fmt.Sprintf("unknown action kind %d", action.Kind))
			return result, fmt.Errorf("unknown action kind %d at iteration %d", action.Kind, i+1)
		}
	}

	reason := fmt.Sprintf("stopped after %d steps without a final answer; "+
		"try a more specific request, for example include both the prospect's profile URL and the company website", maxIterations)
	o.fail(result, reason)
	return result, fmt.Errorf("%w: %s", ErrIterationCapExceeded, reason)
}

func (o *Orchestrator) fail(result *Result, reason string) *Result {
	result.State = StateFailed
	result.Reason = reason
	return result
}

func (o *Orchestrator) executeTool(ctx context.Context, call ToolCallRequest) ToolCallRecord {
	if call.ID == "" {
		call.ID = "call_" + uuid.NewString()
	}
	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	record := ToolCallRecord{
		CallID:    call.ID,
		ToolName:  call.Name,
		Arguments: string(args),
	}

	toolResult, err := o.registry.Execute(ctx, call.Name, args)
	if err != nil {
		var argErr *tools.ArgumentError
		switch {
		case errors.As(err, &argErr):
			log.Warn("Tool %s not executed: %v", call.Name, err)
		case errors.Is(err, tools.ErrToolNotFound):
			log.Warn("Model requested unknown tool %q", call.Name)
		default:
			log.Error("Tool %s failed: %v", call.Name, err)
		}
	}

	record.Result = toolResult.Content
	record.IsError = toolResult.IsError
	return record
}

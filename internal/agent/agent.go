package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/MimeLyc/sales-copilot/internal/memory"
	"github.com/MimeLyc/sales-copilot/internal/tools"
)

// Options configure an Agent
type Options struct {
	// SystemPrompt replaces DefaultSystemPrompt; format instructions are always appended
	SystemPrompt string

	// MaxIterations caps model steps per request. Default: 15
	MaxIterations int

	// RunTimeout bounds a whole Run when > 0
	RunTimeout time.Duration
}

// Agent runs requests of one conversation against its memory
type Agent struct {
	orchestrator *Orchestrator
	memory       *memory.Log
	systemPrompt string
	runTimeout   time.Duration
}

// NewAgent creates an agent over the given decider and tools. A nil mem starts a new conversation.
func NewAgent(decider Decider, registry *tools.Registry, mem *memory.Log, opts Options) *Agent {
	if mem == nil {
		mem = memory.NewLog()
	}
	return &Agent{
		orchestrator: NewOrchestrator(decider, registry, opts.MaxIterations),
		memory:       mem,
		systemPrompt: BuildSystemPrompt(opts.SystemPrompt),
		runTimeout:   opts.RunTimeout,
	}
}

// NewLLMAgent creates an agent that decides with an OpenAI-compatible chat model
func NewLLMAgent(client ChatClient, registry *tools.Registry, mem *memory.Log, opts Options) *Agent {
	return NewAgent(NewLLMDecider(client), registry, mem, opts)
}

// Run answers one user request. Iteration cap exhaustion and model failures
// are returned as errors carrying a readable reason.
func (a *Agent) Run(ctx context.Context, input string) (string, error) {
	result, err := a.Execute(ctx, input)
	if err != nil {
		return "", err
	}
	return result.Output, nil
}

// Execute is Run returning the full Result
func (a *Agent) Execute(ctx context.Context, input string) (*Result, error) {
	if a.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.runTimeout)
		defer cancel()
	}

	result, err := a.orchestrator.Run(ctx, a.memory, Request{
		SystemPrompt: a.systemPrompt,
		Input:        input,
	})
	if err != nil {
		return result, fmt.Errorf("agent run failed: %w", err)
	}
	return result, nil
}

// Memory returns the conversation log
func (a *Agent) Memory() *memory.Log {
	return a.memory
}

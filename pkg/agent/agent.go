// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent ties a provider, a conversation memory, and a tool registry
// into a caller-driven run loop.
package agent

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jllopis/agora/pkg/core"
	"github.com/jllopis/agora/pkg/errors"
	"github.com/jllopis/agora/pkg/llm"
	"github.com/jllopis/agora/pkg/memory"
	"github.com/jllopis/agora/pkg/telemetry"
	"github.com/jllopis/agora/pkg/tool"
)

const defaultMaxToolRounds = 5

// Agent drives one conversation: it appends the user's input to memory,
// asks the provider for a completion, resolves any tool calls through the
// registry, and returns the final assistant message. Single-threaded,
// caller-driven.
type Agent struct {
	name          string
	provider      llm.Provider
	model         string
	memory        *memory.AgentMemory
	tools         *tool.Registry
	maxToolRounds int
	temperature   float64
	logger        *slog.Logger
	metrics       *telemetry.Metrics
}

// Option configures an Agent instance.
type Option func(*Agent) error

// New creates a new Agent with a required name and provider.
func New(name string, provider llm.Provider, opts ...Option) (*Agent, error) {
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "agent name is required", nil)
	}
	if provider == nil {
		return nil, errors.New(errors.CodeConfiguration, "agent provider is required", nil)
	}
	a := &Agent{
		name:          name,
		provider:      provider,
		maxToolRounds: defaultMaxToolRounds,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.memory == nil {
		a.memory = memory.NewAgentMemory(name, 20)
	}
	return a, nil
}

// WithModel sets the model passed to the provider.
func WithModel(model string) Option {
	return func(a *Agent) error {
		a.model = model
		return nil
	}
}

// WithMemory attaches a conversation memory. Default is a fresh memory
// capped at 20 messages.
func WithMemory(mem *memory.AgentMemory) Option {
	return func(a *Agent) error {
		a.memory = mem
		return nil
	}
}

// WithSystemPrompt pins a system prompt in the agent's memory.
func WithSystemPrompt(text string) Option {
	return func(a *Agent) error {
		if a.memory == nil {
			a.memory = memory.NewAgentMemory(a.name, 20)
		}
		a.memory.SetSystemPrompt(text)
		return nil
	}
}

// WithTools binds a tool registry; its definitions ride on every chat call.
func WithTools(registry *tool.Registry) Option {
	return func(a *Agent) error {
		a.tools = registry
		return nil
	}
}

// WithMaxToolRounds caps how many provider/tool round trips one Run may take.
func WithMaxToolRounds(n int) Option {
	return func(a *Agent) error {
		if n < 1 {
			return errors.New(errors.CodeValidation, "maxToolRounds must be >= 1", nil)
		}
		a.maxToolRounds = n
		return nil
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temp float64) Option {
	return func(a *Agent) error {
		a.temperature = temp
		return nil
	}
}

// WithMetrics attaches operation counters; tool invocations and provider
// failures are recorded per turn. Nil is allowed and records nothing.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(a *Agent) error {
		a.metrics = metrics
		return nil
	}
}

// WithLogger sets the agent logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) error {
		if logger != nil {
			a.logger = logger
		}
		return nil
	}
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Memory returns the agent's conversation memory.
func (a *Agent) Memory() *memory.AgentMemory { return a.memory }

// Run executes one conversational turn and returns the assistant's final
// text. Tool calls are resolved through the registry between provider
// rounds; a tool failure is reported back to the model as the tool result
// rather than aborting the turn.
func (a *Agent) Run(ctx context.Context, input string) (string, error) {
	ctx, _ = core.EnsureRunID(ctx)
	a.memory.AddUser(input)

	var defs []llm.Tool
	if a.tools != nil {
		defs = a.tools.Definitions()
	}

	for round := 0; round < a.maxToolRounds; round++ {
		resp, err := a.provider.Chat(ctx, llm.ChatRequest{
			Model:       a.model,
			Messages:    a.memory.History(),
			Tools:       defs,
			Temperature: a.temperature,
		})
		if err != nil {
			a.metrics.RecordError(ctx, err, "agent")
			return "", err
		}

		if len(resp.ToolCalls) == 0 || a.tools == nil {
			a.memory.AddAssistant(resp.Content)
			return resp.Content, nil
		}

		a.memory.AddMessage(llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			a.memory.AddMessage(llm.Message{
				Role:       llm.RoleTool,
				Content:    a.resolveToolCall(ctx, call),
				ToolCallID: call.ID,
			})
		}
	}

	return "", errors.Newf(errors.CodeToolExecution,
		"agent %q exceeded %d tool rounds", a.name, a.maxToolRounds)
}

func (a *Agent) resolveToolCall(ctx context.Context, call llm.ToolCall) string {
	name := call.Function.Name
	args := map[string]any{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			a.logger.Warn("tool call has malformed arguments", "agent", a.name, "tool", name, "error", err)
			return "error: malformed tool arguments: " + err.Error()
		}
	}

	result, err := a.tools.Invoke(ctx, name, args)
	a.metrics.RecordToolInvocation(ctx, name, err)
	if err != nil {
		a.logger.Warn("tool call failed", "agent", a.name, "tool", name, "error", err)
		return "error: " + err.Error()
	}
	return renderToolResult(result)
}

func renderToolResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return "unrenderable tool result"
	}
}

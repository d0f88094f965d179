// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jllopis/agora/pkg/core"
	"github.com/jllopis/agora/pkg/errors"
	"github.com/jllopis/agora/pkg/llm"
	"github.com/jllopis/agora/pkg/memory"
	"github.com/jllopis/agora/pkg/telemetry"
	"github.com/jllopis/agora/pkg/tool"
)

func TestNewValidation(t *testing.T) {
	if _, err := New("", llm.NewScriptedMockProvider("hi")); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := New("bot", nil); !errors.HasCode(err, errors.CodeConfiguration) {
		t.Errorf("nil provider: got %v", err)
	}
	if _, err := New("bot", llm.NewScriptedMockProvider(), WithMaxToolRounds(0)); err == nil {
		t.Error("expected error for zero tool rounds")
	}
}

func TestRunSimpleTurn(t *testing.T) {
	provider := llm.NewScriptedMockProvider("hello there")
	a, err := New("bot", provider, WithSystemPrompt("be brief"))
	if err != nil {
		t.Fatal(err)
	}

	out, err := a.Run(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "hello there" {
		t.Errorf("out = %q", out)
	}

	history := a.Memory().History()
	if len(history) != 3 {
		t.Fatalf("history = %+v", history)
	}
	if history[0].Role != llm.RoleSystem || history[0].Content != "be brief" {
		t.Errorf("system = %+v", history[0])
	}
	if history[1].Role != llm.RoleUser || history[2].Role != llm.RoleAssistant {
		t.Errorf("roles = %s, %s", history[1].Role, history[2].Role)
	}
}

func TestRunResolvesToolCalls(t *testing.T) {
	registry := tool.NewRegistry()
	if err := tool.RegisterBuiltins(registry); err != nil {
		t.Fatal(err)
	}

	provider := llm.NewScriptedMockProvider()
	provider.AddToolCallResponse("call-1", "calculate", `{"expression":"6*7"}`)
	provider.AddResponse("the answer is 42")

	a, err := New("bot", provider, WithTools(registry))
	if err != nil {
		t.Fatal(err)
	}

	out, err := a.Run(context.Background(), "what is six times seven?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "the answer is 42" {
		t.Errorf("out = %q", out)
	}
	if provider.CallCount != 2 {
		t.Errorf("provider called %d times", provider.CallCount)
	}

	// The tool round trip must be visible in the history: assistant message
	// carrying the call, then a tool message carrying the result.
	history := a.Memory().History()
	var sawCall, sawResult bool
	for _, msg := range history {
		if msg.Role == llm.RoleAssistant && len(msg.ToolCalls) > 0 {
			sawCall = true
		}
		if msg.Role == llm.RoleTool && msg.ToolCallID == "call-1" && msg.Content == "42" {
			sawResult = true
		}
	}
	if !sawCall || !sawResult {
		t.Errorf("tool round trip missing from history: %+v", history)
	}
}

func TestRunToolFailureIsReportedToModel(t *testing.T) {
	registry := tool.NewRegistry()
	registry.Register(tool.Spec{
		Name: "flaky",
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, errors.New(errors.CodeToolExecution, "flaky broke", nil)
		},
	})

	provider := llm.NewScriptedMockProvider()
	provider.AddToolCallResponse("call-1", "flaky", `{}`)
	provider.AddResponse("recovered")

	a, _ := New("bot", provider, WithTools(registry))
	out, err := a.Run(context.Background(), "try the tool")
	if err != nil {
		t.Fatalf("tool failure must not abort the turn: %v", err)
	}
	if out != "recovered" {
		t.Errorf("out = %q", out)
	}

	var toolMsg string
	for _, msg := range a.Memory().History() {
		if msg.Role == llm.RoleTool {
			toolMsg = msg.Content
		}
	}
	if !strings.Contains(toolMsg, "flaky broke") {
		t.Errorf("tool message = %q", toolMsg)
	}
}

func TestRunExceedsToolRounds(t *testing.T) {
	registry := tool.NewRegistry()
	registry.Register(tool.Spec{
		Name: "noop",
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return "ok", nil
		},
	})

	provider := llm.NewScriptedMockProvider()
	for i := 0; i < 3; i++ {
		provider.AddToolCallResponse("call", "noop", `{}`)
	}

	a, _ := New("bot", provider, WithTools(registry), WithMaxToolRounds(2))
	_, err := a.Run(context.Background(), "loop forever")
	if !errors.HasCode(err, errors.CodeToolExecution) {
		t.Fatalf("expected TOOL_EXECUTION_ERROR, got %v", err)
	}
	if provider.CallCount != 2 {
		t.Errorf("provider called %d times, want 2", provider.CallCount)
	}
}

func TestRunPropagatesProviderError(t *testing.T) {
	provider := &llm.ScriptedMockProvider{Err: errors.New(errors.CodeProvider, "backend down", nil)}
	a, _ := New("bot", provider)

	_, err := a.Run(context.Background(), "hi")
	if !errors.HasCode(err, errors.CodeProvider) {
		t.Fatalf("got %v", err)
	}
}

func TestRunAttachesRunID(t *testing.T) {
	var seen string
	provider := &llm.MockProvider{
		ChatFunc: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			seen, _ = core.RunID(ctx)
			return &llm.ChatResponse{Content: "ok"}, nil
		},
	}
	a, _ := New("bot", provider)

	if _, err := a.Run(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	if seen == "" {
		t.Error("provider context carries no run id")
	}

	// An existing run id must survive the turn untouched.
	ctx := core.WithRunID(context.Background(), "run-fixed")
	if _, err := a.Run(ctx, "again"); err != nil {
		t.Fatal(err)
	}
	if seen != "run-fixed" {
		t.Errorf("run id = %q, want run-fixed", seen)
	}
}

func TestRunRecordsToolAndErrorCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		t.Fatal(err)
	}

	registry := tool.NewRegistry()
	registry.Register(tool.Spec{
		Name: "noop",
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return "ok", nil
		},
	})

	provider := llm.NewScriptedMockProvider()
	provider.AddToolCallResponse("call-1", "noop", `{}`)
	provider.AddResponse("done")

	a, _ := New("bot", provider, WithTools(registry), WithMetrics(metrics))
	if _, err := a.Run(context.Background(), "use the tool"); err != nil {
		t.Fatal(err)
	}

	failing := &llm.ScriptedMockProvider{Err: errors.New(errors.CodeProvider, "backend down", nil)}
	b, _ := New("bot", failing, WithMetrics(metrics))
	if _, err := b.Run(context.Background(), "hi"); err == nil {
		t.Fatal("expected provider error")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	recorded := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			recorded[m.Name] = true
		}
	}
	if !recorded["agora.tool.invocations"] {
		t.Error("tool invocation counter not recorded")
	}
	if !recorded["agora.errors.total"] {
		t.Error("error counter not recorded")
	}
}

func TestRunUsesAttachedMemory(t *testing.T) {
	mem := memory.NewAgentMemory("bot", 10)
	mem.AddUser("earlier question")
	mem.AddAssistant("earlier answer")

	provider := llm.NewScriptedMockProvider("with context")
	a, _ := New("bot", provider, WithMemory(mem), WithModel("test-model"))

	if _, err := a.Run(context.Background(), "follow-up"); err != nil {
		t.Fatal(err)
	}
	if mem.Len() != 4 {
		t.Errorf("memory len = %d", mem.Len())
	}
}

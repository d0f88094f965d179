// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/agora/pkg/tool"
)

type fakeCaller struct {
	lastName string
	lastArgs map[string]interface{}
	result   *mcp.CallToolResult
	err      error
}

func (f *fakeCaller) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	f.lastName = name
	f.lastArgs = args
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func echoTool() mcp.Tool {
	return mcp.NewTool("echo",
		mcp.WithDescription("echoes input"),
		mcp.WithString("message", mcp.Required()),
	)
}

func TestToolAdapterCall(t *testing.T) {
	caller := &fakeCaller{result: mcp.NewToolResultText("pong")}
	adapter, err := NewToolAdapter(echoTool(), caller)
	if err != nil {
		t.Fatalf("NewToolAdapter: %v", err)
	}

	out, err := adapter.Call(context.Background(), map[string]interface{}{"message": "ping"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out != "pong" {
		t.Errorf("out = %v", out)
	}
	if caller.lastName != "echo" || caller.lastArgs["message"] != "ping" {
		t.Errorf("caller saw %q %v", caller.lastName, caller.lastArgs)
	}
}

func TestToolAdapterNormalizesStringArgs(t *testing.T) {
	caller := &fakeCaller{}
	adapter, _ := NewToolAdapter(echoTool(), caller)

	if _, err := adapter.Call(context.Background(), `{"message":"hi"}`); err != nil {
		t.Fatalf("JSON string input: %v", err)
	}
	if caller.lastArgs["message"] != "hi" {
		t.Errorf("args = %v", caller.lastArgs)
	}
}

func TestToolAdapterMissingRequired(t *testing.T) {
	caller := &fakeCaller{}
	adapter, _ := NewToolAdapter(echoTool(), caller)

	_, err := adapter.Call(context.Background(), map[string]interface{}{})
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
	if caller.lastName != "" {
		t.Error("caller was invoked despite validation failure")
	}
}

func TestToolAdapterErrorResult(t *testing.T) {
	caller := &fakeCaller{result: mcp.NewToolResultError("boom")}
	adapter, _ := NewToolAdapter(echoTool(), caller)

	_, err := adapter.Call(context.Background(), map[string]interface{}{"message": "x"})
	if err == nil {
		t.Fatal("expected error from IsError result")
	}
}

func TestToolAdapterRegisterInto(t *testing.T) {
	caller := &fakeCaller{result: mcp.NewToolResultText("remote says hi")}
	adapter, _ := NewToolAdapter(echoTool(), caller)

	registry := tool.NewRegistry()
	if err := adapter.RegisterInto(registry); err != nil {
		t.Fatalf("RegisterInto: %v", err)
	}

	out, err := registry.Invoke(context.Background(), "echo", map[string]any{"message": "hi"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "remote says hi" {
		t.Errorf("out = %v", out)
	}

	// Registering again collides with the existing name.
	if err := adapter.RegisterInto(registry); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestToolAdapterDefinition(t *testing.T) {
	adapter, _ := NewToolAdapter(echoTool(), &fakeCaller{})

	def := adapter.ToolDefinition()
	if def.Function.Name != "echo" {
		t.Errorf("name = %q", def.Function.Name)
	}
	if def.Function.Description != "echoes input" {
		t.Errorf("description = %q", def.Function.Description)
	}
}

func TestNormalizeToolArgs(t *testing.T) {
	cases := []struct {
		input   any
		wantKey string
		wantVal any
	}{
		{nil, "", nil},
		{map[string]interface{}{"a": 1}, "a", 1},
		{`{"b":"two"}`, "b", "two"},
		{"plain text", "input", "plain text"},
		{struct {
			C string `json:"c"`
		}{"three"}, "c", "three"},
	}
	for i, tc := range cases {
		args, err := normalizeToolArgs(tc.input)
		if err != nil {
			t.Errorf("case %d: %v", i, err)
			continue
		}
		if tc.wantKey == "" {
			if len(args) != 0 {
				t.Errorf("case %d: args = %v", i, args)
			}
			continue
		}
		if fmt.Sprint(args[tc.wantKey]) != fmt.Sprint(tc.wantVal) {
			t.Errorf("case %d: args[%s] = %v, want %v", i, tc.wantKey, args[tc.wantKey], tc.wantVal)
		}
	}
}

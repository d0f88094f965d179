// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"testing"

	"github.com/jllopis/agora/pkg/errors"
)

func echoSpec(name string) Spec {
	return Spec{
		Name:        name,
		Description: "echoes its input",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []string{"text"},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		},
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	first := echoSpec("echo")
	if err := r.Register(first); err != nil {
		t.Fatalf("Register: %v", err)
	}

	second := echoSpec("echo")
	second.Handler = func(_ context.Context, _ map[string]any) (any, error) {
		return "second", nil
	}
	err := r.Register(second)
	if !errors.HasCode(err, errors.CodeDuplicateName) {
		t.Fatalf("expected DUPLICATE_NAME, got %v", err)
	}

	// First registration stays active.
	out, err := r.Invoke(context.Background(), "echo", map[string]any{"text": "hi"})
	if err != nil || out != "hi" {
		t.Errorf("first handler replaced: %v, %v", out, err)
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Invoke(context.Background(), "ghost", nil)
	if !errors.HasCode(err, errors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestInvokeValidation(t *testing.T) {
	r := NewRegistry()
	r.Register(echoSpec("echo"))
	ctx := context.Background()

	_, err := r.Invoke(ctx, "echo", map[string]any{})
	if !errors.HasCode(err, errors.CodeValidation) {
		t.Errorf("missing required arg: expected VALIDATION_ERROR, got %v", err)
	}

	_, err = r.Invoke(ctx, "echo", map[string]any{"text": 42})
	if !errors.HasCode(err, errors.CodeValidation) {
		t.Errorf("wrong type: expected VALIDATION_ERROR, got %v", err)
	}
}

func TestInvokeHandlerError(t *testing.T) {
	r := NewRegistry()
	r.Register(Spec{
		Name: "broken",
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			return nil, fmt.Errorf("downstream unavailable")
		},
	})

	_, err := r.Invoke(context.Background(), "broken", nil)
	if !errors.HasCode(err, errors.CodeToolExecution) {
		t.Errorf("expected TOOL_EXECUTION_ERROR, got %v", err)
	}
}

func TestInvokeHandlerPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(Spec{
		Name: "panicky",
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			panic("nil map write")
		},
	})

	_, err := r.Invoke(context.Background(), "panicky", nil)
	if !errors.HasCode(err, errors.CodeToolExecution) {
		t.Errorf("panic should surface as TOOL_EXECUTION_ERROR, got %v", err)
	}
}

func TestNamesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"c", "a", "b"} {
		r.Register(echoSpec(n))
	}
	names := r.Names()
	if len(names) != 3 || names[0] != "c" || names[1] != "a" || names[2] != "b" {
		t.Errorf("Names = %v, want registration order", names)
	}
}

func TestDefinitions(t *testing.T) {
	r := NewRegistry()
	r.Register(echoSpec("echo"))
	r.Register(Spec{
		Name:    "bare",
		Handler: func(_ context.Context, _ map[string]any) (any, error) { return nil, nil },
	})

	defs := r.Definitions()
	if len(defs) != 2 {
		t.Fatalf("definitions = %d", len(defs))
	}
	if defs[0].Function.Name != "echo" || defs[0].Type != "function" {
		t.Errorf("defs[0] = %+v", defs[0])
	}
	// Tools without a schema get an empty object schema.
	params, ok := defs[1].Function.Parameters.(map[string]any)
	if !ok || params["type"] != "object" {
		t.Errorf("bare schema = %v", defs[1].Function.Parameters)
	}
}

func TestValidateArgsTypes(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"n":    map[string]any{"type": "integer"},
			"f":    map[string]any{"type": "number"},
			"b":    map[string]any{"type": "boolean"},
			"list": map[string]any{"type": "array"},
		},
	}

	ok := map[string]any{"n": float64(3), "f": 1.5, "b": true, "list": []any{1}}
	if err := validateArgs(schema, ok); err != nil {
		t.Errorf("valid args rejected: %v", err)
	}

	if err := validateArgs(schema, map[string]any{"n": 3.5}); err == nil {
		t.Error("non-integral value accepted as integer")
	}
	// Undeclared args pass through.
	if err := validateArgs(schema, map[string]any{"extra": "anything"}); err != nil {
		t.Errorf("undeclared arg rejected: %v", err)
	}
}

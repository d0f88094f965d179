// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

// Package tool implements the schema-described tool registry agents expose
// to LLM providers.
package tool

import (
	"context"
	"sync"

	"github.com/jllopis/agora/pkg/errors"
	"github.com/jllopis/agora/pkg/llm"
)

// Handler executes a tool with already-validated arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Spec describes one tool: its wire-visible schema and its handler.
type Spec struct {
	Name        string
	Description string
	// InputSchema is a JSON-schema object ({"type":"object","properties":...,
	// "required":...}) describing the handler's arguments.
	InputSchema map[string]any
	Handler     Handler
}

// Registry holds uniquely named tools and dispatches invocations to them.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Spec
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Spec)}
}

// Register adds a tool. A second registration under the same name fails
// with DUPLICATE_NAME and leaves the first active.
func (r *Registry) Register(spec Spec) error {
	if spec.Name == "" {
		return errors.New(errors.CodeValidation, "tool name is required", nil)
	}
	if spec.Handler == nil {
		return errors.Newf(errors.CodeValidation, "tool %q has no handler", spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[spec.Name]; exists {
		return errors.Newf(errors.CodeDuplicateName, "tool %q already registered", spec.Name)
	}
	r.tools[spec.Name] = spec
	r.order = append(r.order, spec.Name)
	return nil
}

// Invoke validates args against the tool's schema and runs its handler.
// Unknown names fail NOT_FOUND, invalid arguments VALIDATION_ERROR, and
// handler errors or panics TOOL_EXECUTION_ERROR.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (result any, err error) {
	r.mu.RLock()
	spec, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Newf(errors.CodeNotFound, "tool %q not registered", name)
	}

	if err := validateArgs(spec.InputSchema, args); err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = errors.Newf(errors.CodeToolExecution, "tool %q panicked: %v", name, rec)
		}
	}()

	out, err := spec.Handler(ctx, args)
	if err != nil {
		return nil, errors.New(errors.CodeToolExecution, "tool "+name+" failed", err)
	}
	return out, nil
}

// Get returns the spec for name.
func (r *Registry) Get(name string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.tools[name]
	return spec, ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Definitions renders every tool as an llm.Tool for provider binding, in
// registration order. The transform is pure; handlers are not touched.
func (r *Registry) Definitions() []llm.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		spec := r.tools[name]
		schema := spec.InputSchema
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		defs = append(defs, llm.Tool{
			Type: llm.ToolTypeFunction,
			Function: llm.FunctionDef{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  schema,
			},
		})
	}
	return defs
}

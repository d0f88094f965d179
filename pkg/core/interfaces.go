// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package core

import "context"

// Tool is a callable capability, typically backed by the tool registry or an
// MCP server.
type Tool interface {
	Name() string
	Call(ctx context.Context, input any) (any, error)
}

// SharedStore is process-wide key-value state shared between agents.
// Implemented by memory.SharedMemory.
type SharedStore interface {
	Set(key string, value any)
	Get(key string, def any) any
	Delete(key string)
	Append(key string, value any) error
	Keys() []string
	Snapshot() map[string]any
	Clear()
}

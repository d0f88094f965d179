// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes Agora tools over the Model Context Protocol and
// consumes tools from remote MCP servers.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jllopis/agora/pkg/tool"
)

// Server wraps the mcp-go server. It holds no state between invocations;
// every tool call stands alone.
type Server struct {
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server.
func NewServer(name, version string) *Server {
	return &Server{
		mcpServer: server.NewMCPServer(name, version),
	}
}

// RegisterTool registers a single tool with the server. The schema is a
// JSON-schema object for the tool arguments; nil means no arguments.
func (s *Server) RegisterTool(name, description string, schema map[string]any, handler func(ctx context.Context, args map[string]any) (any, error)) {
	var t mcp.Tool
	if schema != nil {
		raw, err := json.Marshal(schema)
		if err == nil {
			t = mcp.NewToolWithRawSchema(name, description, raw)
		} else {
			t = mcp.NewTool(name, mcp.WithDescription(description))
		}
	} else {
		t = mcp.NewTool(name, mcp.WithDescription(description))
	}

	s.mcpServer.AddTool(t, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)
		out, err := handler(ctx, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(renderResult(out)), nil
	})
}

// Bind exposes every tool in the registry through this server. Invocations
// delegate to Registry.Invoke, so registry-side validation and error
// mapping apply; failures come back as MCP error results, not transport
// errors.
func (s *Server) Bind(registry *tool.Registry) {
	for _, name := range registry.Names() {
		spec, ok := registry.Get(name)
		if !ok {
			continue
		}
		toolName := spec.Name
		s.RegisterTool(toolName, spec.Description, spec.InputSchema,
			func(ctx context.Context, args map[string]any) (any, error) {
				return registry.Invoke(ctx, toolName, args)
			})
	}
}

// ServeStdio serves on stdin/stdout until the stream closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeStreamableHTTP serves the streamable HTTP transport on addr.
func (s *Server) ServeStreamableHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(addr)
}

// Underlying exposes the wrapped mcp-go server, mainly for tests.
func (s *Server) Underlying() *server.MCPServer {
	return s.mcpServer
}

func renderResult(out any) string {
	switch v := out.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprint(v)
	}
}

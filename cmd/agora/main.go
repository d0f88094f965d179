// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

// Command agora runs an agent as an A2A server or performs one-shot chat
// completions against the configured provider.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jllopis/agora/pkg/a2a"
	"github.com/jllopis/agora/pkg/agent"
	"github.com/jllopis/agora/pkg/config"
	"github.com/jllopis/agora/pkg/llm/factory"
	"github.com/jllopis/agora/pkg/mcp"
	"github.com/jllopis/agora/pkg/memory"
	"github.com/jllopis/agora/pkg/rag"
	ragfactory "github.com/jllopis/agora/pkg/rag/factory"
	"github.com/jllopis/agora/pkg/telemetry"
	"github.com/jllopis/agora/pkg/tool"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", "", "path to YAML config file")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}

	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitWithConfig("agora", version, telemetryConfig(cfg))
		if err != nil {
			fatal(err)
		}
		defer shutdown(context.Background())
	}

	switch args[0] {
	case "serve":
		err = runServe(ctx, cfg, logger)
	case "chat":
		err = runChat(ctx, cfg, args[1:])
	case "agents":
		err = runAgents(ctx, cfg, args[1:])
	case "version":
		fmt.Println("agora", version)
	default:
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func telemetryConfig(cfg *config.Config) telemetry.Config {
	tc := telemetry.Config{Exporter: "stdout"}
	if cfg.Telemetry.OTLPEndpoint != "" {
		tc.Exporter = "otlp"
		tc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
		tc.OTLPInsecure = true
	}
	return tc
}

// runServe exposes the configured agent over A2A. Every dispatched task runs
// one agent turn with the builtin tools available; a knowledge-search tool
// joins them when an embedder is configured, and the same registry is served
// over MCP when an MCP listen address is set.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	provider, err := factory.New(ctx, cfg.LLM)
	if err != nil {
		return err
	}

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled {
		if metrics, err = telemetry.NewMetrics(); err != nil {
			return err
		}
	}

	registry := tool.NewRegistry()
	if err := tool.RegisterBuiltins(registry); err != nil {
		return err
	}

	// The search tool needs a reachable embedder; serve degrades to the
	// builtin tools when it is not there.
	if store, err := ragfactory.NewFromConfig(ctx, cfg.RAG); err != nil {
		logger.Warn("retrieval store unavailable, serving without search_knowledge", "error", err)
	} else if err := registerSearchTool(registry, store, metrics); err != nil {
		return err
	}

	name := cfg.A2A.Name
	if name == "" {
		name = "agora"
	}

	card := a2a.AgentCard{
		Name:        name,
		Description: cfg.A2A.Description,
		Version:     cfg.A2A.Version,
		Skills:      cfg.A2A.Skills,
	}

	handler := func(ctx context.Context, task *a2a.Task) (string, error) {
		ag, err := agent.New(name, provider,
			agent.WithModel(cfg.LLM.Model),
			agent.WithMemory(memory.NewAgentMemory(name, cfg.Memory.MaxMessages)),
			agent.WithTools(registry),
			agent.WithTemperature(cfg.LLM.Temperature),
			agent.WithLogger(logger),
			agent.WithMetrics(metrics),
		)
		if err != nil {
			return "", err
		}
		result, err := ag.Run(ctx, task.Description)
		metrics.RecordChat(ctx, cfg.LLM.Provider, cfg.LLM.Model)
		metrics.RecordDispatch(ctx, name, err)
		return result, err
	}

	opts := []a2a.ServerOption{a2a.WithLogger(logger)}
	if cfg.A2A.TaskStore == "sqlite" {
		store, err := a2a.NewSQLiteTaskStore(cfg.A2A.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, a2a.WithTaskStore(store))
	}

	srv := a2a.NewServer(card, handler, opts...)

	if cfg.MCP.Addr != "" {
		mcpName := cfg.MCP.ServerName
		if mcpName == "" {
			mcpName = name + "-tools"
		}
		mcpSrv := mcp.NewServer(mcpName, version)
		mcpSrv.Bind(registry)
		go func() {
			if err := mcpSrv.ServeStreamableHTTP(cfg.MCP.Addr); err != nil {
				logger.Error("mcp server stopped", "error", err)
			}
		}()
		logger.Info("mcp server listening", "addr", cfg.MCP.Addr)
	}

	addr := cfg.A2A.Addr
	if addr == "" {
		addr = ":9000"
	}
	return srv.ListenAndServe(addr)
}

// registerSearchTool exposes the retrieval store to the model as a tool.
func registerSearchTool(registry *tool.Registry, store *rag.Store, metrics *telemetry.Metrics) error {
	return registry.Register(tool.Spec{
		Name:        "search_knowledge",
		Description: "Search the knowledge base and return the most relevant snippets",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to look for",
				},
			},
			"required": []string{"query"},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			metrics.RecordSearch(ctx, store.Collection())
			results, err := store.Search(ctx, query, 3)
			if err != nil {
				return nil, err
			}
			var sb strings.Builder
			for i, r := range results {
				fmt.Fprintf(&sb, "%d. %s\n", i+1, r.Text)
			}
			return sb.String(), nil
		},
	})
}

// runChat performs a one-shot completion. The prompt comes from the command
// line, or from stdin when absent.
func runChat(ctx context.Context, cfg *config.Config, args []string) error {
	prompt := strings.Join(args, " ")
	if strings.TrimSpace(prompt) == "" {
		scanner := bufio.NewScanner(os.Stdin)
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		prompt = strings.Join(lines, "\n")
	}
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("chat: empty prompt")
	}

	provider, err := factory.New(ctx, cfg.LLM)
	if err != nil {
		return err
	}

	ag, err := agent.New("agora", provider,
		agent.WithModel(cfg.LLM.Model),
		agent.WithTemperature(cfg.LLM.Temperature),
	)
	if err != nil {
		return err
	}

	out, err := ag.Run(ctx, prompt)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// runAgents registers the agents from the seed file (or the URLs given on
// the command line) and prints their cards.
func runAgents(ctx context.Context, cfg *config.Config, urls []string) error {
	network := a2a.NewNetwork(slog.Default())

	if len(urls) == 0 {
		if cfg.A2A.SeedFile == "" {
			return fmt.Errorf("agents: no URLs given and no seed file configured")
		}
		if err := network.LoadSeedFile(ctx, cfg.A2A.SeedFile); err != nil {
			return err
		}
	} else {
		for _, url := range urls {
			if _, err := network.Register(ctx, url); err != nil {
				return err
			}
		}
	}

	for _, card := range network.Cards() {
		fmt.Printf("%s\t%s\tskills=%s\n", card.Name, card.URL, strings.Join(card.Skills, ","))
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `agora — multi-agent LLM scaffold

Usage:
  agora [-config file.yaml] serve          run an A2A agent server
  agora [-config file.yaml] chat [prompt]  one-shot completion (stdin when no prompt)
  agora [-config file.yaml] agents [url…]  register and list agent cards
  agora version                            print version

Configuration is read from the YAML file, then AGORA_* environment
variables. A .env file in the working directory is loaded first.
`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "agora:", err)
	os.Exit(1)
}

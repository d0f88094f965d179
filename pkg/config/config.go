// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads Agora configuration from defaults, an optional YAML
// file, and AGORA_* environment variables, in that order of precedence.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	agoraerrors "github.com/jllopis/agora/pkg/errors"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	LLM       LLMConfig       `koanf:"llm"`
	Memory    MemoryConfig    `koanf:"memory"`
	RAG       RAGConfig       `koanf:"rag"`
	MCP       MCPConfig       `koanf:"mcp"`
	A2A       A2AConfig       `koanf:"a2a"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider    string  `koanf:"provider"` // ollama, openai, anthropic, gemini, mock
	Model       string  `koanf:"model"`
	BaseURL     string  `koanf:"base_url"`
	APIKey      string  `koanf:"api_key"`
	Temperature float64 `koanf:"temperature"`
}

type MemoryConfig struct {
	MaxMessages int `koanf:"max_messages"`
}

type RAGConfig struct {
	Backend         string `koanf:"backend"` // chromem, qdrant
	Collection      string `koanf:"collection"`
	PersistPath     string `koanf:"persist_path"` // chromem only; empty keeps it in memory
	QdrantAddr      string `koanf:"qdrant_addr"`
	EmbedderBaseURL string `koanf:"embedder_base_url"`
	EmbedderModel   string `koanf:"embedder_model"`
}

type MCPConfig struct {
	ServerName string `koanf:"server_name"`
	Addr       string `koanf:"addr"`
}

type A2AConfig struct {
	Name        string   `koanf:"name"`
	Description string   `koanf:"description"`
	Version     string   `koanf:"version"`
	Addr        string   `koanf:"addr"`
	Skills      []string `koanf:"skills"`
	TaskStore   string   `koanf:"task_store"` // memory, sqlite
	SQLitePath  string   `koanf:"sqlite_path"`
	SeedFile    string   `koanf:"seed_file"`
}

type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	OTLPEndpoint string `koanf:"otlp_endpoint"` // empty selects stdout exporters
}

// Load reads configuration in layers: a .env file when present, built-in
// defaults, the YAML file at path, then AGORA_* environment variables
// (AGORA_LLM_PROVIDER -> llm.provider). An empty path skips the file layer.
func Load(path string) (*Config, error) {
	// Credentials commonly live in .env during development. Absence is fine.
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	k := koanf.New(".")

	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("llm.provider", "ollama")
	k.Set("llm.model", "")
	k.Set("llm.base_url", "http://localhost:11434")
	k.Set("llm.temperature", 0.0)

	k.Set("memory.max_messages", 20)

	k.Set("rag.backend", "chromem")
	k.Set("rag.collection", "agora")
	k.Set("rag.qdrant_addr", "localhost:6334")
	k.Set("rag.embedder_base_url", "http://localhost:11434")
	k.Set("rag.embedder_model", "nomic-embed-text")

	k.Set("mcp.server_name", "agora")
	k.Set("mcp.addr", ":8765")

	k.Set("a2a.name", "agora-agent")
	k.Set("a2a.version", "0.1.0")
	k.Set("a2a.addr", ":8080")
	k.Set("a2a.task_store", "memory")

	k.Set("telemetry.enabled", false)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, agoraerrors.New(agoraerrors.CodeConfiguration, "loading config file "+path, err)
		}
	}

	if err := k.Load(env.Provider("AGORA_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "AGORA_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, agoraerrors.New(agoraerrors.CodeConfiguration, "loading environment", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, agoraerrors.New(agoraerrors.CodeConfiguration, "unmarshaling config", err)
	}

	return &cfg, nil
}

// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

// Package factory builds an llm.Provider from configuration. It lives apart
// from pkg/llm so the concrete provider packages can depend on the shared
// types without a cycle.
package factory

import (
	"context"

	"github.com/jllopis/agora/pkg/config"
	"github.com/jllopis/agora/pkg/errors"
	"github.com/jllopis/agora/pkg/llm"
	"github.com/jllopis/agora/pkg/llm/anthropic"
	"github.com/jllopis/agora/pkg/llm/gemini"
	"github.com/jllopis/agora/pkg/llm/openai"
)

// New selects and constructs a provider by cfg.Provider. Unknown provider
// names and missing credentials fail with CONFIGURATION_ERROR; the returned
// provider holds no conversation state.
func New(ctx context.Context, cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "", "ollama":
		return llm.NewOllama(cfg.BaseURL), nil
	case "openai":
		var opts []openai.Option
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithAPIKey(cfg.APIKey))
		}
		return openai.New(opts...)
	case "anthropic":
		var opts []anthropic.Option
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		if cfg.APIKey != "" {
			opts = append(opts, anthropic.WithAPIKey(cfg.APIKey))
		}
		return anthropic.New(opts...)
	case "gemini":
		var opts []gemini.Option
		if cfg.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.Model))
		}
		return gemini.New(ctx, cfg.APIKey, opts...)
	case "mock":
		return &llm.MockProvider{Response: "mock response"}, nil
	default:
		return nil, errors.Newf(errors.CodeConfiguration, "unknown llm provider %q", cfg.Provider)
	}
}

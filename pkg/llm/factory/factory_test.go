// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"context"
	"testing"

	"github.com/jllopis/agora/pkg/config"
	"github.com/jllopis/agora/pkg/errors"
	"github.com/jllopis/agora/pkg/llm"
)

func TestNewDefaultsToOllama(t *testing.T) {
	p, err := New(context.Background(), config.LLMConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := p.(*llm.OllamaProvider); !ok {
		t.Errorf("default provider = %T, want *llm.OllamaProvider", p)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{Provider: "watson"})
	if !errors.HasCode(err, errors.CodeConfiguration) {
		t.Errorf("unknown provider should fail CONFIGURATION_ERROR, got %v", err)
	}
}

func TestNewOpenAIWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New(context.Background(), config.LLMConfig{Provider: "openai"})
	if !errors.HasCode(err, errors.CodeConfiguration) {
		t.Errorf("missing key should fail CONFIGURATION_ERROR, got %v", err)
	}
}

func TestNewAnthropicWithoutKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := New(context.Background(), config.LLMConfig{Provider: "anthropic"})
	if !errors.HasCode(err, errors.CodeConfiguration) {
		t.Errorf("missing key should fail CONFIGURATION_ERROR, got %v", err)
	}
}

func TestNewGeminiWithoutKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	_, err := New(context.Background(), config.LLMConfig{Provider: "gemini"})
	if !errors.HasCode(err, errors.CodeConfiguration) {
		t.Errorf("missing key should fail CONFIGURATION_ERROR, got %v", err)
	}
}

func TestNewMock(t *testing.T) {
	p, err := New(context.Background(), config.LLMConfig{Provider: "mock"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := p.Chat(context.Background(), llm.ChatRequest{})
	if err != nil || resp.Content == "" {
		t.Errorf("mock chat = %v, %v", resp, err)
	}
}

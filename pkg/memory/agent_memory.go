// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory provides per-agent conversational memory and process-wide
// shared state.
package memory

import (
	"sync"

	"github.com/jllopis/agora/pkg/llm"
)

// AgentMemory is an ordered, bounded log of conversation messages for one
// agent. A system prompt, when set, is pinned outside the window so eviction
// never removes it. All operations are synchronous and in-memory.
type AgentMemory struct {
	mu           sync.RWMutex
	agentName    string
	maxMessages  int
	systemPrompt *llm.Message
	window       []llm.Message
}

// NewAgentMemory creates a memory for agentName holding at most maxMessages
// non-pinned messages. Values below 1 are clamped to 1.
func NewAgentMemory(agentName string, maxMessages int) *AgentMemory {
	if maxMessages < 1 {
		maxMessages = 1
	}
	return &AgentMemory{
		agentName:   agentName,
		maxMessages: maxMessages,
	}
}

// AgentName returns the owning agent's name.
func (m *AgentMemory) AgentName() string {
	return m.agentName
}

// SetSystemPrompt pins a single system message at the head of the history,
// replacing any previous one. It does not consume window capacity.
func (m *AgentMemory) SetSystemPrompt(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.systemPrompt = &llm.Message{Role: llm.RoleSystem, Content: text}
}

// Add appends a message, evicting the oldest windowed message when the
// window would exceed its cap. Messages are immutable once appended.
func (m *AgentMemory) Add(role llm.Role, content string) {
	m.AddMessage(llm.Message{Role: role, Content: content})
}

// AddMessage appends a full message, including tool calls or a tool call id.
func (m *AgentMemory) AddMessage(msg llm.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.window = append(m.window, msg)
	if len(m.window) > m.maxMessages {
		m.window = m.window[len(m.window)-m.maxMessages:]
	}
}

// AddUser appends a user message.
func (m *AgentMemory) AddUser(content string) {
	m.Add(llm.RoleUser, content)
}

// AddAssistant appends an assistant message.
func (m *AgentMemory) AddAssistant(content string) {
	m.Add(llm.RoleAssistant, content)
}

// History returns the pinned system prompt (when set) followed by the
// window, oldest first. The result never exceeds maxMessages+1 entries and
// is a copy the caller may hold.
func (m *AgentMemory) History() []llm.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]llm.Message, 0, len(m.window)+1)
	if m.systemPrompt != nil {
		out = append(out, *m.systemPrompt)
	}
	out = append(out, m.window...)
	return out
}

// LastN returns the newest n windowed messages, oldest first. The pinned
// system prompt is not included.
func (m *AgentMemory) LastN(n int) []llm.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	start := len(m.window) - n
	if start < 0 {
		start = 0
	}
	out := make([]llm.Message, len(m.window)-start)
	copy(out, m.window[start:])
	return out
}

// Len returns the number of windowed messages, excluding the pinned prompt.
func (m *AgentMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.window)
}

// Clear empties the window. The pinned system prompt survives.
func (m *AgentMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.window = nil
}

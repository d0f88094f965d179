// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2a implements lightweight agent-to-agent discovery and task
// dispatch over HTTP+JSON: agent cards at a well-known path, a dispatch
// endpoint, async task submission with pluggable persistence, and an
// in-process network directory.
package a2a

import "time"

// WellKnownPath is the discovery location for agent cards.
const WellKnownPath = "/.well-known/agent.json"

// Task lifecycle states.
const (
	TaskPending   = "pending"
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

// AgentCard describes an agent for discovery.
type AgentCard struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url"`
	Version     string   `json:"version,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	InputModes  []string `json:"input_modes,omitempty"`
	OutputModes []string `json:"output_modes,omitempty"`
}

// HasSkill reports whether the card lists the given skill.
func (c AgentCard) HasSkill(skill string) bool {
	for _, s := range c.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// Task is a unit of work submitted to an agent.
type Task struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	State       string            `json:"state"`
	Result      string            `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Terminal reports whether the task reached a final state.
func (t *Task) Terminal() bool {
	return t.State == TaskCompleted || t.State == TaskFailed
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := *t
	if t.CompletedAt != nil {
		done := *t.CompletedAt
		out.CompletedAt = &done
	}
	if t.Metadata != nil {
		out.Metadata = make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// DispatchRequest asks an agent to run a task synchronously.
type DispatchRequest struct {
	Task    string            `json:"task"`
	Context map[string]string `json:"context,omitempty"`
}

// DispatchReply is the synchronous dispatch envelope.
type DispatchReply struct {
	OK     bool   `json:"ok"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Message is a free-form note between agents.
type Message struct {
	ID          string            `json:"id"`
	Sender      string            `json:"sender"`
	Receiver    string            `json:"receiver,omitempty"`
	Content     string            `json:"content"`
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"fmt"
	"testing"

	"github.com/jllopis/agora/pkg/llm"
)

func TestAgentMemoryEviction(t *testing.T) {
	m := NewAgentMemory("tester", 3)
	m.SetSystemPrompt("be brief")

	for i := 0; i < 10; i++ {
		m.AddUser(fmt.Sprintf("msg-%d", i))
	}

	hist := m.History()
	if len(hist) != 4 { // pinned prompt + window of 3
		t.Fatalf("history length = %d, want 4", len(hist))
	}
	if hist[0].Role != llm.RoleSystem || hist[0].Content != "be brief" {
		t.Errorf("pinned prompt not at index 0: %+v", hist[0])
	}
	// Oldest windowed messages evicted, newest retained in order.
	want := []string{"msg-7", "msg-8", "msg-9"}
	for i, w := range want {
		if hist[i+1].Content != w {
			t.Errorf("hist[%d] = %q, want %q", i+1, hist[i+1].Content, w)
		}
	}
}

func TestAgentMemoryHistoryBound(t *testing.T) {
	m := NewAgentMemory("tester", 5)
	m.SetSystemPrompt("sys")
	for i := 0; i < 100; i++ {
		m.Add(llm.RoleUser, "u")
		m.Add(llm.RoleAssistant, "a")
		if got := len(m.History()); got > 6 {
			t.Fatalf("history grew past N+1: %d", got)
		}
	}
}

func TestSetSystemPromptReplaces(t *testing.T) {
	m := NewAgentMemory("tester", 5)
	m.SetSystemPrompt("first")
	m.SetSystemPrompt("second")

	hist := m.History()
	systemCount := 0
	for _, msg := range hist {
		if msg.Role == llm.RoleSystem {
			systemCount++
			if msg.Content != "second" {
				t.Errorf("system prompt = %q, want second", msg.Content)
			}
		}
	}
	if systemCount != 1 {
		t.Errorf("system message count = %d, want 1", systemCount)
	}
}

func TestAgentMemoryClampsWindow(t *testing.T) {
	m := NewAgentMemory("tester", 0)
	m.AddUser("one")
	m.AddUser("two")
	if m.Len() != 1 {
		t.Errorf("window of clamped size 1 holds %d messages", m.Len())
	}
	if got := m.History(); len(got) != 1 || got[0].Content != "two" {
		t.Errorf("history = %+v", got)
	}
}

func TestAgentMemoryLastN(t *testing.T) {
	m := NewAgentMemory("tester", 10)
	m.SetSystemPrompt("sys")
	for _, c := range []string{"a", "b", "c"} {
		m.AddUser(c)
	}

	last2 := m.LastN(2)
	if len(last2) != 2 || last2[0].Content != "b" || last2[1].Content != "c" {
		t.Errorf("LastN(2) = %+v", last2)
	}
	if got := m.LastN(99); len(got) != 3 {
		t.Errorf("LastN over size = %d messages", len(got))
	}
	if got := m.LastN(0); got != nil {
		t.Errorf("LastN(0) = %+v", got)
	}
}

func TestAgentMemoryClearKeepsPrompt(t *testing.T) {
	m := NewAgentMemory("tester", 5)
	m.SetSystemPrompt("sys")
	m.AddUser("hello")
	m.Clear()

	hist := m.History()
	if len(hist) != 1 || hist[0].Role != llm.RoleSystem {
		t.Errorf("after Clear, history = %+v", hist)
	}
	if m.Len() != 0 {
		t.Errorf("Len after Clear = %d", m.Len())
	}
}

func TestAgentMemoryHistoryIsCopy(t *testing.T) {
	m := NewAgentMemory("tester", 5)
	m.AddUser("original")

	hist := m.History()
	hist[0].Content = "mutated"

	if m.History()[0].Content != "original" {
		t.Error("History must return a copy")
	}
}

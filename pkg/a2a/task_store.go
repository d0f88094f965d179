// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"context"
	"sync"
	"time"

	"github.com/jllopis/agora/pkg/errors"
)

// TaskStore persists task records.
type TaskStore interface {
	// Create persists a new task.
	Create(ctx context.Context, task *Task) error
	// Get returns a task by ID, NOT_FOUND when absent.
	Get(ctx context.Context, id string) (*Task, error)
	// Update replaces a stored task, NOT_FOUND when absent.
	Update(ctx context.Context, task *Task) error
	// List returns all tasks, most recently created first.
	List(ctx context.Context) ([]*Task, error)
}

// MemoryTaskStore keeps tasks in memory.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	order []string
}

// NewMemoryTaskStore creates an in-memory task store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]*Task)}
}

// Create stores a new task.
func (s *MemoryTaskStore) Create(ctx context.Context, task *Task) error {
	if task == nil || task.ID == "" {
		return errors.New(errors.CodeValidation, "task with an id is required", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; ok {
		return errors.Newf(errors.CodeDuplicateName, "task %q already exists", task.ID)
	}
	s.tasks[task.ID] = task.Clone()
	s.order = append(s.order, task.ID)
	return nil
}

// Get returns a copy of the stored task.
func (s *MemoryTaskStore) Get(ctx context.Context, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, errors.Newf(errors.CodeNotFound, "task %q not found", id)
	}
	return task.Clone(), nil
}

// Update replaces a stored task.
func (s *MemoryTaskStore) Update(ctx context.Context, task *Task) error {
	if task == nil || task.ID == "" {
		return errors.New(errors.CodeValidation, "task with an id is required", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return errors.Newf(errors.CodeNotFound, "task %q not found", task.ID)
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

// List returns tasks newest first.
func (s *MemoryTaskStore) List(ctx context.Context) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Task, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.tasks[s.order[i]].Clone())
	}
	return out, nil
}

func newTask(id, description string, metadata map[string]string) *Task {
	return &Task{
		ID:          id,
		Description: description,
		State:       TaskPending,
		CreatedAt:   time.Now().UTC(),
		Metadata:    metadata,
	}
}

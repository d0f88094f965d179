// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"sync"

	"github.com/jllopis/agora/pkg/errors"
)

// SharedMemory is a thread-safe key-value store shared by the agents of one
// process. Writes are last-write-wins; concurrent writers may interleave and
// no cross-key ordering is guaranteed. Construct one explicitly and hand it
// to whoever needs it (see core.WithSharedMemory).
type SharedMemory struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewSharedMemory creates an empty store.
func NewSharedMemory() *SharedMemory {
	return &SharedMemory{data: make(map[string]any)}
}

// Set stores value under key, replacing any previous value.
func (s *SharedMemory) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Get returns the value under key, or def when the key is absent.
func (s *SharedMemory) Get(key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.data[key]; ok {
		return v
	}
	return def
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *SharedMemory) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Append adds value to the slice under key, creating a single-element slice
// when the key is absent. It fails with VALIDATION_ERROR when the key holds
// a non-slice value.
func (s *SharedMemory) Append(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.data[key]
	if !ok {
		s.data[key] = []any{value}
		return nil
	}
	list, ok := existing.([]any)
	if !ok {
		return errors.Newf(errors.CodeValidation, "key %q holds %T, not a list", key, existing)
	}
	s.data[key] = append(list, value)
	return nil
}

// Keys returns all present keys in unspecified order.
func (s *SharedMemory) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a shallow copy of the store's contents.
func (s *SharedMemory) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Clear removes every key.
func (s *SharedMemory) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]any)
}

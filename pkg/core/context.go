// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

// Package core carries the small shared contracts and context plumbing the
// rest of Agora builds on.
package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type runIDKey struct{}
type sharedMemoryKey struct{}

// WithRunID attaches a run id to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id if present.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok
}

// EnsureRunID ensures a run id exists in the context.
func EnsureRunID(ctx context.Context) (context.Context, string) {
	if id, ok := RunID(ctx); ok {
		return ctx, id
	}
	id := newRunID()
	return WithRunID(ctx, id), id
}

// WithSharedMemory attaches a shared memory store to the context. The store
// is an explicitly constructed object; there is no package-level default.
func WithSharedMemory(ctx context.Context, mem SharedStore) context.Context {
	return context.WithValue(ctx, sharedMemoryKey{}, mem)
}

// SharedMemoryFromContext returns the shared memory store if present.
func SharedMemoryFromContext(ctx context.Context) (SharedStore, bool) {
	mem, ok := ctx.Value(sharedMemoryKey{}).(SharedStore)
	return mem, ok
}

func newRunID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "run-unknown"
	}
	return "run-" + hex.EncodeToString(buf)
}

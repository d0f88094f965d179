// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

// Package rag implements retrieval-augmented generation over a pluggable
// vector store.
package rag

import "context"

// Document is a stored text with optional caller metadata.
type Document struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Result is a document with its similarity score for one query.
type Result struct {
	Document
	Score float32 `json:"score"`
}

// Record is the backend-level unit of storage: a document plus its vector
// and insertion sequence.
type Record struct {
	ID       string
	Vector   []float32
	Text     string
	Seq      int64
	Metadata map[string]any
}

// Match is a backend search hit.
type Match struct {
	Record
	Score float32
}

// VectorStore is the storage backend contract. Implementations live in the
// chromem and qdrant subpackages.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, dim int) error
	Upsert(ctx context.Context, collection string, records []Record) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]Match, error)
	Count(ctx context.Context, collection string) (int, error)
	DeleteCollection(ctx context.Context, collection string) error
}

// Embedder converts text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

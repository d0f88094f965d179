// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package rag

import (
	"context"
	"os"
	"sort"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jllopis/agora/pkg/errors"
)

// Store combines a VectorStore, an Embedder, and a collection name into the
// retrieval surface agents use.
type Store struct {
	backend    VectorStore
	embedder   Embedder
	collection string
	dim        int
	seq        atomic.Int64
}

// New creates a Store and ensures its collection exists. The vector
// dimension is probed with one embedding call. Failure to create the
// collection surfaces as NOT_FOUND.
func New(ctx context.Context, backend VectorStore, embedder Embedder, collection string) (*Store, error) {
	probe, err := embedder.Embed(ctx, "dimension probe")
	if err != nil {
		return nil, errors.New(errors.CodeProvider, "probing embedding dimension", err)
	}

	if err := backend.EnsureCollection(ctx, collection, len(probe)); err != nil {
		return nil, errors.Newf(errors.CodeNotFound, "collection %q unavailable", collection).
			WithContext("cause", err.Error())
	}

	s := &Store{
		backend:    backend,
		embedder:   embedder,
		collection: collection,
		dim:        len(probe),
	}

	// Resume the insertion sequence past any existing documents.
	if n, err := backend.Count(ctx, collection); err == nil {
		s.seq.Store(int64(n))
	}
	return s, nil
}

// Collection returns the collection name.
func (s *Store) Collection() string {
	return s.collection
}

// AddDocuments embeds texts, assigns fresh IDs and insertion sequence
// numbers, and upserts them. metadatas, when given, must be one map per
// text. Returns the assigned IDs in input order.
func (s *Store) AddDocuments(ctx context.Context, texts []string, metadatas ...map[string]any) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(metadatas) > 0 && len(metadatas) != len(texts) {
		return nil, errors.Newf(errors.CodeValidation,
			"got %d metadata maps for %d texts", len(metadatas), len(texts))
	}

	records := make([]Record, 0, len(texts))
	ids := make([]string, 0, len(texts))

	for i, text := range texts {
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return nil, errors.New(errors.CodeProvider, "embedding document", err)
		}
		var meta map[string]any
		if len(metadatas) > 0 {
			meta = metadatas[i]
		}
		id := uuid.New().String()
		ids = append(ids, id)
		records = append(records, Record{
			ID:       id,
			Vector:   vec,
			Text:     text,
			Seq:      s.seq.Add(1),
			Metadata: meta,
		})
	}

	if err := s.backend.Upsert(ctx, s.collection, records); err != nil {
		return nil, err
	}
	return ids, nil
}

// Search embeds query and returns up to n results ranked by descending
// similarity. Equal scores keep insertion order.
func (s *Store) Search(ctx context.Context, query string, n int) ([]Result, error) {
	if n <= 0 {
		return nil, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.New(errors.CodeProvider, "embedding query", err)
	}

	matches, err := s.backend.Search(ctx, s.collection, vec, n)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Seq < matches[j].Seq
	})
	if len(matches) > n {
		matches = matches[:n]
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Document: Document{
				ID:       m.ID,
				Text:     m.Text,
				Metadata: m.Metadata,
			},
			Score: m.Score,
		})
	}
	return results, nil
}

// AddFromFile chunks the file at path and adds every chunk as a document
// with source metadata. Chunks are paragraph-aligned up to chunkSize runes.
func (s *Store) AddFromFile(ctx context.Context, path string, chunkSize int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeNotFound, "reading "+path, err)
	}

	chunks := chunkText(string(data), chunkSize)
	if len(chunks) == 0 {
		return nil, nil
	}

	metas := make([]map[string]any, len(chunks))
	for i := range chunks {
		metas[i] = map[string]any{"source": path, "chunk": i}
	}
	return s.AddDocuments(ctx, chunks, metas...)
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.backend.Count(ctx, s.collection)
}

// Clear deletes every document and recreates the empty collection.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.DeleteCollection(ctx, s.collection); err != nil {
		return err
	}
	if err := s.backend.EnsureCollection(ctx, s.collection, s.dim); err != nil {
		return errors.Newf(errors.CodeNotFound, "recreating collection %q", s.collection).
			WithContext("cause", err.Error())
	}
	s.seq.Store(0)
	return nil
}

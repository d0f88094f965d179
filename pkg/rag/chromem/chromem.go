// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

// Package chromem backs rag.VectorStore with the embedded chromem-go
// database: pure Go, in-process, with optional gob persistence.
package chromem

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/jllopis/agora/pkg/rag"
)

// Store implements rag.VectorStore on chromem-go.
type Store struct {
	db          *chromem.DB
	persistPath string
	compress    bool

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// Config configures the store.
type Config struct {
	// PersistPath enables file persistence when non-empty. The directory is
	// created as needed; empty keeps everything in memory.
	PersistPath string
	// Compress gzips the persisted file.
	Compress bool
}

// New creates a chromem-backed store, loading a previously persisted
// database when one exists.
func New(cfg Config) (*Store, error) {
	var db *chromem.DB

	if cfg.PersistPath != "" {
		if err := os.MkdirAll(cfg.PersistPath, 0o755); err != nil {
			return nil, fmt.Errorf("creating persist directory: %w", err)
		}
		dbPath := dbFilePath(cfg.PersistPath, cfg.Compress)
		if _, statErr := os.Stat(dbPath); statErr == nil {
			loaded, err := chromem.NewPersistentDB(dbPath, cfg.Compress)
			if err != nil {
				slog.Warn("failed to load persisted vector database, starting fresh",
					"path", dbPath, "error", err)
				db = chromem.NewDB()
			} else {
				db = loaded
			}
		} else {
			db = chromem.NewDB()
		}
	} else {
		db = chromem.NewDB()
	}

	return &Store{
		db:          db,
		persistPath: cfg.PersistPath,
		compress:    cfg.Compress,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// EnsureCollection implements rag.VectorStore. chromem creates collections
// lazily, so the dimension is unused.
func (s *Store) EnsureCollection(ctx context.Context, name string, _ int) error {
	_, err := s.getCollection(name)
	return err
}

func (s *Store) getCollection(name string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if col, ok := s.collections[name]; ok {
		return col, nil
	}

	// Vectors arrive pre-computed; the embedding func must never run.
	col, err := s.db.GetOrCreateCollection(name, nil, func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("no embedding function: vectors are pre-computed")
	})
	if err != nil {
		return nil, fmt.Errorf("get/create collection %q: %w", name, err)
	}
	s.collections[name] = col
	return col, nil
}

// Upsert implements rag.VectorStore.
func (s *Store) Upsert(ctx context.Context, collection string, records []rag.Record) error {
	col, err := s.getCollection(collection)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(records))
	for _, rec := range records {
		meta := map[string]string{
			"seq": strconv.FormatInt(rec.Seq, 10),
		}
		for k, v := range rec.Metadata {
			meta["meta."+k] = fmt.Sprint(v)
		}
		docs = append(docs, chromem.Document{
			ID:        rec.ID,
			Content:   rec.Text,
			Metadata:  meta,
			Embedding: rec.Vector,
		})
	}

	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("upserting documents: %w", err)
	}

	if err := s.persist(); err != nil {
		slog.Warn("persisting vector database failed", "error", err)
	}
	return nil
}

// Search implements rag.VectorStore.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int) ([]rag.Match, error) {
	col, err := s.getCollection(collection)
	if err != nil {
		return nil, err
	}

	// chromem rejects limits above the document count.
	if n := col.Count(); limit > n {
		limit = n
	}
	if limit == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection %q: %w", collection, err)
	}

	matches := make([]rag.Match, 0, len(results))
	for _, r := range results {
		seq, _ := strconv.ParseInt(r.Metadata["seq"], 10, 64)
		var meta map[string]any
		for k, v := range r.Metadata {
			if len(k) > 5 && k[:5] == "meta." {
				if meta == nil {
					meta = make(map[string]any)
				}
				meta[k[5:]] = v
			}
		}
		matches = append(matches, rag.Match{
			Record: rag.Record{
				ID:       r.ID,
				Text:     r.Content,
				Seq:      seq,
				Metadata: meta,
			},
			Score: r.Similarity,
		})
	}
	return matches, nil
}

// Count implements rag.VectorStore.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	col, err := s.getCollection(collection)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

// DeleteCollection implements rag.VectorStore.
func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("deleting collection %q: %w", collection, err)
	}
	delete(s.collections, collection)

	if err := s.persist(); err != nil {
		slog.Warn("persisting vector database failed", "error", err)
	}
	return nil
}

// Close persists the database when persistence is enabled.
func (s *Store) Close() error {
	return s.persist()
}

func (s *Store) persist() error {
	if s.persistPath == "" {
		return nil
	}
	return s.db.Export(dbFilePath(s.persistPath, s.compress), s.compress, "")
}

func dbFilePath(dir string, compress bool) string {
	name := "vectors.gob"
	if compress {
		name += ".gz"
	}
	return filepath.Join(dir, name)
}

// Ensure Store implements rag.VectorStore.
var _ rag.VectorStore = (*Store)(nil)

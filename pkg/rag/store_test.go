// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package rag

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jllopis/agora/pkg/errors"
)

// fakeBackend is an in-memory VectorStore with cosine scoring.
type fakeBackend struct {
	collections map[string][]Record
	failCreate  bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{collections: make(map[string][]Record)}
}

func (f *fakeBackend) EnsureCollection(_ context.Context, name string, _ int) error {
	if f.failCreate {
		return fmt.Errorf("backend down")
	}
	if _, ok := f.collections[name]; !ok {
		f.collections[name] = nil
	}
	return nil
}

func (f *fakeBackend) Upsert(_ context.Context, collection string, records []Record) error {
	f.collections[collection] = append(f.collections[collection], records...)
	return nil
}

func (f *fakeBackend) Search(_ context.Context, collection string, vector []float32, limit int) ([]Match, error) {
	var matches []Match
	for _, rec := range f.collections[collection] {
		matches = append(matches, Match{Record: rec, Score: cosine(vector, rec.Vector)})
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (f *fakeBackend) Count(_ context.Context, collection string) (int, error) {
	return len(f.collections[collection]), nil
}

func (f *fakeBackend) DeleteCollection(_ context.Context, collection string) error {
	delete(f.collections, collection)
	return nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// wordEmbedder maps texts to fixed vectors by keyword, so similarity is
// predictable in tests.
type wordEmbedder struct{}

func (wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	switch {
	case strings.Contains(text, "cat"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(text, "dog"):
		return []float32{0.9, 0.1, 0}, nil
	case strings.Contains(text, "car"):
		return []float32{0, 0, 1}, nil
	default:
		return []float32{0.5, 0.5, 0.5}, nil
	}
}

func newTestStore(t *testing.T) (*Store, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	store, err := New(context.Background(), backend, wordEmbedder{}, "test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store, backend
}

func TestSearchReturnsAllDescending(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ids, err := store.AddDocuments(ctx, []string{
		"the cat sat",
		"a dog barked",
		"a car drove by",
	})
	if err != nil {
		t.Fatalf("AddDocuments: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("ids = %v", ids)
	}

	results, err := store.Search(ctx, "cat", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not descending: %v then %v", results[i-1].Score, results[i].Score)
		}
	}
	if !strings.Contains(results[0].Text, "cat") {
		t.Errorf("best match = %q", results[0].Text)
	}
}

func TestSearchTieBreakInsertionOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// Identical texts embed identically, so scores tie exactly.
	if _, err := store.AddDocuments(ctx, []string{"cat one", "cat two", "cat three"}); err != nil {
		t.Fatal(err)
	}

	results, err := store.Search(ctx, "cat", 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"cat one", "cat two", "cat three"}
	for i, w := range want {
		if results[i].Text != w {
			t.Errorf("results[%d] = %q, want %q (insertion order on ties)", i, results[i].Text, w)
		}
	}
}

func TestSearchLimit(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	store.AddDocuments(ctx, []string{"cat a", "cat b", "cat c", "cat d"})

	results, err := store.Search(ctx, "cat", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("limit ignored: %d results", len(results))
	}

	if results, _ := store.Search(ctx, "cat", 0); results != nil {
		t.Errorf("n=0 should return nothing, got %v", results)
	}
}

func TestAddDocumentsMetadataMismatch(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.AddDocuments(context.Background(),
		[]string{"a", "b"}, map[string]any{"k": "v"})
	if !errors.HasCode(err, errors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestNewFailsNotFound(t *testing.T) {
	backend := newFakeBackend()
	backend.failCreate = true
	_, err := New(context.Background(), backend, wordEmbedder{}, "test")
	if !errors.HasCode(err, errors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestCountAndClear(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	store.AddDocuments(ctx, []string{"cat", "dog"})

	if n, _ := store.Count(ctx); n != 2 {
		t.Errorf("Count = %d", n)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("Count after Clear = %d", n)
	}
}

func TestAddFromFile(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "doc.txt")
	content := "first paragraph about cats\n\nsecond paragraph about dogs\n\nthird paragraph about cars"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ids, err := store.AddFromFile(ctx, path, 30)
	if err != nil {
		t.Fatalf("AddFromFile: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("chunks = %d, want 3", len(ids))
	}

	results, err := store.Search(ctx, "cat", 1)
	if err != nil || len(results) != 1 {
		t.Fatalf("Search: %v, %v", results, err)
	}
	if results[0].Metadata["source"] != path {
		t.Errorf("source metadata = %v", results[0].Metadata)
	}
}

func TestAddFromFileMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.AddFromFile(context.Background(), "/no/such/file", 100)
	if !errors.HasCode(err, errors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestChunkText(t *testing.T) {
	chunks := chunkText("aaa\n\nbbb\n\nccc", 8)
	if len(chunks) != 2 {
		t.Fatalf("chunks = %v", chunks)
	}
	// Oversized paragraph splits on rune count.
	long := strings.Repeat("x", 25)
	chunks = chunkText(long, 10)
	if len(chunks) != 3 {
		t.Errorf("long paragraph chunks = %d, want 3", len(chunks))
	}
}

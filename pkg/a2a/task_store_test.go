// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jllopis/agora/pkg/errors"
)

func storeImplementations(t *testing.T) map[string]TaskStore {
	t.Helper()
	sqlite, err := NewSQLiteTaskStore(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("NewSQLiteTaskStore: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]TaskStore{
		"memory": NewMemoryTaskStore(),
		"sqlite": sqlite,
	}
}

func TestTaskStoreRoundTrip(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			task := newTask("t-1", "summarize the report", map[string]string{"caller": "test"})

			if err := store.Create(ctx, task); err != nil {
				t.Fatalf("Create: %v", err)
			}

			got, err := store.Get(ctx, "t-1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Description != "summarize the report" || got.State != TaskPending {
				t.Errorf("got = %+v", got)
			}
			if got.Metadata["caller"] != "test" {
				t.Errorf("metadata = %v", got.Metadata)
			}

			done := time.Now().UTC()
			got.State = TaskCompleted
			got.Result = "done"
			got.CompletedAt = &done
			if err := store.Update(ctx, got); err != nil {
				t.Fatalf("Update: %v", err)
			}

			updated, err := store.Get(ctx, "t-1")
			if err != nil {
				t.Fatalf("Get after update: %v", err)
			}
			if updated.State != TaskCompleted || updated.Result != "done" || updated.CompletedAt == nil {
				t.Errorf("updated = %+v", updated)
			}
		})
	}
}

func TestTaskStoreNotFound(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := store.Get(ctx, "missing"); !errors.HasCode(err, errors.CodeNotFound) {
				t.Errorf("Get: got %v", err)
			}
			if err := store.Update(ctx, newTask("missing", "x", nil)); !errors.HasCode(err, errors.CodeNotFound) {
				t.Errorf("Update: got %v", err)
			}
		})
	}
}

func TestTaskStoreListNewestFirst(t *testing.T) {
	for name, store := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now().UTC()
			for i, id := range []string{"a", "b", "c"} {
				task := newTask(id, "task "+id, nil)
				task.CreatedAt = base.Add(time.Duration(i) * time.Second)
				if err := store.Create(ctx, task); err != nil {
					t.Fatalf("Create %s: %v", id, err)
				}
			}

			tasks, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(tasks) != 3 {
				t.Fatalf("len = %d", len(tasks))
			}
			if tasks[0].ID != "c" || tasks[2].ID != "a" {
				t.Errorf("order = %s, %s, %s", tasks[0].ID, tasks[1].ID, tasks[2].ID)
			}
		})
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryTaskStore()
	ctx := context.Background()

	task := newTask("iso", "original", map[string]string{"k": "v"})
	if err := store.Create(ctx, task); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's copy must not leak into the store.
	task.Description = "mutated"
	task.Metadata["k"] = "changed"

	got, _ := store.Get(ctx, "iso")
	if got.Description != "original" || got.Metadata["k"] != "v" {
		t.Errorf("store shares memory with caller: %+v", got)
	}
}

func TestSQLiteStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	ctx := context.Background()

	first, err := NewSQLiteTaskStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Create(ctx, newTask("p-1", "persisted", nil)); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := NewSQLiteTaskStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "p-1")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Description != "persisted" {
		t.Errorf("got = %+v", got)
	}
}

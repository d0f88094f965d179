// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jllopis/agora/pkg/errors"

	_ "modernc.org/sqlite"
)

const taskTable = "a2a_tasks"

// SQLiteTaskStore persists tasks in a SQLite database. The full task travels
// as a JSON blob; state and updated_at ride in columns for indexing.
type SQLiteTaskStore struct {
	db *sql.DB
}

// NewSQLiteTaskStore opens (or creates) a SQLite database at path and
// ensures the task schema.
func NewSQLiteTaskStore(path string) (*SQLiteTaskStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New(errors.CodeConfiguration, "open sqlite task store", err)
	}
	store, err := NewSQLiteTaskStoreDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteTaskStoreDB wraps an existing database handle and ensures schema.
func NewSQLiteTaskStoreDB(db *sql.DB) (*SQLiteTaskStore, error) {
	if db == nil {
		return nil, errors.New(errors.CodeConfiguration, "db is nil", nil)
	}
	if err := ensureTaskSchema(db); err != nil {
		return nil, errors.New(errors.CodeConfiguration, "ensure task schema", err)
	}
	return &SQLiteTaskStore{db: db}, nil
}

func ensureTaskSchema(db *sql.DB) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			task_json BLOB NOT NULL
		);`, taskTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_state ON %s(state);`, taskTable, taskTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_created ON %s(created_at);`, taskTable, taskTable),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Create persists a new task.
func (s *SQLiteTaskStore) Create(ctx context.Context, task *Task) error {
	if task == nil || task.ID == "" {
		return errors.New(errors.CodeValidation, "task with an id is required", nil)
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return errors.New(errors.CodeInternal, "encode task", err)
	}
	now := time.Now().UTC().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, state, created_at, updated_at, task_json) VALUES (?, ?, ?, ?, ?)", taskTable),
		task.ID, task.State, task.CreatedAt.UnixMilli(), now, payload)
	if err != nil {
		return errors.New(errors.CodeInternal, "insert task", err)
	}
	return nil
}

// Get returns a task by ID.
func (s *SQLiteTaskStore) Get(ctx context.Context, id string) (*Task, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT task_json FROM %s WHERE id = ?", taskTable), id).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Newf(errors.CodeNotFound, "task %q not found", id)
		}
		return nil, errors.New(errors.CodeInternal, "query task", err)
	}
	var task Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, errors.New(errors.CodeInternal, "decode task", err)
	}
	return &task, nil
}

// Update replaces a stored task.
func (s *SQLiteTaskStore) Update(ctx context.Context, task *Task) error {
	if task == nil || task.ID == "" {
		return errors.New(errors.CodeValidation, "task with an id is required", nil)
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return errors.New(errors.CodeInternal, "encode task", err)
	}
	now := time.Now().UTC().UnixMilli()
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET state = ?, updated_at = ?, task_json = ? WHERE id = ?", taskTable),
		task.State, now, payload, task.ID)
	if err != nil {
		return errors.New(errors.CodeInternal, "update task", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.New(errors.CodeInternal, "update task", err)
	}
	if affected == 0 {
		return errors.Newf(errors.CodeNotFound, "task %q not found", task.ID)
	}
	return nil
}

// List returns tasks newest first.
func (s *SQLiteTaskStore) List(ctx context.Context) ([]*Task, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT task_json FROM %s ORDER BY created_at DESC, id ASC", taskTable))
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "list tasks", err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.New(errors.CodeInternal, "scan task", err)
		}
		var task Task
		if err := json.Unmarshal(payload, &task); err != nil {
			return nil, errors.New(errors.CodeInternal, "decode task", err)
		}
		out = append(out, &task)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.CodeInternal, "list tasks", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *SQLiteTaskStore) Close() error {
	return s.db.Close()
}

// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jllopis/agora/pkg/errors"
)

// TaskHandler runs a task and returns its result.
type TaskHandler func(ctx context.Context, task *Task) (string, error)

// MessageHandler receives free-form messages sent to the agent.
type MessageHandler func(ctx context.Context, msg *Message) error

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithTaskStore sets the task persistence backend. Default is in-memory.
func WithTaskStore(store TaskStore) ServerOption {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMessageHandler installs a handler for POST /messages.
func WithMessageHandler(handler MessageHandler) ServerOption {
	return func(s *Server) {
		s.onMessage = handler
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server exposes one agent over HTTP: its card at the well-known path,
// synchronous dispatch, and async task submission with polling.
type Server struct {
	card      AgentCard
	store     TaskStore
	handler   TaskHandler
	onMessage MessageHandler
	logger    *slog.Logger
}

// NewServer creates a server for the given card and task handler.
func NewServer(card AgentCard, handler TaskHandler, opts ...ServerOption) *Server {
	s := &Server{
		card:    card,
		store:   NewMemoryTaskStore(),
		handler: handler,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Card returns the served agent card.
func (s *Server) Card() AgentCard {
	return s.card
}

// Handler returns the HTTP handler for all agent endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+WellKnownPath, s.handleCard)
	mux.HandleFunc("POST /dispatch", s.handleDispatch)
	mux.HandleFunc("POST /tasks", s.handleSubmitTask)
	mux.HandleFunc("GET /tasks/{id}", s.handleGetTask)
	mux.HandleFunc("POST /messages", s.handleMessage)
	return mux
}

// ListenAndServe serves the agent endpoints on addr until the server fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("a2a server listening", "agent", s.card.Name, "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.card)
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Task) == "" {
		writeError(w, errors.New(errors.CodeValidation, "task is required", nil))
		return
	}

	task := newTask(uuid.NewString(), req.Task, req.Context)
	task.State = TaskRunning

	result, err := s.handler(r.Context(), task)
	if err != nil {
		s.logger.Warn("dispatch failed", "agent", s.card.Name, "task", req.Task, "error", err)
		writeJSON(w, http.StatusOK, DispatchReply{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, DispatchReply{OK: true, Result: result})
}

func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Task) == "" {
		writeError(w, errors.New(errors.CodeValidation, "task is required", nil))
		return
	}

	task := newTask(uuid.NewString(), req.Task, req.Context)
	if err := s.store.Create(r.Context(), task); err != nil {
		writeError(w, err)
		return
	}

	go s.runTask(task.Clone())

	writeJSON(w, http.StatusCreated, task)
}

// runTask drives a submitted task through running to a terminal state. It
// uses a background context: the HTTP request that created the task has
// already returned.
func (s *Server) runTask(task *Task) {
	ctx := context.Background()

	task.State = TaskRunning
	if err := s.store.Update(ctx, task); err != nil {
		s.logger.Error("task state update failed", "task_id", task.ID, "error", err)
		return
	}

	result, err := s.handler(ctx, task)
	done := time.Now().UTC()
	task.CompletedAt = &done
	if err != nil {
		task.State = TaskFailed
		task.Error = err.Error()
	} else {
		task.State = TaskCompleted
		task.Result = result
	}
	if err := s.store.Update(ctx, task); err != nil {
		s.logger.Error("task state update failed", "task_id", task.ID, "error", err)
	}
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := decodeBody(r, &msg); err != nil {
		writeError(w, err)
		return
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if s.onMessage != nil {
		if err := s.onMessage(r.Context(), &msg); err != nil {
			writeError(w, err)
			return
		}
	} else {
		s.logger.Info("message received", "agent", s.card.Name, "sender", msg.Sender)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": msg.ID})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New(errors.CodeValidation, "invalid JSON body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	ae := errors.AsError(err)
	msg := ae.Message
	if ae.Err != nil {
		msg = msg + ": " + ae.Err.Error()
	}
	writeJSON(w, ae.StatusCode, map[string]any{
		"error": msg,
		"code":  ae.Code,
	})
}

// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jllopis/agora/pkg/errors"
)

const defaultPollInterval = 100 * time.Millisecond

// Client talks to one remote agent. It performs no implicit retry; wrap
// calls with resilience.RetryConfig when retry is wanted.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for the agent served at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the agent base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchCard retrieves the agent card from the well-known path.
func (c *Client) FetchCard(ctx context.Context) (*AgentCard, error) {
	var card AgentCard
	if err := c.get(ctx, WellKnownPath, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// Dispatch runs a task synchronously on the remote agent. A reply with
// ok=false becomes a REMOTE_ERROR carrying the remote error text.
func (c *Client) Dispatch(ctx context.Context, req DispatchRequest) (string, error) {
	var reply DispatchReply
	if err := c.post(ctx, "/dispatch", req, &reply); err != nil {
		return "", err
	}
	if !reply.OK {
		return "", errors.Newf(errors.CodeRemote, "agent at %s: %s", c.baseURL, reply.Error)
	}
	return reply.Result, nil
}

// SubmitTask submits a task for asynchronous execution and returns the
// pending task record.
func (c *Client) SubmitTask(ctx context.Context, req DispatchRequest) (*Task, error) {
	var task Task
	if err := c.post(ctx, "/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask polls a task by ID.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var task Task
	if err := c.get(ctx, "/tasks/"+id, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// WaitForTask polls until the task reaches a terminal state or the context
// expires.
func (c *Client) WaitForTask(ctx context.Context, id string) (*Task, error) {
	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()
	for {
		task, err := c.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if task.Terminal() {
			return task, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.New(errors.CodeRemote, fmt.Sprintf("waiting for task %q", id), ctx.Err())
		case <-ticker.C:
		}
	}
}

// SendMessage delivers a free-form message to the agent.
func (c *Client) SendMessage(ctx context.Context, msg Message) error {
	var ack map[string]string
	return c.post(ctx, "/messages", msg, &ack)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.New(errors.CodeInternal, "build request", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.New(errors.CodeInternal, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.New(errors.CodeInternal, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Newf(errors.CodeUnreachable, "agent at %s unreachable: %v", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(c.baseURL, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Newf(errors.CodeRemote, "agent at %s: invalid response: %v", c.baseURL, err)
	}
	return nil
}

func remoteError(baseURL string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	detail := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		detail = payload.Error
	}

	code := errors.CodeRemote
	if resp.StatusCode == http.StatusNotFound {
		code = errors.CodeNotFound
	}
	return errors.New(code, fmt.Sprintf("agent at %s: %s (%s)", baseURL, detail, resp.Status), nil)
}

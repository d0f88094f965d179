// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jllopis/agora/pkg/errors"
)

// Network is an in-process directory of known agents, keyed by card name.
// Registration order is preserved for Cards, FindBySkill, and Broadcast.
type Network struct {
	logger *slog.Logger

	mu     sync.RWMutex
	agents map[string]*registration
	order  []string
}

type registration struct {
	card   AgentCard
	client *Client
}

// NewNetwork creates an empty agent directory.
func NewNetwork(logger *slog.Logger) *Network {
	if logger == nil {
		logger = slog.Default()
	}
	return &Network{
		logger: logger,
		agents: make(map[string]*registration),
	}
}

// Register fetches the card from baseURL and adds the agent under its card
// name. A fetch failure is UNREACHABLE; a name collision is DUPLICATE_NAME.
func (n *Network) Register(ctx context.Context, baseURL string) (*AgentCard, error) {
	client := NewClient(baseURL)
	card, err := client.FetchCard(ctx)
	if err != nil {
		if errors.HasCode(err, errors.CodeUnreachable) {
			return nil, err
		}
		return nil, errors.Newf(errors.CodeUnreachable, "agent at %s: card fetch failed: %v", baseURL, err)
	}
	if card.Name == "" {
		return nil, errors.Newf(errors.CodeValidation, "agent at %s: card has no name", baseURL)
	}
	if card.URL == "" {
		card.URL = baseURL
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.agents[card.Name]; ok {
		return nil, errors.Newf(errors.CodeDuplicateName, "agent %q already registered", card.Name)
	}
	n.agents[card.Name] = &registration{card: *card, client: client}
	n.order = append(n.order, card.Name)
	n.logger.Info("agent registered", "name", card.Name, "url", card.URL, "skills", card.Skills)
	return card, nil
}

// Get returns a registered agent's card by name.
func (n *Network) Get(name string) (*AgentCard, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	reg, ok := n.agents[name]
	if !ok {
		return nil, errors.Newf(errors.CodeUnknownAgent, "agent %q not registered", name)
	}
	card := reg.card
	return &card, nil
}

// Cards returns all registered cards in registration order.
func (n *Network) Cards() []AgentCard {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]AgentCard, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.agents[name].card)
	}
	return out
}

// FindBySkill returns every registered card listing the skill, in
// registration order.
func (n *Network) FindBySkill(skill string) []AgentCard {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var out []AgentCard
	for _, name := range n.order {
		if n.agents[name].card.HasSkill(skill) {
			out = append(out, n.agents[name].card)
		}
	}
	return out
}

// Dispatch runs a task on a named agent. An unknown name fails with
// UNKNOWN_AGENT before any network I/O happens.
func (n *Network) Dispatch(ctx context.Context, name string, req DispatchRequest) (string, error) {
	n.mu.RLock()
	reg, ok := n.agents[name]
	n.mu.RUnlock()
	if !ok {
		return "", errors.Newf(errors.CodeUnknownAgent, "agent %q not registered", name)
	}
	return reg.client.Dispatch(ctx, req)
}

// DispatchBySkill dispatches to the first agent listing the skill.
func (n *Network) DispatchBySkill(ctx context.Context, skill string, req DispatchRequest) (string, error) {
	matches := n.FindBySkill(skill)
	if len(matches) == 0 {
		return "", errors.Newf(errors.CodeUnknownAgent, "no agent with skill %q", skill)
	}
	return n.Dispatch(ctx, matches[0].Name, req)
}

// BroadcastResult is one agent's outcome from a Broadcast.
type BroadcastResult struct {
	Agent  string
	Result string
	Err    error
}

// Broadcast dispatches the task to every registered agent and collects the
// per-agent outcomes in registration order. Individual failures do not stop
// the broadcast.
func (n *Network) Broadcast(ctx context.Context, req DispatchRequest) []BroadcastResult {
	n.mu.RLock()
	names := make([]string, len(n.order))
	copy(names, n.order)
	n.mu.RUnlock()

	out := make([]BroadcastResult, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			result, err := n.Dispatch(ctx, name, req)
			out[i] = BroadcastResult{Agent: name, Result: result, Err: err}
		}(i, name)
	}
	wg.Wait()
	return out
}

type seedFile struct {
	Agents []string `yaml:"agents"`
}

// LoadSeedFile registers the agents listed in a YAML seed file, in file
// order. The file holds a single `agents:` list of base URLs.
func (n *Network) LoadSeedFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New(errors.CodeConfiguration, "read seed file", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return errors.New(errors.CodeConfiguration, "parse seed file", err)
	}
	for _, baseURL := range seed.Agents {
		if _, err := n.Register(ctx, baseURL); err != nil {
			return err
		}
	}
	return nil
}

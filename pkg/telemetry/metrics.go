// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/agora/pkg/errors"
)

// Metrics tracks the core Agora operation counters.
type Metrics struct {
	// chatCounter tracks LLM chat requests by provider and model.
	chatCounter metric.Int64Counter

	// toolCounter tracks tool invocations by tool name and outcome.
	toolCounter metric.Int64Counter

	// searchCounter tracks RAG searches by collection.
	searchCounter metric.Int64Counter

	// dispatchCounter tracks A2A dispatches by target agent and outcome.
	dispatchCounter metric.Int64Counter

	// errorCounter tracks errors by code and component.
	errorCounter metric.Int64Counter
}

// NewMetrics creates the Agora operation counters on the global meter.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("agora")

	chatCounter, err := meter.Int64Counter(
		"agora.llm.requests",
		metric.WithDescription("LLM chat requests by provider and model"),
	)
	if err != nil {
		return nil, err
	}

	toolCounter, err := meter.Int64Counter(
		"agora.tool.invocations",
		metric.WithDescription("Tool invocations by name and outcome"),
	)
	if err != nil {
		return nil, err
	}

	searchCounter, err := meter.Int64Counter(
		"agora.rag.searches",
		metric.WithDescription("RAG searches by collection"),
	)
	if err != nil {
		return nil, err
	}

	dispatchCounter, err := meter.Int64Counter(
		"agora.a2a.dispatches",
		metric.WithDescription("A2A dispatches by target agent and outcome"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"agora.errors.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		chatCounter:     chatCounter,
		toolCounter:     toolCounter,
		searchCounter:   searchCounter,
		dispatchCounter: dispatchCounter,
		errorCounter:    errorCounter,
	}, nil
}

// RecordChat counts one LLM chat request.
func (m *Metrics) RecordChat(ctx context.Context, provider, model string) {
	if m == nil {
		return
	}
	m.chatCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
	))
}

// RecordToolInvocation counts one tool invocation.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool string, err error) {
	if m == nil {
		return
	}
	m.toolCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome(err)),
	))
}

// RecordSearch counts one RAG search.
func (m *Metrics) RecordSearch(ctx context.Context, collection string) {
	if m == nil {
		return
	}
	m.searchCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("collection", collection),
	))
}

// RecordDispatch counts one A2A dispatch.
func (m *Metrics) RecordDispatch(ctx context.Context, agent string, err error) {
	if m == nil {
		return
	}
	m.dispatchCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("agent", agent),
		attribute.String("outcome", outcome(err)),
	))
}

// RecordError counts one error by its code and the component it came from.
func (m *Metrics) RecordError(ctx context.Context, err error, component string) {
	if m == nil || err == nil {
		return
	}
	m.errorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("error.code", string(errors.CodeOf(err))),
		attribute.String("component", component),
	))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

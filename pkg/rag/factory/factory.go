// SPDX-License-Identifier: Apache-2.0

// Package factory builds a rag.Store from configuration. It lives apart
// from pkg/rag so the concrete backend packages can depend on the shared
// types without a cycle.
package factory

import (
	"context"

	"github.com/jllopis/agora/pkg/config"
	"github.com/jllopis/agora/pkg/errors"
	"github.com/jllopis/agora/pkg/rag"
	"github.com/jllopis/agora/pkg/rag/chromem"
	"github.com/jllopis/agora/pkg/rag/ollamaembed"
	"github.com/jllopis/agora/pkg/rag/qdrant"
)

// NewFromConfig builds a Store from configuration: chromem (embedded,
// optionally persistent) or qdrant (remote, gRPC), with Ollama embeddings.
func NewFromConfig(ctx context.Context, cfg config.RAGConfig) (*rag.Store, error) {
	embedder := ollamaembed.New(cfg.EmbedderBaseURL, cfg.EmbedderModel)

	var backend rag.VectorStore
	switch cfg.Backend {
	case "", "chromem":
		store, err := chromem.New(chromem.Config{PersistPath: cfg.PersistPath})
		if err != nil {
			return nil, err
		}
		backend = store
	case "qdrant":
		store, err := qdrant.New(cfg.QdrantAddr)
		if err != nil {
			return nil, err
		}
		backend = store
	default:
		return nil, errors.Newf(errors.CodeConfiguration, "unknown rag backend %q", cfg.Backend)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "agora"
	}
	return rag.New(ctx, backend, embedder, collection)
}

// Copyright 2026 © The Agora Authors
// SPDX-License-Identifier: Apache-2.0

// Package qdrant backs rag.VectorStore with a Qdrant server over gRPC,
// using cosine distance.
package qdrant

import (
	"context"
	"fmt"
	"strings"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jllopis/agora/pkg/rag"
)

// Store implements rag.VectorStore on Qdrant.
type Store struct {
	points      pb.PointsClient
	collections pb.CollectionsClient
}

// New connects to a Qdrant gRPC endpoint (host:port, no TLS).
func New(addr string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s: %w", addr, err)
	}
	return &Store{
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
	}, nil
}

// EnsureCollection implements rag.VectorStore.
func (s *Store) EnsureCollection(ctx context.Context, name string, dim int) error {
	_, err := s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dim),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("creating collection %q: %w", name, err)
	}
	return nil
}

// Upsert implements rag.VectorStore.
func (s *Store) Upsert(ctx context.Context, collection string, records []rag.Record) error {
	qPoints := make([]*pb.PointStruct, len(records))
	for i, rec := range records {
		payload := map[string]*pb.Value{
			"text": {Kind: &pb.Value_StringValue{StringValue: rec.Text}},
			"seq":  {Kind: &pb.Value_IntegerValue{IntegerValue: rec.Seq}},
		}
		for k, v := range rec.Metadata {
			payload["meta."+k] = toValue(v)
		}

		qPoints[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: rec.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: rec.Vector},
				},
			},
			Payload: payload,
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Points:         qPoints,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}
	return nil
}

// Search implements rag.VectorStore.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int) ([]rag.Match, error) {
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	matches := make([]rag.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		rec := rag.Record{ID: r.Id.GetUuid()}
		for k, v := range r.Payload {
			switch {
			case k == "text":
				rec.Text = v.GetStringValue()
			case k == "seq":
				rec.Seq = v.GetIntegerValue()
			case strings.HasPrefix(k, "meta."):
				if rec.Metadata == nil {
					rec.Metadata = make(map[string]any)
				}
				rec.Metadata[strings.TrimPrefix(k, "meta.")] = fromValue(v)
			}
		}
		matches = append(matches, rag.Match{Record: rec, Score: r.Score})
	}
	return matches, nil
}

// Count implements rag.VectorStore.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return int(resp.Result.Count), nil
}

// DeleteCollection implements rag.VectorStore.
func (s *Store) DeleteCollection(ctx context.Context, collection string) error {
	_, err := s.collections.Delete(ctx, &pb.DeleteCollection{
		CollectionName: collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection %q: %w", collection, err)
	}
	return nil
}

func toValue(v any) *pb.Value {
	switch val := v.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: val}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: val}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: val}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: val}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(val)}}
	}
}

func fromValue(v *pb.Value) any {
	switch kind := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}

// Ensure Store implements rag.VectorStore.
var _ rag.VectorStore = (*Store)(nil)

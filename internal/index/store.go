// Package index embeds chunks and keeps them in a named vector index.
//
// Store is the vector index service (chromem, qdrant or pgvector); Embedder is
// the embedding service. Client ties both together for the ingest and
// retrieval paths.
package index

import (
	"context"
	"errors"
)

var (
	ErrIndexNotFound     = errors.New("index not found")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrUnsupportedMetric = errors.New("unsupported similarity metric")
	ErrEmptyEmbedding    = errors.New("embedding service returned an empty vector")
	ErrInvalidIndexName  = errors.New("invalid index name")
)

// MetricCosine is the only metric the stores implement.
const MetricCosine = "cosine"

// Spec describes an index at creation time. Dimension and metric cannot
// change afterwards.
type Spec struct {
	Name      string
	Dimension int
	Metric    string
	Cloud     string
	Region    string
}

// Record is what gets written: text, its vector and flat metadata.
type Record struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// Match is one similarity search hit. Higher Score is more similar.
type Match struct {
	ID       string
	Text     string
	Metadata map[string]string
	Score    float32
}

// Store is a vector index service.
type Store interface {
	CreateIndex(ctx context.Context, spec Spec) error
	ListIndexNames(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, name string, records []Record) error
	Query(ctx context.Context, name string, vector []float32, k int) ([]Match, error)
	Close() error
}

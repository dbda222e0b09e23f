package index

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"docqa/internal/chunker"

	"github.com/rs/zerolog/log"
)

// upsertBatchSize bounds one write request to the store.
const upsertBatchSize = 100

// Client embeds chunks and queries and talks to the configured index.
type Client struct {
	store    Store
	embedder Embedder
	spec     Spec
}

func NewClient(store Store, embedder Embedder, spec Spec) *Client {
	if spec.Metric == "" {
		spec.Metric = MetricCosine
	}
	return &Client{store: store, embedder: embedder, spec: spec}
}

func (c *Client) Spec() Spec {
	return c.spec
}

// EnsureIndex creates the index unless one with the same name already exists.
// The dimension of an existing index is not compared with the configured one.
func (c *Client) EnsureIndex(ctx context.Context) (bool, error) {
	names, err := c.store.ListIndexNames(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list indexes: %w", err)
	}

	if slices.Contains(names, c.spec.Name) {
		log.Info().Str("index", c.spec.Name).Msg("📚 Index already exists")
		return false, nil
	}

	if err := c.store.CreateIndex(ctx, c.spec); err != nil {
		return false, fmt.Errorf("failed to create index %s: %w", c.spec.Name, err)
	}

	log.Info().
		Str("index", c.spec.Name).
		Int("dimension", c.spec.Dimension).
		Str("metric", c.spec.Metric).
		Msg("🆕 Index created")
	return true, nil
}

// Upsert embeds every chunk independently and writes the ones that embedded.
// It returns the number of records written and all failures joined together.
func (c *Client) Upsert(ctx context.Context, chunks []chunker.Chunk) (int, error) {
	var errs []error
	records := make([]Record, 0, len(chunks))

	for _, ch := range chunks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		vector, err := c.embedDocument(ctx, ch.Text)
		if err != nil {
			log.Warn().Str("chunk", ch.ID).Err(err).Msg("⚠️  Embedding failed")
			errs = append(errs, fmt.Errorf("chunk %s: %w", ch.ID, err))
			continue
		}

		records = append(records, Record{
			ID:       ch.ID,
			Vector:   vector,
			Text:     ch.Text,
			Metadata: ch.Metadata,
		})
	}

	written := 0
	for start := 0; start < len(records); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(records))

		if err := c.store.Upsert(ctx, c.spec.Name, records[start:end]); err != nil {
			errs = append(errs, fmt.Errorf("failed to upsert records %d-%d: %w", start, end-1, err))
			continue
		}
		written += end - start
	}

	log.Debug().Int("written", written).Int("chunks", len(chunks)).Msg("💾 Upsert finished")
	return written, errors.Join(errs...)
}

// Retrieve returns at most k matches for query, most similar first.
func (c *Client) Retrieve(ctx context.Context, query string, k int) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	vector, err := c.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if err := c.checkDimension(vector); err != nil {
		return nil, err
	}

	matches, err := c.store.Query(ctx, c.spec.Name, vector, k)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	return matches, nil
}

func (c *Client) Close() error {
	return c.store.Close()
}

func (c *Client) embedDocument(ctx context.Context, text string) ([]float32, error) {
	vector, err := c.embedder.EmbedDocument(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.checkDimension(vector); err != nil {
		return nil, err
	}
	return vector, nil
}

func (c *Client) checkDimension(vector []float32) error {
	if len(vector) == 0 {
		return ErrEmptyEmbedding
	}
	if c.spec.Dimension > 0 && len(vector) != c.spec.Dimension {
		return fmt.Errorf("%w: got %d, index %s expects %d", ErrDimensionMismatch, len(vector), c.spec.Name, c.spec.Dimension)
	}
	return nil
}

package index

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

// errNoEmbedding guards the collections: vectors always come from Client.
var errNoEmbedding = errors.New("chromem collection must not embed content itself")

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedding
}

// ChromemStore keeps indexes as chromem-go collections.
type ChromemStore struct {
	db *chromem.DB
}

// NewChromemStore opens a persistent DB under dir, or an in-memory one when dir is empty.
func NewChromemStore(dir string) (*ChromemStore, error) {
	if dir == "" {
		return &ChromemStore{db: chromem.NewDB()}, nil
	}

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database at %s: %w", dir, err)
	}
	log.Debug().Str("path", dir).Int("collections", len(db.ListCollections())).Msg("📂 Vector database opened")

	return &ChromemStore{db: db}, nil
}

func (s *ChromemStore) CreateIndex(_ context.Context, spec Spec) error {
	if spec.Metric != "" && spec.Metric != MetricCosine {
		return fmt.Errorf("%w: %s", ErrUnsupportedMetric, spec.Metric)
	}

	metadata := map[string]string{
		"dimension": strconv.Itoa(spec.Dimension),
		"metric":    MetricCosine,
		"cloud":     spec.Cloud,
		"region":    spec.Region,
	}
	if _, err := s.db.CreateCollection(spec.Name, metadata, noEmbedding); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *ChromemStore) ListIndexNames(_ context.Context) ([]string, error) {
	collections := s.db.ListCollections()

	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, name string, records []Record) error {
	coll := s.db.GetCollection(name, noEmbedding)
	if coll == nil {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}

	docs := make([]chromem.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, chromem.Document{
			ID:        r.ID,
			Metadata:  r.Metadata,
			Embedding: r.Vector,
			Content:   r.Text,
		})
	}

	return coll.AddDocuments(ctx, docs, runtime.NumCPU())
}

func (s *ChromemStore) Query(ctx context.Context, name string, vector []float32, k int) ([]Match, error) {
	coll := s.db.GetCollection(name, noEmbedding)
	if coll == nil {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}

	// chromem requires 0 < k <= Count()
	count := coll.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	k = min(k, count)

	results, err := coll.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			ID:       r.ID,
			Text:     r.Content,
			Metadata: r.Metadata,
			Score:    r.Similarity,
		})
	}
	return matches, nil
}

// Close is a no-op: the persistent DB writes through on every change.
func (s *ChromemStore) Close() error {
	return nil
}

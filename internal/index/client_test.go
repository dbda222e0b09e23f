package index

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"testing"

	"docqa/internal/chunker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 8

// fakeEmbedder hashes words into a small bag-of-words vector so that texts
// sharing words are similar.
type fakeEmbedder struct {
	mu      sync.Mutex
	fail    map[string]error
	dim     int
	queries []string
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{fail: map[string]error{}, dim: testDim}
}

func (f *fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, f.dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(f.dim)]++
	}
	return v
}

func (f *fakeEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	if err, ok := f.fail[text]; ok {
		return nil, err
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.queries = append(f.queries, text)
	f.mu.Unlock()
	return f.vector(text), nil
}

// countingStore wraps a real store and counts calls.
type countingStore struct {
	Store
	creates int
	upserts int
	failAll error
}

func (s *countingStore) CreateIndex(ctx context.Context, spec Spec) error {
	s.creates++
	return s.Store.CreateIndex(ctx, spec)
}

func (s *countingStore) Upsert(ctx context.Context, name string, records []Record) error {
	s.upserts++
	if s.failAll != nil {
		return s.failAll
	}
	return s.Store.Upsert(ctx, name, records)
}

func newTestClient(t *testing.T) (*Client, *countingStore, *fakeEmbedder) {
	t.Helper()

	mem, err := NewChromemStore("")
	require.NoError(t, err)

	store := &countingStore{Store: mem}
	emb := newFakeEmbedder()
	client := NewClient(store, emb, Spec{Name: "docs", Dimension: testDim, Metric: MetricCosine, Cloud: "aws", Region: "us-east-1"})
	return client, store, emb
}

func chunk(id, text string) chunker.Chunk {
	return chunker.Chunk{ID: id, Text: text, Source: "doc.txt", Metadata: map[string]string{"source": "doc.txt"}}
}

func TestEnsureIndex_Idempotent(t *testing.T) {
	ctx := context.Background()
	client, store, _ := newTestClient(t)

	created, err := client.EnsureIndex(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = client.EnsureIndex(ctx)
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, 1, store.creates)

	names, err := store.ListIndexNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, names)
}

func TestEnsureIndex_KeepsExistingRecords(t *testing.T) {
	ctx := context.Background()
	client, _, _ := newTestClient(t)

	_, err := client.EnsureIndex(ctx)
	require.NoError(t, err)
	n, err := client.Upsert(ctx, []chunker.Chunk{chunk("a", "cats purr")})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = client.EnsureIndex(ctx)
	require.NoError(t, err)

	matches, err := client.Retrieve(ctx, "cats", 4)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestUpsert_PartialFailure(t *testing.T) {
	ctx := context.Background()
	client, _, emb := newTestClient(t)
	_, err := client.EnsureIndex(ctx)
	require.NoError(t, err)

	boom := errors.New("rate limited")
	emb.fail["broken chunk"] = boom

	n, err := client.Upsert(ctx, []chunker.Chunk{
		chunk("1", "first good chunk"),
		chunk("2", "broken chunk"),
		chunk("3", "second good chunk"),
	})
	assert.Equal(t, 2, n)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "chunk 2")

	matches, err := client.Retrieve(ctx, "good chunk", 10)
	require.NoError(t, err)
	ids := []string{}
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	assert.ElementsMatch(t, []string{"1", "3"}, ids)
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	client, store, emb := newTestClient(t)
	_, err := client.EnsureIndex(ctx)
	require.NoError(t, err)

	emb.dim = testDim * 2

	n, err := client.Upsert(ctx, []chunker.Chunk{chunk("1", "too wide")})
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 0, store.upserts, "nothing embedded, nothing written")
}

func TestUpsert_StoreFailure(t *testing.T) {
	ctx := context.Background()
	client, store, _ := newTestClient(t)
	_, err := client.EnsureIndex(ctx)
	require.NoError(t, err)

	store.failAll = errors.New("connection reset")

	n, err := client.Upsert(ctx, []chunker.Chunk{chunk("1", "text")})
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, store.failAll)
}

func TestUpsert_Batches(t *testing.T) {
	ctx := context.Background()
	client, store, _ := newTestClient(t)
	_, err := client.EnsureIndex(ctx)
	require.NoError(t, err)

	chunks := make([]chunker.Chunk, 0, upsertBatchSize+5)
	for i := 0; i < upsertBatchSize+5; i++ {
		chunks = append(chunks, chunk(strings.Repeat("x", i+1), "word number "+strings.Repeat("y", i+1)))
	}

	n, err := client.Upsert(ctx, chunks)
	require.NoError(t, err)
	assert.Equal(t, len(chunks), n)
	assert.Equal(t, 2, store.upserts)
}

func TestUpsert_CancelledContext(t *testing.T) {
	client, store, _ := newTestClient(t)
	_, err := client.EnsureIndex(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := client.Upsert(ctx, []chunker.Chunk{chunk("1", "text")})
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.upserts)
}

func TestUpsert_SameIDOverwrites(t *testing.T) {
	ctx := context.Background()
	client, _, _ := newTestClient(t)
	_, err := client.EnsureIndex(ctx)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := client.Upsert(ctx, []chunker.Chunk{chunk("same", "repeated text")})
		require.NoError(t, err)
	}

	matches, err := client.Retrieve(ctx, "repeated", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRetrieve_OrderAndLimit(t *testing.T) {
	ctx := context.Background()
	client, _, emb := newTestClient(t)
	_, err := client.EnsureIndex(ctx)
	require.NoError(t, err)

	_, err = client.Upsert(ctx, []chunker.Chunk{
		chunk("1", "apple banana cherry"),
		chunk("2", "apple banana"),
		chunk("3", "apple"),
		chunk("4", "zebra"),
		chunk("5", "the quick fox"),
	})
	require.NoError(t, err)

	matches, err := client.Retrieve(ctx, "apple banana cherry", 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "1", matches[0].ID)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
	assert.Equal(t, "doc.txt", matches[0].Metadata["source"])
	assert.Equal(t, "apple banana cherry", matches[0].Text)

	assert.Equal(t, []string{"apple banana cherry"}, emb.queries)
}

func TestRetrieve_KLargerThanIndex(t *testing.T) {
	ctx := context.Background()
	client, _, _ := newTestClient(t)
	_, err := client.EnsureIndex(ctx)
	require.NoError(t, err)

	_, err = client.Upsert(ctx, []chunker.Chunk{chunk("1", "only one")})
	require.NoError(t, err)

	matches, err := client.Retrieve(ctx, "one", 50)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	ctx := context.Background()
	client, _, _ := newTestClient(t)
	_, err := client.EnsureIndex(ctx)
	require.NoError(t, err)

	matches, err := client.Retrieve(ctx, "anything", 4)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrieve_MissingIndex(t *testing.T) {
	client, _, _ := newTestClient(t)

	_, err := client.Retrieve(context.Background(), "anything", 4)
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestRetrieve_InvalidK(t *testing.T) {
	client, _, _ := newTestClient(t)

	_, err := client.Retrieve(context.Background(), "anything", 0)
	assert.Error(t, err)
}

func TestChromemStore_RejectsOtherMetrics(t *testing.T) {
	store, err := NewChromemStore("")
	require.NoError(t, err)

	err = store.CreateIndex(context.Background(), Spec{Name: "x", Dimension: 3, Metric: "dotproduct"})
	assert.ErrorIs(t, err, ErrUnsupportedMetric)
}

func TestChromemStore_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewChromemStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.CreateIndex(ctx, Spec{Name: "docs", Dimension: 3, Metric: MetricCosine}))
	require.NoError(t, store.Upsert(ctx, "docs", []Record{{ID: "1", Vector: []float32{1, 0, 0}, Text: "persisted"}}))
	require.NoError(t, store.Close())

	reopened, err := NewChromemStore(dir)
	require.NoError(t, err)

	names, err := reopened.ListIndexNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, names)

	matches, err := reopened.Query(ctx, "docs", []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "persisted", matches[0].Text)
}

func TestFuncEmbedder_QueryPrefix(t *testing.T) {
	var seen []string
	fn := func(_ context.Context, text string) ([]float32, error) {
		seen = append(seen, text)
		return []float32{1}, nil
	}

	emb := NewFuncEmbedder(fn, cohereQueryPrefix)
	_, err := emb.EmbedDocument(context.Background(), "doc")
	require.NoError(t, err)
	_, err = emb.EmbedQuery(context.Background(), "question")
	require.NoError(t, err)

	assert.Equal(t, []string{"doc", "search_query: question"}, seen)
}

func TestNewEmbedder(t *testing.T) {
	for _, provider := range []string{"cohere", "openai", "ollama"} {
		t.Run(provider, func(t *testing.T) {
			emb, err := NewEmbedder(EmbedderOptions{Provider: provider, Model: "m", APIKey: "k", OllamaURL: "http://localhost:11434"})
			require.NoError(t, err)
			assert.NotNil(t, emb)
		})
	}

	_, err := NewEmbedder(EmbedderOptions{Provider: "bogus"})
	assert.Error(t, err)
}

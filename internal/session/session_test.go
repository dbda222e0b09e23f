package session

import (
	"bytes"
	"context"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"docqa/internal/chunker"
	"docqa/internal/conversation"
	"docqa/internal/index"
	"docqa/internal/llm"
	"docqa/internal/loader"
	"docqa/internal/loader/loadertest"
	"docqa/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dim = 256

// wordEmbedder is a bag-of-words embedder: texts sharing words are similar.
type wordEmbedder struct {
	calls atomic.Int32
	fail  error
}

func (e *wordEmbedder) embed(text string) []float32 {
	v := make([]float32, dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,?!")))
		v[h.Sum32()%dim]++
	}
	v[dim-1] += 0.01
	return v
}

func (e *wordEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if e.fail != nil {
		return nil, e.fail
	}
	return e.embed(text), nil
}

func (e *wordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	return e.embed(text), nil
}

type recordingGenerator struct {
	memories [][]llm.Message
	prompts  []string
}

func (g *recordingGenerator) Generate(_ context.Context, prompt string, memory []llm.Message) (string, error) {
	g.prompts = append(g.prompts, prompt)
	g.memories = append(g.memories, memory)
	return "answer", nil
}

type fixture struct {
	session   *Session
	client    *index.Client
	embedder  *wordEmbedder
	generator *recordingGenerator
	workDir   string
}

func newFixture(t *testing.T, topK int) *fixture {
	t.Helper()

	store, err := index.NewChromemStore("")
	require.NoError(t, err)

	emb := &wordEmbedder{}
	client := index.NewClient(store, emb, index.Spec{Name: "docs", Dimension: dim, Metric: index.MetricCosine, Region: "test"})
	_, err = client.EnsureIndex(context.Background())
	require.NoError(t, err)

	gen := &recordingGenerator{}
	engine := conversation.NewEngine(client, gen, conversation.Config{TopK: topK})

	workDir := filepath.Join(t.TempDir(), "work")
	s := New(Options{
		WorkDir: workDir,
		Chunker: chunker.NewTextChunker(chunker.DefaultConfig()),
		Indexer: client,
		Engine:  engine,
		Metrics: metrics.New(),
	})
	t.Cleanup(s.Close)

	return &fixture{session: s, client: client, embedder: emb, generator: gen, workDir: workDir}
}

func TestUpload_PDFPagesAreTraceable(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	pdf := loadertest.PDF(t,
		"Our company was founded in Lisbon by two engineers",
		"Refunds are accepted within thirty days of purchase",
		"Support is available on weekdays from nine to five",
	)

	report, err := f.session.Upload(ctx, "handbook.pdf", bytes.NewReader(pdf))
	require.NoError(t, err)
	assert.Equal(t, loader.KindPDF, report.Kind)
	assert.Equal(t, 3, report.Segments)
	assert.GreaterOrEqual(t, report.Chunks, 3)
	assert.Equal(t, report.Chunks, report.Written)
	assert.Equal(t, "handbook.pdf", f.session.Active())

	reply, err := f.session.Ask(ctx, "Within how many days are refunds accepted after purchase?")
	require.NoError(t, err)
	require.NotEmpty(t, reply.Sources)
	assert.True(t, reply.Grounded)

	top := reply.Sources[0]
	assert.Equal(t, "handbook.pdf", top.Metadata["source"])
	assert.Equal(t, "page", top.Metadata["unit"])
	assert.Equal(t, "2", top.Metadata["position"])
	assert.Contains(t, f.generator.prompts[0], "[handbook.pdf, page 2]")
}

func TestUpload_ShortTextIsOneChunk(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	text := strings.Repeat("abcde fghi ", 50)[:500]

	report, err := f.session.Upload(ctx, "notes.txt", strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Segments)
	assert.Equal(t, 1, report.Chunks)
	assert.Equal(t, 1, report.Written)

	matches, err := f.client.Retrieve(ctx, "abcde", 4)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, text, matches[0].Text)
}

func TestClear_NextAnswerHasEmptyHistory(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	_, err := f.session.Upload(ctx, "notes.txt", strings.NewReader("The office opens at eight."))
	require.NoError(t, err)

	_, err = f.session.Ask(ctx, "When does the office open?")
	require.NoError(t, err)
	_, err = f.session.Ask(ctx, "And on Sundays?")
	require.NoError(t, err)
	assert.Len(t, f.session.History(), 4)
	assert.Len(t, f.generator.memories[1], 2)

	f.session.Clear()
	assert.Empty(t, f.session.History())

	_, err = f.session.Ask(ctx, "When does the office open?")
	require.NoError(t, err)
	assert.Empty(t, f.generator.memories[2])
	assert.Len(t, f.session.History(), 2)
}

func TestUpload_UnsupportedNeverEmbeds(t *testing.T) {
	f := newFixture(t, 4)

	report, err := f.session.Upload(context.Background(), "photo.png", bytes.NewReader([]byte{0x89, 'P', 'N', 'G'}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, 0, report.Segments)
	assert.Equal(t, int32(0), f.embedder.calls.Load())
	assert.Empty(t, f.session.Active())
}

func TestUpload_EmptyDocument(t *testing.T) {
	f := newFixture(t, 4)

	_, err := f.session.Upload(context.Background(), "blank.txt", strings.NewReader("   \n  "))
	assert.ErrorIs(t, err, ErrNoText)
	assert.Equal(t, int32(0), f.embedder.calls.Load())
}

func TestUpload_DecodeError(t *testing.T) {
	f := newFixture(t, 4)

	_, err := f.session.Upload(context.Background(), "bad.txt", bytes.NewReader([]byte{0xff, 0xfe, 0xfd}))
	assert.ErrorIs(t, err, loader.ErrDecode)
	assert.Equal(t, int32(0), f.embedder.calls.Load())
}

func TestUpload_EmbeddingFailure(t *testing.T) {
	f := newFixture(t, 4)
	f.embedder.fail = errors.New("quota exceeded")

	report, err := f.session.Upload(context.Background(), "notes.txt", strings.NewReader("some text"))
	require.Error(t, err)
	assert.ErrorIs(t, err, f.embedder.fail)
	assert.Equal(t, 1, report.Chunks)
	assert.Equal(t, 0, report.Written)
	assert.Empty(t, f.session.Active())
}

func TestUpload_ScratchDirHoldsOneFile(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	_, err := f.session.Upload(ctx, "first.txt", strings.NewReader("first document"))
	require.NoError(t, err)
	_, err = f.session.Upload(ctx, "/some/where/second.csv", strings.NewReader("name,city\nAda,London\n"))
	require.NoError(t, err)

	entries, err := os.ReadDir(f.workDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "second.csv", entries[0].Name())
	assert.Equal(t, "second.csv", f.session.Active())
}

func TestUpload_ClearsEntriesButKeepsWorkDir(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(f.workDir, "stale", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.workDir, "stale", "nested", "old.txt"), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.workDir, "leftover.pdf"), []byte("old"), 0o644))
	before, err := os.Stat(f.workDir)
	require.NoError(t, err)

	_, err = f.session.Upload(ctx, "fresh.txt", strings.NewReader("fresh document"))
	require.NoError(t, err)

	after, err := os.Stat(f.workDir)
	require.NoError(t, err)
	assert.True(t, os.SameFile(before, after), "work dir must not be recreated")

	entries, err := os.ReadDir(f.workDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fresh.txt", entries[0].Name())
}

func TestUpload_DOCX(t *testing.T) {
	f := newFixture(t, 4)

	report, err := f.session.Upload(context.Background(), "memo.docx", bytes.NewReader(loadertest.DOCX(t, "First point", "Second point")))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Segments)
	assert.Equal(t, 2, report.Written)
}

func TestAsk_BeforeUploadIsUngrounded(t *testing.T) {
	f := newFixture(t, 4)

	reply, err := f.session.Ask(context.Background(), "Anything there?")
	require.NoError(t, err)
	assert.False(t, reply.Grounded)
	assert.Len(t, f.session.History(), 2)
}

func TestAsk_EmptyQuestionKeepsHistory(t *testing.T) {
	f := newFixture(t, 4)

	_, err := f.session.Ask(context.Background(), "  ")
	assert.ErrorIs(t, err, conversation.ErrEmptyQuestion)
	assert.Empty(t, f.session.History())
}

func TestHistory_ReturnsCopy(t *testing.T) {
	f := newFixture(t, 4)

	_, err := f.session.Ask(context.Background(), "question")
	require.NoError(t, err)

	h := f.session.History()
	h[0].Content = "changed"
	assert.Equal(t, "question", f.session.History()[0].Content)
}

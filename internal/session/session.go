// Package session owns the state of one user's conversation with their
// documents: the scratch directory, the last uploaded document and the
// conversation history.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"docqa/internal/chunker"
	"docqa/internal/conversation"
	"docqa/internal/loader"
	"docqa/internal/metrics"

	"github.com/rs/zerolog/log"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoText            = errors.New("document contains no extractable text")
)

// Indexer is the write path of the index client.
type Indexer interface {
	Upsert(ctx context.Context, chunks []chunker.Chunk) (int, error)
}

// Answerer is the conversation engine.
type Answerer interface {
	Answer(ctx context.Context, question string, history conversation.History) (conversation.Reply, conversation.History, error)
}

type Options struct {
	WorkDir string
	Chunker chunker.Chunker
	Indexer Indexer
	Engine  Answerer
	Metrics *metrics.Metrics
}

// Report describes a finished upload.
type Report struct {
	Name     string
	Kind     loader.Kind
	Segments int
	Chunks   int
	Written  int
	Duration time.Duration
}

type Session struct {
	workDir string
	chunker chunker.Chunker
	indexer Indexer
	engine  Answerer
	metrics *metrics.Metrics

	// upload: новая загрузка отменяет предыдущую
	cancelMu     sync.Mutex
	cancelUpload context.CancelFunc
	uploadMu     sync.Mutex

	mu      sync.Mutex
	history conversation.History
	active  string
}

func New(opts Options) *Session {
	return &Session{
		workDir: opts.WorkDir,
		chunker: opts.Chunker,
		indexer: opts.Indexer,
		engine:  opts.Engine,
		metrics: opts.Metrics,
	}
}

// Upload stores the document in the scratch directory, parses, chunks and
// indexes it. A newer Upload cancels this one.
//
// A partially indexed document is reported with both a Report and an error.
func (s *Session) Upload(ctx context.Context, name string, r io.Reader) (Report, error) {
	start := time.Now()
	ctx = s.replaceUpload(ctx)

	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	base := filepath.Base(name)
	report := Report{Name: base, Kind: loader.KindOf(base)}

	path, err := s.saveFile(base, r)
	if err != nil {
		s.metrics.Error(metrics.StageSaveFile)
		return report, err
	}
	log.Info().Str("file", base).Str("kind", report.Kind.String()).Msg("📄 File loaded")

	segments, err := loader.LoadFile(path)
	if err != nil {
		s.metrics.Error(metrics.StageLoad)
		return report, fmt.Errorf("failed to load %s: %w", base, err)
	}
	report.Segments = len(segments)
	if len(segments) == 0 {
		if report.Kind == loader.KindUnsupported {
			return report, fmt.Errorf("%w: %s", ErrUnsupportedFormat, base)
		}
		return report, fmt.Errorf("%w: %s", ErrNoText, base)
	}

	chunks, err := s.chunker.Chunk(segments)
	if err != nil {
		s.metrics.Error(metrics.StageChunk)
		return report, fmt.Errorf("failed to chunk %s: %w", base, err)
	}
	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		return report, fmt.Errorf("%w: %s", ErrNoText, base)
	}
	log.Info().Int("segments", len(segments)).Msgf("📦 Split into %d chunks", len(chunks))

	upsertStart := time.Now()
	written, err := s.indexer.Upsert(ctx, chunks)
	s.metrics.Observe(metrics.StageUpsert, upsertStart)
	report.Written = written
	report.Duration = time.Since(start)
	s.metrics.ChunksIndexed(written)

	if written > 0 {
		s.mu.Lock()
		s.active = base
		s.mu.Unlock()
		s.metrics.DocumentIngested(report.Kind.String())
	}

	if err != nil {
		s.metrics.Error(metrics.StageUpsert)
		return report, fmt.Errorf("indexed %d of %d chunks of %s: %w", written, len(chunks), base, err)
	}

	log.Info().Str("file", base).Int("chunks", written).Dur("took", report.Duration).Msg("✅ Document indexed")
	return report, nil
}

// replaceUpload cancels the previous upload, if any, and returns the context for the new one.
func (s *Session) replaceUpload(ctx context.Context) context.Context {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()

	if s.cancelUpload != nil {
		s.cancelUpload()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancelUpload = cancel
	return ctx
}

// saveFile empties the scratch directory and writes the upload into it.
// The directory itself is kept.
func (s *Session) saveFile(base string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.workDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create work dir: %w", err)
	}
	if err := clearDir(s.workDir); err != nil {
		return "", fmt.Errorf("failed to clear work dir: %w", err)
	}

	path := filepath.Join(s.workDir, base)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", base, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", base, err)
	}
	return path, f.Close()
}

// clearDir removes the entries of dir, not dir itself.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Ask answers question with the session history. Calls are serialised.
func (s *Session) Ask(ctx context.Context, question string) (conversation.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	reply, history, err := s.engine.Answer(ctx, question, s.history)
	s.metrics.Observe(metrics.StageAnswer, start)
	if err != nil {
		s.metrics.Error(metrics.StageAnswer)
		return reply, err
	}

	s.history = history
	s.metrics.QuestionAnswered(reply.Grounded)
	return reply, nil
}

// Clear resets the conversation. Indexed documents stay.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	log.Info().Msg("🧹 Conversation cleared")
}

// History returns a copy of the conversation so far.
func (s *Session) History() conversation.History {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append(conversation.History(nil), s.history...)
}

// Active returns the name of the last successfully indexed document.
func (s *Session) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active
}

// Close cancels an in-flight upload.
func (s *Session) Close() {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()

	if s.cancelUpload != nil {
		s.cancelUpload()
		s.cancelUpload = nil
	}
}

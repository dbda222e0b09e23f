// Package app wires configuration into the pipeline and runs the console loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/conversation"
	"docqa/internal/index"
	"docqa/internal/llm"
	"docqa/internal/metrics"
	"docqa/internal/session"

	"github.com/rs/zerolog/log"
)

type App struct {
	cfg       *config.Config
	store     index.Store
	index     *index.Client
	generator llm.Generator
	chunker   chunker.Chunker
	metrics   *metrics.Metrics

	metricsSrv  *http.Server
	metricsAddr string
}

// Deps are the external services the pipeline talks to.
type Deps struct {
	Store     index.Store
	Embedder  index.Embedder
	Generator llm.Generator
}

// New builds the service clients described by cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s index: %w", cfg.IndexBackend, err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	return NewWithDeps(cfg, Deps{Store: store, Embedder: embedder, Generator: generator}), nil
}

func NewWithDeps(cfg *config.Config, deps Deps) *App {
	return &App{
		cfg:       cfg,
		store:     deps.Store,
		index:     index.NewClient(deps.Store, deps.Embedder, indexSpec(cfg)),
		generator: deps.Generator,
		chunker: chunker.NewTextChunker(chunker.Config{
			MaxChunkSize: cfg.ChunkSize,
			Overlap:      cfg.ChunkOverlap,
		}),
		metrics: metrics.New(),
	}
}

// Init проверяет модели Ollama, создаёт индекс при необходимости и поднимает /metrics.
func (a *App) Init(ctx context.Context) error {
	if err := ensureOllamaModels(ctx, a.cfg); err != nil {
		return fmt.Errorf("ollama model check failed: %w", err)
	}

	if _, err := a.EnsureIndex(ctx); err != nil {
		return err
	}

	if a.cfg.MetricsAddr != "" {
		if err := a.serveMetrics(); err != nil {
			return fmt.Errorf("failed to start metrics endpoint: %w", err)
		}
	}
	return nil
}

// NewSession opens a conversation with its own engine and scratch directory.
func (a *App) NewSession() *session.Session {
	engine := conversation.NewEngine(a.index, a.generator, conversation.Config{
		TopK:             a.cfg.TopK,
		CondenseQuestion: a.cfg.CondenseQuestion,
	})

	return session.New(session.Options{
		WorkDir: a.cfg.WorkDir,
		Chunker: a.chunker,
		Indexer: a.index,
		Engine:  engine,
		Metrics: a.metrics,
	})
}

func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// MetricsAddr returns the address /metrics listens on, empty when disabled.
func (a *App) MetricsAddr() string {
	return a.metricsAddr
}

func (a *App) serveMetrics() error {
	ln, err := net.Listen("tcp", a.cfg.MetricsAddr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	a.metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	a.metricsAddr = ln.Addr().String()

	go func() {
		if err := a.metricsSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("❌ Metrics endpoint stopped")
		}
	}()

	log.Info().Msgf("📈 Metrics on http://%s/metrics", trimHostPrefix(a.cfg.MetricsAddr))
	return nil
}

// Helper to print address nicely in logs
func trimHostPrefix(addr string) string {
	if addr == "" {
		return "localhost"
	}
	if addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	return addr
}

func (a *App) Close() error {
	var errs []error
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, a.metricsSrv.Shutdown(ctx))
	}
	errs = append(errs, a.index.Close())
	return errors.Join(errs...)
}

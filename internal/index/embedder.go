package index

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
)

// Embedder is the embedding service. Documents and queries may be embedded
// differently by the same model (Cohere input types), so they are separate calls.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// cohereQueryPrefix switches chromem's Cohere embedding func to the
// search_query input type; without a prefix it embeds as search_document.
const cohereQueryPrefix = "search_query: "

// EmbedderOptions selects an embedding provider.
type EmbedderOptions struct {
	Provider  string // cohere, openai, ollama
	Model     string
	APIKey    string
	OllamaURL string
}

// FuncEmbedder adapts a chromem embedding func to Embedder.
type FuncEmbedder struct {
	fn          chromem.EmbeddingFunc
	queryPrefix string
}

// NewFuncEmbedder wraps fn; queryPrefix is prepended to query text only.
func NewFuncEmbedder(fn chromem.EmbeddingFunc, queryPrefix string) *FuncEmbedder {
	return &FuncEmbedder{fn: fn, queryPrefix: queryPrefix}
}

// NewEmbedder builds the embedder for the configured provider.
func NewEmbedder(opts EmbedderOptions) (*FuncEmbedder, error) {
	switch opts.Provider {
	case "cohere":
		return NewFuncEmbedder(chromem.NewEmbeddingFuncCohere(opts.APIKey, chromem.EmbeddingModelCohere(opts.Model)), cohereQueryPrefix), nil
	case "openai":
		return NewFuncEmbedder(chromem.NewEmbeddingFuncOpenAI(opts.APIKey, chromem.EmbeddingModelOpenAI(opts.Model)), ""), nil
	case "ollama":
		// chromem ждёт базовый URL вместе с /api
		return NewFuncEmbedder(chromem.NewEmbeddingFuncOllama(opts.Model, opts.OllamaURL+"/api"), ""), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", opts.Provider)
	}
}

func (e *FuncEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.fn(ctx, text)
}

func (e *FuncEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.fn(ctx, e.queryPrefix+text)
}

// Package llm wraps the generative model services behind one Generator interface.
package llm

import (
	"context"
	"fmt"
)

// Роли сообщений в памяти диалога
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message - одна реплика в памяти диалога
type Message struct {
	Role    string
	Content string
}

// Generator отправляет промпт вместе с памятью диалога в LLM и возвращает ответ
type Generator interface {
	Generate(ctx context.Context, prompt string, memory []Message) (string, error)
}

// Options - общие параметры генерации для всех провайдеров
type Options struct {
	Provider    string // cohere, openai, ollama, gemini
	Model       string
	APIKey      string
	BaseURL     string
	OllamaURL   string
	Temperature float32
	MaxTokens   int
}

// New создаёт генератор для указанного провайдера
func New(ctx context.Context, opts Options) (Generator, error) {
	switch opts.Provider {
	case "cohere":
		if opts.BaseURL == "" {
			opts.BaseURL = CohereCompatibilityURL
		}
		return NewOpenAIGenerator(opts)
	case "openai":
		return NewOpenAIGenerator(opts)
	case "ollama":
		return NewOllamaGenerator(opts)
	case "gemini":
		return NewGeminiGenerator(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}

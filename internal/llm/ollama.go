package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaGenerator uses a local Ollama server through its chat API.
type OllamaGenerator struct {
	client  *api.Client
	model   string
	options map[string]any
}

func NewOllamaGenerator(opts Options) (*OllamaGenerator, error) {
	u, err := url.Parse(opts.OllamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL: %w", err)
	}

	options := map[string]any{"temperature": opts.Temperature}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}

	return &OllamaGenerator{
		client:  api.NewClient(u, http.DefaultClient),
		model:   opts.Model,
		options: options,
	}, nil
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, memory []Message) (string, error) {
	messages := make([]api.Message, 0, len(memory)+1)
	for _, m := range memory {
		messages = append(messages, api.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, api.Message{Role: RoleUser, Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    g.model,
		Messages: messages,
		Stream:   &stream,
		Options:  g.options,
	}

	var answer strings.Builder
	err := g.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		answer.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to chat with ollama: %w", err)
	}

	return answer.String(), nil
}

package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// CohereCompatibilityURL - OpenAI-совместимый endpoint Cohere
const CohereCompatibilityURL = "https://api.cohere.ai/compatibility/v1"

// OpenAIGenerator talks to any OpenAI-compatible chat completions API.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAIGenerator(opts Options) (*OpenAIGenerator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}

	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(config),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, memory []Message) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(memory)+1)
	for _, m := range memory {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from LLM")
	}

	return resp.Choices[0].Message.Content, nil
}

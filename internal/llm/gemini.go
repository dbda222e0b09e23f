package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiGenerator uses the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func NewGeminiGenerator(ctx context.Context, opts Options) (*GeminiGenerator, error) {
	if opts.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	config := &genai.GenerateContentConfig{Temperature: genai.Ptr(opts.Temperature)}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}

	return &GeminiGenerator{client: client, model: opts.Model, config: config}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, memory []Message) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, geminiContents(prompt, memory), g.config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("no response from LLM")
	}
	return text, nil
}

// geminiContents maps memory onto Gemini roles: the assistant is "model".
func geminiContents(prompt string, memory []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(memory)+1)
	for _, m := range memory {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
}

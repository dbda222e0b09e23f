package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"docqa/internal/config"
	"docqa/internal/index"
	"docqa/internal/llm"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog/log"
)

func newEmbedder(cfg *config.Config) (index.Embedder, error) {
	embedder, err := index.NewEmbedder(index.EmbedderOptions{
		Provider:  cfg.EmbedProvider,
		Model:     cfg.EmbedModel,
		APIKey:    cfg.LLMAPIKey,
		OllamaURL: cfg.OllamaURL,
	})
	if err != nil {
		return nil, err
	}
	return embedder, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	return llm.New(ctx, llm.Options{
		Provider:    cfg.LLMProvider,
		Model:       cfg.LLMModel,
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		OllamaURL:   cfg.OllamaURL,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
}

// ollamaModels - модели, которые должен отдавать локальный Ollama
func ollamaModels(cfg *config.Config) []string {
	var models []string
	if cfg.EmbedProvider == config.ProviderOllama {
		models = append(models, cfg.EmbedModel)
	}
	if cfg.LLMProvider == config.ProviderOllama && cfg.LLMModel != cfg.EmbedModel {
		models = append(models, cfg.LLMModel)
	}
	return models
}

// ensureOllamaModels checks that Ollama is reachable and pulls missing models.
// It does nothing when no provider is ollama.
func ensureOllamaModels(ctx context.Context, cfg *config.Config) error {
	models := ollamaModels(cfg)
	if len(models) == 0 {
		return nil
	}

	u, err := url.Parse(cfg.OllamaURL)
	if err != nil {
		return fmt.Errorf("invalid ollama URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	available, err := client.List(ctx)
	if err != nil {
		return fmt.Errorf("ollama is not running or not reachable at %s: %w", cfg.OllamaURL, err)
	}

	for _, model := range models {
		if hasModel(available.Models, model) {
			log.Info().Str("model", model).Msg("✅ Model is available")
			continue
		}

		log.Info().Str("model", model).Msg("⬇️  Model not found, pulling...")
		stream := false
		err := client.Pull(ctx, &api.PullRequest{Model: model, Stream: &stream}, func(p api.ProgressResponse) error {
			log.Debug().Str("model", model).Str("status", p.Status).Msg("pull")
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to pull model %s: %w", model, err)
		}
		log.Info().Str("model", model).Msg("✅ Model pulled successfully")
	}
	return nil
}

// hasModel treats "name" and "name:latest" as the same model.
func hasModel(models []api.ListModelResponse, name string) bool {
	want := strings.TrimSuffix(name, ":latest")
	for _, m := range models {
		if strings.TrimSuffix(m.Name, ":latest") == want || strings.TrimSuffix(m.Model, ":latest") == want {
			return true
		}
	}
	return false
}

// Package llm builds chat models and runs single-turn prompt chains against
// them. Model output is free text; DecodeJSON recovers the structured parts.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/dyike/PortfolioGo/config"
)

// NewChatModel creates the chat model for the configured provider.
func NewChatModel(ctx context.Context, cfg *config.Config, modelName string) (model.ChatModel, error) {
	if cfg.APIKey() == "" {
		return nil, fmt.Errorf("no API key configured for provider %s", cfg.LLMProvider)
	}

	switch cfg.LLMProvider {
	case "deepseek":
		cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     modelName,
			MaxTokens: cfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create deepseek model: %w", err)
		}
		return cm, nil
	case "openai":
		maxTokens := cfg.MaxTokens
		temperature := float32(cfg.Temperature)
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     cfg.BackendURL,
			APIKey:      cfg.OpenAIAPIKey,
			Model:       modelName,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return cm, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}

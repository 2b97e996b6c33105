package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/financeos/financeos/internal/config"
)

// NewChatModel creates a ChatModel based on configuration
func NewChatModel(ctx context.Context, cfg *config.Config) (model.ChatModel, error) {
	p := cfg.Providers
	r := cfg.Report

	switch {
	case p.Claude.APIKey != "":
		return newClaudeModel(ctx, p.Claude, r)
	case p.OpenAI.APIKey != "":
		return newOpenAIModel(ctx, p.OpenAI, r)
	case p.Ollama.BaseURL != "":
		return newOllamaModel(ctx, p.Ollama, r)
	default:
		return nil, fmt.Errorf("no provider configured: set api_key for at least one provider")
	}
}

func newClaudeModel(ctx context.Context, p config.ProviderConfig, r config.ReportConfig) (model.ChatModel, error) {
	return claude.NewChatModel(ctx, &claude.Config{
		APIKey:      p.APIKey,
		Model:       r.Model,
		MaxTokens:   r.MaxTokens,
		Temperature: toFloat32Ptr(r.Temperature),
	})
}

func newOpenAIModel(ctx context.Context, p config.ProviderConfig, r config.ReportConfig) (model.ChatModel, error) {
	cfg := &openai.ChatModelConfig{
		Model:       r.Model,
		APIKey:      p.APIKey,
		Temperature: toFloat32Ptr(r.Temperature),
		MaxTokens:   toIntPtr(r.MaxTokens),
	}
	if p.BaseURL != "" {
		cfg.BaseURL = p.BaseURL
	}
	return openai.NewChatModel(ctx, cfg)
}

func newOllamaModel(ctx context.Context, p config.ProviderConfig, r config.ReportConfig) (model.ChatModel, error) {
	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: baseURL,
		Model:   r.Model,
	})
}

func toFloat32Ptr(f float64) *float32 {
	v := float32(f)
	return &v
}

func toIntPtr(i int) *int {
	return &i
}

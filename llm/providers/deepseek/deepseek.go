// Package deepseek configures the OpenAI-compatible adapter for the
// DeepSeek platform. DeepSeek serves chat, streaming, tools and legacy
// completions; it has no embeddings, image or audio endpoints, so the
// wrapper deliberately exposes a narrower surface than the underlying
// adapter.
package deepseek

import (
	"context"

	"github.com/eurora-labs/ferrous-llm/llm"
	"github.com/eurora-labs/ferrous-llm/llm/providers/openai_compat"
)

const (
	defaultBaseURL = "https://api.deepseek.com/v1"
	defaultModel   = "deepseek-chat"
)

// Provider narrows the compat adapter to the capabilities DeepSeek serves.
type Provider struct {
	inner *openai_compat.Provider
}

var (
	_ llm.ChatProvider       = (*Provider)(nil)
	_ llm.StreamingProvider  = (*Provider)(nil)
	_ llm.ToolProvider       = (*Provider)(nil)
	_ llm.CompletionProvider = (*Provider)(nil)
)

func New(apiKey string, opts ...openai_compat.Option) (*Provider, error) {
	cfg := openai_compat.DefaultConfig("deepseek", apiKey)
	cfg.BaseURL = defaultBaseURL
	cfg.Model = defaultModel
	for _, opt := range opts {
		opt(&cfg)
	}
	inner, err := openai_compat.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Provider{inner: inner}, nil
}

func (p *Provider) ProviderName() string { return p.inner.ProviderName() }

func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	return p.inner.Chat(ctx, req)
}

func (p *Provider) ChatStream(ctx context.Context, req llm.ChatRequest) (llm.Stream, error) {
	return p.inner.ChatStream(ctx, req)
}

func (p *Provider) ChatWithTools(ctx context.Context, req llm.ChatRequest, tools []llm.Tool) (llm.ChatResponse, error) {
	return p.inner.ChatWithTools(ctx, req, tools)
}

// Complete targets the beta prompt-completion endpoint.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	return p.inner.Complete(ctx, req)
}

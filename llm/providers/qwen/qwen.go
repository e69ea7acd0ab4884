// Package qwen configures the OpenAI-compatible adapter for Alibaba's
// DashScope compatible-mode endpoint. Qwen serves chat, streaming, tools
// and embeddings through that endpoint; images and audio use a different
// DashScope API, so the wrapper leaves them out.
package qwen

import (
	"context"

	"github.com/eurora-labs/ferrous-llm/llm"
	"github.com/eurora-labs/ferrous-llm/llm/providers/openai_compat"
)

const (
	defaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	defaultModel   = "qwen-plus"
)

// Provider narrows the compat adapter to the capabilities Qwen serves.
type Provider struct {
	inner *openai_compat.Provider
}

var (
	_ llm.ChatProvider      = (*Provider)(nil)
	_ llm.StreamingProvider = (*Provider)(nil)
	_ llm.ToolProvider      = (*Provider)(nil)
	_ llm.EmbeddingProvider = (*Provider)(nil)
)

func New(apiKey string, opts ...openai_compat.Option) (*Provider, error) {
	cfg := openai_compat.DefaultConfig("qwen", apiKey)
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

// Embed uses the text-embedding model family rather than the chat model;
// build a dedicated embeddings provider with WithModel to select one.
func (p *Provider) Embed(ctx context.Context, texts []string) ([]llm.Embedding, error) {
	return p.inner.Embed(ctx, texts)
}

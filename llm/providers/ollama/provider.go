// Package ollama implements the capability interfaces against a local
// Ollama daemon. The daemon speaks plain JSON with newline-delimited
// streaming instead of SSE, and requires no credentials.
package ollama

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eurora-labs/ferrous-llm/llm"
	"github.com/eurora-labs/ferrous-llm/llm/internal/transport"
)

const (
	defaultBaseURL = "http://localhost:11434"

	chatPath     = "/api/chat"
	generatePath = "/api/generate"
	embedPath    = "/api/embed"
)

type Config struct {
	BaseURL string

	// Model is the default model, overridable per request through the
	// "model" metadata extension.
	Model string

	// Timeout bounds one whole operation. Local generation can be slow, so
	// the default leaves it unset.
	Timeout time.Duration

	ConnectTimeout time.Duration

	Retry llm.RetryPolicy

	HTTPClient *http.Client

	Logger *slog.Logger
}

func DefaultConfig(model string) Config {
	return Config{
		BaseURL:        defaultBaseURL,
		Model:          model,
		ConnectTimeout: 10 * time.Second,
		Retry:          llm.DefaultRetryPolicy(),
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return &llm.ConfigError{Provider: "ollama", Field: "base_url", Message: "required"}
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &llm.ConfigError{Provider: "ollama", Field: "base_url", Message: "malformed URL"}
	}
	if strings.TrimSpace(c.Model) == "" {
		return &llm.ConfigError{Provider: "ollama", Field: "model", Message: "required"}
	}
	return nil
}

type Option func(*Config)

func WithBaseURL(baseURL string) Option {
	return func(c *Config) { c.BaseURL = baseURL }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

func WithRetryPolicy(p llm.RetryPolicy) Option {
	return func(c *Config) { c.Retry = p }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

type Provider struct {
	cfg Config
	tr  *transport.Client
}

var (
	_ llm.ChatProvider       = (*Provider)(nil)
	_ llm.StreamingProvider  = (*Provider)(nil)
	_ llm.ToolProvider       = (*Provider)(nil)
	_ llm.CompletionProvider = (*Provider)(nil)
	_ llm.EmbeddingProvider  = (*Provider)(nil)
)

func New(model string, opts ...Option) (*Provider, error) {
	cfg := DefaultConfig(model)
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewFromConfig(cfg)
}

func NewFromConfig(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hc := cfg.HTTPClient
	if hc == nil {
		connectTimeout := cfg.ConnectTimeout
		if connectTimeout <= 0 {
			connectTimeout = 10 * time.Second
		}
		hc = &http.Client{
			Transport: &http.Transport{
				DialContext:     (&net.Dialer{Timeout: connectTimeout}).DialContext,
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		}
	}
	tr, err := transport.New(cfg.BaseURL, hc)
	if err != nil {
		return nil, &llm.ConfigError{Provider: "ollama", Field: "base_url", Message: err.Error()}
	}
	if cfg.Logger != nil {
		tr.Logger = cfg.Logger
	}

	return &Provider{cfg: cfg, tr: tr}, nil
}

func (p *Provider) ProviderName() string { return "ollama" }

func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	return p.chat(ctx, req, nil)
}

func (p *Provider) ChatWithTools(ctx context.Context, req llm.ChatRequest, tools []llm.Tool) (llm.ChatResponse, error) {
	return p.chat(ctx, req, tools)
}

func (p *Provider) chat(ctx context.Context, req llm.ChatRequest, tools []llm.Tool) (llm.ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, invalidRequest("messages must not be empty")
	}

	payload, err := p.buildChatPayload(req, tools, false)
	if err != nil {
		return nil, err
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	raw, err := llm.Retry(ctx, p.cfg.Retry, p.tr.Logger, func(ctx context.Context) ([]byte, error) {
		raw, err := p.tr.DoJSON(ctx, http.MethodPost, chatPath, p.headers(), payload)
		if err != nil {
			return nil, p.mapError(err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	var wire chatReply
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &llm.ProviderError{
			Provider: "ollama",
			Kind:     llm.ErrKindUnknown,
			Message:  "failed to decode chat response",
			Raw:      raw,
			Cause:    err,
		}
	}
	return newChatResponse(wire), nil
}

// Complete drives the generate endpoint, which takes a bare prompt instead
// of a turn list.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, invalidRequest("prompt must not be empty")
	}

	payload := map[string]any{
		"model":  p.model(req.Metadata),
		"prompt": req.Prompt,
		"stream": false,
	}
	if opts := options(req.Parameters); len(opts) > 0 {
		payload["options"] = opts
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	raw, err := llm.Retry(ctx, p.cfg.Retry, p.tr.Logger, func(ctx context.Context) ([]byte, error) {
		raw, err := p.tr.DoJSON(ctx, http.MethodPost, generatePath, p.headers(), payload)
		if err != nil {
			return nil, p.mapError(err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	var wire generateReply
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &llm.ProviderError{
			Provider: "ollama",
			Kind:     llm.ErrKindUnknown,
			Message:  "failed to decode generate response",
			Raw:      raw,
			Cause:    err,
		}
	}
	return newCompletionResponse(wire), nil
}

// Embed returns one vector per input, in input order.
func (p *Provider) Embed(ctx context.Context, texts []string) ([]llm.Embedding, error) {
	if len(texts) == 0 {
		return []llm.Embedding{}, nil
	}

	payload := map[string]any{
		"model": p.cfg.Model,
		"input": texts,
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	raw, err := llm.Retry(ctx, p.cfg.Retry, p.tr.Logger, func(ctx context.Context) ([]byte, error) {
		raw, err := p.tr.DoJSON(ctx, http.MethodPost, embedPath, p.headers(), payload)
		if err != nil {
			return nil, p.mapError(err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	var wire embedReply
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &llm.ProviderError{
			Provider: "ollama",
			Kind:     llm.ErrKindUnknown,
			Message:  "failed to decode embeddings response",
			Raw:      raw,
			Cause:    err,
		}
	}
	if len(wire.Embeddings) != len(texts) {
		return nil, &llm.ProviderError{
			Provider: "ollama",
			Kind:     llm.ErrKindServer,
			Message:  "embedding count does not match input count",
			Raw:      raw,
		}
	}

	out := make([]llm.Embedding, len(wire.Embeddings))
	for i, vec := range wire.Embeddings {
		out[i] = llm.Embedding{Index: i, Vector: vec}
	}
	return out, nil
}

func (p *Provider) headers() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	return h
}

func invalidRequest(msg string) error {
	return &llm.ProviderError{
		Provider: "ollama",
		Kind:     llm.ErrKindInvalidRequest,
		Message:  msg,
	}
}

// Package anthropic implements the chat, streaming and tool capabilities
// against the Anthropic Messages API. The wire protocol differs from the
// OpenAI-compatible one in shape (content blocks, typed stream events,
// x-api-key auth), so this adapter is native rather than a wrapper.
package anthropic

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
	defaultBaseURL = "https://api.anthropic.com"
	messagesPath   = "/v1/messages"

	apiVersion = "2023-06-01"

	// The Messages API requires max_tokens on every request; this is the
	// fallback when the caller sets none.
	defaultMaxTokens = 1024
)

type Config struct {
	APIKey string

	BaseURL string

	// Model is the default model, overridable per request through the
	// "model" metadata extension.
	Model string

	// Timeout bounds one whole operation, streaming included.
	Timeout time.Duration

	ConnectTimeout time.Duration

	Retry llm.RetryPolicy

	Headers http.Header

	HTTPClient *http.Client

	Logger *slog.Logger
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:         apiKey,
		BaseURL:        defaultBaseURL,
		Model:          "claude-sonnet-4-0",
		ConnectTimeout: 10 * time.Second,
		Retry:          llm.DefaultRetryPolicy(),
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &llm.ConfigError{Provider: "anthropic", Field: "api_key", Message: "required"}
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return &llm.ConfigError{Provider: "anthropic", Field: "base_url", Message: "required"}
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &llm.ConfigError{Provider: "anthropic", Field: "base_url", Message: "malformed URL"}
	}
	if strings.TrimSpace(c.Model) == "" {
		return &llm.ConfigError{Provider: "anthropic", Field: "model", Message: "required"}
	}
	return nil
}

type Option func(*Config)

func WithBaseURL(baseURL string) Option {
	return func(c *Config) { c.BaseURL = baseURL }
}

func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

func WithRetryPolicy(p llm.RetryPolicy) Option {
	return func(c *Config) { c.Retry = p }
}

func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
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
	_ llm.ChatProvider      = (*Provider)(nil)
	_ llm.StreamingProvider = (*Provider)(nil)
	_ llm.ToolProvider      = (*Provider)(nil)
)

func New(apiKey string, opts ...Option) (*Provider, error) {
	cfg := DefaultConfig(apiKey)
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
				DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	tr, err := transport.New(cfg.BaseURL, hc)
	if err != nil {
		return nil, &llm.ConfigError{Provider: "anthropic", Field: "base_url", Message: err.Error()}
	}
	if cfg.Logger != nil {
		tr.Logger = cfg.Logger
	}
	if cfg.Headers != nil {
		cfg.Headers = cfg.Headers.Clone()
	}

	return &Provider{cfg: cfg, tr: tr}, nil
}

func (p *Provider) ProviderName() string { return "anthropic" }

func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	return p.chat(ctx, req, nil)
}

func (p *Provider) ChatWithTools(ctx context.Context, req llm.ChatRequest, tools []llm.Tool) (llm.ChatResponse, error) {
	return p.chat(ctx, req, tools)
}

func (p *Provider) chat(ctx context.Context, req llm.ChatRequest, tools []llm.Tool) (llm.ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, &llm.ProviderError{
			Provider: "anthropic",
			Kind:     llm.ErrKindInvalidRequest,
			Message:  "messages must not be empty",
		}
	}

	payload, err := p.buildPayload(req, tools, false)
	if err != nil {
		return nil, err
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	raw, err := llm.Retry(ctx, p.cfg.Retry, p.tr.Logger, func(ctx context.Context) ([]byte, error) {
		raw, err := p.tr.DoJSON(ctx, http.MethodPost, messagesPath, p.headers("application/json"), payload)
		if err != nil {
			return nil, p.mapError(err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	var wire messageResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &llm.ProviderError{
			Provider: "anthropic",
			Kind:     llm.ErrKindUnknown,
			Message:  "failed to decode messages response",
			Raw:      raw,
			Cause:    err,
		}
	}
	return newChatResponse(wire), nil
}

func (p *Provider) headers(accept string) http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	if accept != "" {
		h.Set("Accept", accept)
	}
	h.Set("X-Api-Key", p.cfg.APIKey)
	h.Set("Anthropic-Version", apiVersion)
	for k, vs := range p.cfg.Headers {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	return h
}

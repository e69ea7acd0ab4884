// Package openai_compat implements the capability interfaces against the
// OpenAI-compatible wire protocol (JSON over HTTP with SSE streaming).
// Vendor packages (openai, deepseek, qwen) are thin wrappers pinning a name
// and base URL over this one.
package openai_compat

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

// Config is an adapter's immutable settings. It is validated once in New
// and reused for the provider's lifetime; the builder options below each
// default sensibly so callers set only what differs.
type Config struct {
	// Name identifies the backend in errors and logs.
	Name string

	APIKey string

	// BaseURL is the scheme://host[:port][/prefix] of the backend.
	BaseURL string

	// Model is the model identifier sent with every request. A request may
	// override it through the "model" metadata extension.
	Model string

	ChatPath        string
	CompletionsPath string
	EmbeddingsPath  string

	// Timeout bounds one whole operation, streaming included. Zero means
	// no per-call deadline beyond the caller's context.
	Timeout time.Duration

	// ConnectTimeout bounds dialing only.
	ConnectTimeout time.Duration

	Retry llm.RetryPolicy

	// Headers are sent with every request on top of the defaults.
	Headers http.Header

	// Extensions is an unvalidated passthrough of vendor knobs merged into
	// request bodies; the core never interprets it.
	Extensions map[string]any

	// HTTPClient overrides the built-in transport when set.
	HTTPClient *http.Client

	Logger *slog.Logger
}

func DefaultConfig(name, apiKey string) Config {
	return Config{
		Name:            name,
		APIKey:          apiKey,
		BaseURL:         "https://api.openai.com/v1",
		ChatPath:        "/chat/completions",
		CompletionsPath: "/completions",
		EmbeddingsPath:  "/embeddings",
		ConnectTimeout:  10 * time.Second,
		Retry:           llm.DefaultRetryPolicy(),
	}
}

// Validate fails fast, before any network call.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &llm.ConfigError{Provider: "openai_compat", Field: "name", Message: "required"}
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return &llm.ConfigError{Provider: c.Name, Field: "api_key", Message: "required"}
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return &llm.ConfigError{Provider: c.Name, Field: "base_url", Message: "required"}
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &llm.ConfigError{Provider: c.Name, Field: "base_url", Message: "malformed URL"}
	}
	if strings.TrimSpace(c.Model) == "" {
		return &llm.ConfigError{Provider: c.Name, Field: "model", Message: "required"}
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

func WithConnectTimeout(d time.Duration) Option {
	return func(c *Config) { c.ConnectTimeout = d }
}

func WithRetryPolicy(p llm.RetryPolicy) Option {
	return func(c *Config) { c.Retry = p }
}

func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Add(key, value)
	}
}

// WithExtension records a vendor knob merged verbatim into request bodies.
func WithExtension(key string, value any) Option {
	return func(c *Config) {
		if c.Extensions == nil {
			c.Extensions = map[string]any{}
		}
		c.Extensions[key] = value
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

func WithChatPath(path string) Option {
	return func(c *Config) { c.ChatPath = path }
}

func WithCompletionsPath(path string) Option {
	return func(c *Config) { c.CompletionsPath = path }
}

func WithEmbeddingsPath(path string) Option {
	return func(c *Config) { c.EmbeddingsPath = path }
}

type Provider struct {
	cfg Config
	tr  *transport.Client
}

var (
	_ llm.ChatProvider         = (*Provider)(nil)
	_ llm.StreamingProvider    = (*Provider)(nil)
	_ llm.ToolProvider         = (*Provider)(nil)
	_ llm.CompletionProvider   = (*Provider)(nil)
	_ llm.EmbeddingProvider    = (*Provider)(nil)
	_ llm.ImageProvider        = (*Provider)(nil)
	_ llm.SpeechToTextProvider = (*Provider)(nil)
	_ llm.TextToSpeechProvider = (*Provider)(nil)
)

func New(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = newHTTPClient(cfg.ConnectTimeout)
	}
	tr, err := transport.New(cfg.BaseURL, hc)
	if err != nil {
		return nil, &llm.ConfigError{Provider: cfg.Name, Field: "base_url", Message: err.Error()}
	}
	if cfg.Logger != nil {
		tr.Logger = cfg.Logger
	}
	if cfg.Headers != nil {
		cfg.Headers = cfg.Headers.Clone()
	}

	return &Provider{cfg: cfg, tr: tr}, nil
}

func newHTTPClient(connectTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func (p *Provider) ProviderName() string { return p.cfg.Name }

func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	return p.chat(ctx, req, nil)
}

func (p *Provider) ChatWithTools(ctx context.Context, req llm.ChatRequest, tools []llm.Tool) (llm.ChatResponse, error) {
	return p.chat(ctx, req, tools)
}

func (p *Provider) chat(ctx context.Context, req llm.ChatRequest, tools []llm.Tool) (llm.ChatResponse, error) {
	if err := validateChatRequest(p.cfg.Name, req); err != nil {
		return nil, err
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
		raw, err := p.tr.DoJSON(ctx, http.MethodPost, p.cfg.ChatPath, p.headers("application/json"), payload)
		if err != nil {
			return nil, p.mapError(err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	var wire chatCompletionResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &llm.ProviderError{
			Provider: p.cfg.Name,
			Kind:     llm.ErrKindUnknown,
			Message:  "failed to decode chat response",
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
	if p.cfg.APIKey != "" {
		h.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}
	mergeHeaders(h, p.cfg.Headers)
	return h
}

func mergeHeaders(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func validateChatRequest(provider string, req llm.ChatRequest) error {
	if len(req.Messages) == 0 {
		return &llm.ProviderError{
			Provider: provider,
			Kind:     llm.ErrKindInvalidRequest,
			Message:  "messages must not be empty",
		}
	}
	return nil
}

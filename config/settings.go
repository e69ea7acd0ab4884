package config

import (
	"fmt"
	"time"

	"github.com/eurora-labs/ferrous-llm/llm"
	"github.com/eurora-labs/ferrous-llm/llm/providers/anthropic"
	"github.com/eurora-labs/ferrous-llm/llm/providers/deepseek"
	"github.com/eurora-labs/ferrous-llm/llm/providers/ollama"
	"github.com/eurora-labs/ferrous-llm/llm/providers/openai"
	"github.com/eurora-labs/ferrous-llm/llm/providers/openai_compat"
	"github.com/eurora-labs/ferrous-llm/llm/providers/qwen"
)

// Settings is the root of a configuration file: named provider entries plus
// the one used when the caller does not pick.
type Settings struct {
	Default   string                      `mapstructure:"default"`
	Providers map[string]ProviderSettings `mapstructure:"providers"`
}

// ProviderSettings configures one backend. Kind selects the adapter; the
// remaining fields are optional overrides of that adapter's defaults.
type ProviderSettings struct {
	Kind    string `mapstructure:"kind"`
	APIKey  Secret `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`

	Timeout time.Duration `mapstructure:"timeout"`

	// MaxRetries overrides the retry policy's attempt count when set.
	MaxRetries *int `mapstructure:"max_retries"`
}

// Build constructs the named provider. Every adapter satisfies
// llm.ChatProvider; extra capabilities are discovered through the llm.As*
// helpers.
func (s Settings) Build(name string) (llm.ChatProvider, error) {
	if name == "" {
		name = s.Default
	}
	ps, ok := s.Providers[name]
	if !ok {
		return nil, &llm.ConfigError{Provider: name, Field: "providers", Message: "no such provider entry"}
	}
	return ps.build(name)
}

func (ps ProviderSettings) build(name string) (llm.ChatProvider, error) {
	switch ps.Kind {
	case "openai":
		return openai.New(ps.APIKey.Reveal(), ps.compatOptions()...)
	case "deepseek":
		return deepseek.New(ps.APIKey.Reveal(), ps.compatOptions()...)
	case "qwen":
		return qwen.New(ps.APIKey.Reveal(), ps.compatOptions()...)
	case "openai_compat":
		cfg := openai_compat.DefaultConfig(name, ps.APIKey.Reveal())
		for _, opt := range ps.compatOptions() {
			opt(&cfg)
		}
		return openai_compat.New(cfg)
	case "anthropic":
		return anthropic.New(ps.APIKey.Reveal(), ps.anthropicOptions()...)
	case "ollama":
		return ollama.New(ps.Model, ps.ollamaOptions()...)
	case "":
		return nil, &llm.ConfigError{Provider: name, Field: "kind", Message: "required"}
	default:
		return nil, &llm.ConfigError{Provider: name, Field: "kind", Message: fmt.Sprintf("unknown kind %q", ps.Kind)}
	}
}

func (ps ProviderSettings) retryPolicy() llm.RetryPolicy {
	policy := llm.DefaultRetryPolicy()
	if ps.MaxRetries != nil {
		policy.MaxRetries = *ps.MaxRetries
	}
	return policy
}

func (ps ProviderSettings) compatOptions() []openai_compat.Option {
	opts := []openai_compat.Option{openai_compat.WithRetryPolicy(ps.retryPolicy())}
	if ps.BaseURL != "" {
		opts = append(opts, openai_compat.WithBaseURL(ps.BaseURL))
	}
	if ps.Model != "" {
		opts = append(opts, openai_compat.WithModel(ps.Model))
	}
	if ps.Timeout > 0 {
		opts = append(opts, openai_compat.WithTimeout(ps.Timeout))
	}
	return opts
}

func (ps ProviderSettings) anthropicOptions() []anthropic.Option {
	opts := []anthropic.Option{anthropic.WithRetryPolicy(ps.retryPolicy())}
	if ps.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(ps.BaseURL))
	}
	if ps.Model != "" {
		opts = append(opts, anthropic.WithModel(ps.Model))
	}
	if ps.Timeout > 0 {
		opts = append(opts, anthropic.WithTimeout(ps.Timeout))
	}
	return opts
}

func (ps ProviderSettings) ollamaOptions() []ollama.Option {
	opts := []ollama.Option{ollama.WithRetryPolicy(ps.retryPolicy())}
	if ps.BaseURL != "" {
		opts = append(opts, ollama.WithBaseURL(ps.BaseURL))
	}
	if ps.Timeout > 0 {
		opts = append(opts, ollama.WithTimeout(ps.Timeout))
	}
	return opts
}

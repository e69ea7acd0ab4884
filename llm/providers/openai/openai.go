// Package openai configures the OpenAI-compatible adapter for the OpenAI
// platform. OpenAI speaks its own protocol natively, so the wrapper only
// pins the provider name and default model.
package openai

import (
	"github.com/eurora-labs/ferrous-llm/llm/providers/openai_compat"
)

const defaultModel = "gpt-4o-mini"

// New builds an OpenAI provider. The returned provider implements every
// capability interface, chat through speech.
func New(apiKey string, opts ...openai_compat.Option) (*openai_compat.Provider, error) {
	cfg := openai_compat.DefaultConfig("openai", apiKey)
	cfg.Model = defaultModel
	for _, opt := range opts {
		opt(&cfg)
	}
	return openai_compat.New(cfg)
}

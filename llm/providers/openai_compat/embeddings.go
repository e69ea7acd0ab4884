package openai_compat

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/eurora-labs/ferrous-llm/llm"
)

// Embed returns one vector per input, in input order. An empty input yields
// an empty result without touching the network.
func (p *Provider) Embed(ctx context.Context, inputs []string) ([]llm.Embedding, error) {
	if len(inputs) == 0 {
		return []llm.Embedding{}, nil
	}

	payload := map[string]any{
		"model": p.cfg.Model,
		"input": inputs,
	}
	mergeExtensions(payload, p.cfg.Extensions)

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	raw, err := llm.Retry(ctx, p.cfg.Retry, p.tr.Logger, func(ctx context.Context) ([]byte, error) {
		raw, err := p.tr.DoJSON(ctx, http.MethodPost, p.cfg.EmbeddingsPath, p.headers("application/json"), payload)
		if err != nil {
			return nil, p.mapError(err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	var wire embeddingsResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &llm.ProviderError{
			Provider: p.cfg.Name,
			Kind:     llm.ErrKindUnknown,
			Message:  "failed to decode embeddings response",
			Raw:      raw,
			Cause:    err,
		}
	}
	if len(wire.Data) != len(inputs) {
		return nil, &llm.ProviderError{
			Provider: p.cfg.Name,
			Kind:     llm.ErrKindServer,
			Message:  "embedding count does not match input count",
			Raw:      raw,
		}
	}

	// Servers may return items out of order; the index field is
	// authoritative.
	sort.Slice(wire.Data, func(i, j int) bool { return wire.Data[i].Index < wire.Data[j].Index })

	out := make([]llm.Embedding, len(wire.Data))
	for i, item := range wire.Data {
		out[i] = llm.Embedding{Index: item.Index, Vector: item.Embedding}
	}
	return out, nil
}

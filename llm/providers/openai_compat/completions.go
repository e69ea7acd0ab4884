package openai_compat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/eurora-labs/ferrous-llm/llm"
)

// Complete runs a legacy prompt completion against the completions path.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, invalidRequest(p.cfg.Name, "prompt must not be empty")
	}

	payload := p.buildCompletionPayload(req)

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	raw, err := llm.Retry(ctx, p.cfg.Retry, p.tr.Logger, func(ctx context.Context) ([]byte, error) {
		raw, err := p.tr.DoJSON(ctx, http.MethodPost, p.cfg.CompletionsPath, p.headers("application/json"), payload)
		if err != nil {
			return nil, p.mapError(err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	var wire completionResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &llm.ProviderError{
			Provider: p.cfg.Name,
			Kind:     llm.ErrKindUnknown,
			Message:  "failed to decode completion response",
			Raw:      raw,
			Cause:    err,
		}
	}
	return newCompletionResponse(wire), nil
}

type completionResult struct {
	text         string
	usage        *llm.Usage
	finishReason *llm.FinishReason
	metadata     llm.Metadata
}

var _ llm.CompletionResponse = (*completionResult)(nil)

func newCompletionResponse(wire completionResponse) *completionResult {
	res := &completionResult{
		usage: mapUsage(wire.Usage),
		metadata: llm.Metadata{
			RequestID: wire.ID,
			CreatedAt: time.Now().UTC(),
		},
	}
	if wire.Created > 0 {
		res.metadata.CreatedAt = time.Unix(wire.Created, 0).UTC()
	}
	if len(wire.Choices) > 0 {
		res.text = wire.Choices[0].Text
		res.finishReason = mapFinishReason(wire.Choices[0].FinishReason)
	}
	return res
}

func (r *completionResult) Text() string                    { return r.text }
func (r *completionResult) Usage() *llm.Usage               { return r.usage }
func (r *completionResult) FinishReason() *llm.FinishReason { return r.finishReason }
func (r *completionResult) Metadata() llm.Metadata          { return r.metadata }

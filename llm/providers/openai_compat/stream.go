package openai_compat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/eurora-labs/ferrous-llm/llm"
	"github.com/eurora-labs/ferrous-llm/llm/internal/sse"
)

// ChatStream starts a streaming chat completion. Establishment failures are
// retried under the configured policy; once the first byte of the stream is
// handed over, failures surface through Recv and are never retried.
func (p *Provider) ChatStream(ctx context.Context, req llm.ChatRequest) (llm.Stream, error) {
	if err := validateChatRequest(p.cfg.Name, req); err != nil {
		return nil, err
	}
	payload, err := p.buildChatPayload(req, nil, true)
	if err != nil {
		return nil, err
	}

	cancel := func() {}
	if p.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
	}

	resp, err := llm.Retry(ctx, p.cfg.Retry, p.tr.Logger, func(ctx context.Context) (*http.Response, error) {
		resp, err := p.tr.DoStream(ctx, http.MethodPost, p.cfg.ChatPath, p.headers("text/event-stream"), payload)
		if err != nil {
			return nil, p.mapError(err)
		}
		return resp, nil
	})
	if err != nil {
		cancel()
		return nil, err
	}

	source := llm.SourceWithCancel(sse.NewSource(resp.Body), cancel)
	dec := &chunkDecoder{provider: p.cfg.Name}
	return llm.NewNormalizedStream(source, dec.decode, p.tr.Logger), nil
}

// chunkDecoder turns SSE data payloads into stream chunks. Finish reason and
// usage arrive in separate frames ahead of the [DONE] terminator, so they are
// held back and emitted as the single final chunk.
type chunkDecoder struct {
	provider string
	finish   *llm.FinishReason
	usage    *llm.Usage
}

func (d *chunkDecoder) decode(frame []byte) ([]llm.StreamChunk, error) {
	if string(frame) == "[DONE]" {
		return []llm.StreamChunk{llm.FinalChunk(d.finish, d.usage)}, nil
	}

	var chunk chatCompletionChunk
	if err := json.Unmarshal(frame, &chunk); err != nil {
		return nil, &llm.ProviderError{
			Provider: d.provider,
			Kind:     llm.ErrKindServer,
			Message:  "malformed stream frame",
			Raw:      frame,
			Cause:    err,
		}
	}
	if chunk.Error != nil {
		return nil, &llm.ProviderError{
			Provider: d.provider,
			Kind:     llm.ErrKindServer,
			Code:     codeString(chunk.Error.Code),
			Message:  chunk.Error.Message,
			Raw:      frame,
		}
	}
	if chunk.Usage != nil {
		d.usage = mapUsage(chunk.Usage)
	}

	var out []llm.StreamChunk
	for _, choice := range chunk.Choices {
		if choice.Delta.Content != "" {
			out = append(out, llm.ContentChunk(choice.Delta.Content))
		}
		for _, tc := range choice.Delta.ToolCalls {
			out = append(out, llm.ToolCallChunk(llm.ToolCallDelta{
				Index:          tc.Index,
				ID:             tc.ID,
				Name:           tc.Function.Name,
				ArgumentsDelta: tc.Function.Arguments,
			}))
		}
		if fr := mapFinishReason(choice.FinishReason); fr != nil {
			d.finish = fr
		}
	}
	return out, nil
}

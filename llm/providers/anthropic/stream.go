package anthropic

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/eurora-labs/ferrous-llm/llm"
	"github.com/eurora-labs/ferrous-llm/llm/internal/sse"
)

// ChatStream starts a streaming message. Establishment is retried under the
// configured policy; once events flow, failures surface through Recv.
func (p *Provider) ChatStream(ctx context.Context, req llm.ChatRequest) (llm.Stream, error) {
	if len(req.Messages) == 0 {
		return nil, &llm.ProviderError{
			Provider: "anthropic",
			Kind:     llm.ErrKindInvalidRequest,
			Message:  "messages must not be empty",
		}
	}
	payload, err := p.buildPayload(req, nil, true)
	if err != nil {
		return nil, err
	}

	cancel := func() {}
	if p.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
	}

	resp, err := llm.Retry(ctx, p.cfg.Retry, p.tr.Logger, func(ctx context.Context) (*http.Response, error) {
		resp, err := p.tr.DoStream(ctx, http.MethodPost, messagesPath, p.headers("text/event-stream"), payload)
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
	dec := &eventDecoder{}
	return llm.NewNormalizedStream(source, dec.decode, p.tr.Logger), nil
}

// eventDecoder folds the typed event sequence into stream chunks. Input
// tokens arrive on message_start and output tokens on message_delta, so
// usage is assembled across events and emitted with the final chunk on
// message_stop. Content block indices count every block including text, so
// tool_use blocks are renumbered into dense tool-call ordinals as they
// start.
type eventDecoder struct {
	inputTokens  int
	outputTokens int
	sawUsage     bool
	finish       *llm.FinishReason
	toolSlots    map[int]int
}

func (d *eventDecoder) decode(frame []byte) ([]llm.StreamChunk, error) {
	var event streamEvent
	if err := json.Unmarshal(frame, &event); err != nil {
		return nil, &llm.ProviderError{
			Provider: "anthropic",
			Kind:     llm.ErrKindServer,
			Message:  "malformed stream event",
			Raw:      frame,
			Cause:    err,
		}
	}

	switch event.Type {
	case "message_start":
		if event.Message != nil && event.Message.Usage != nil {
			d.inputTokens = event.Message.Usage.InputTokens
			d.sawUsage = true
		}
		return nil, nil

	case "content_block_start":
		if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
			if d.toolSlots == nil {
				d.toolSlots = make(map[int]int)
			}
			slot := len(d.toolSlots)
			d.toolSlots[event.Index] = slot
			return []llm.StreamChunk{llm.ToolCallChunk(llm.ToolCallDelta{
				Index: slot,
				ID:    event.ContentBlock.ID,
				Name:  event.ContentBlock.Name,
			})}, nil
		}
		return nil, nil

	case "content_block_delta":
		if event.Delta == nil {
			return nil, nil
		}
		switch event.Delta.Type {
		case "text_delta":
			if event.Delta.Text == "" {
				return nil, nil
			}
			return []llm.StreamChunk{llm.ContentChunk(event.Delta.Text)}, nil
		case "input_json_delta":
			slot, ok := d.toolSlots[event.Index]
			if !ok {
				return nil, nil
			}
			return []llm.StreamChunk{llm.ToolCallChunk(llm.ToolCallDelta{
				Index:          slot,
				ArgumentsDelta: event.Delta.PartialJSON,
			})}, nil
		}
		return nil, nil

	case "message_delta":
		if event.Delta != nil {
			if fr := mapStopReason(event.Delta.StopReason); fr != nil {
				d.finish = fr
			}
		}
		if event.Usage != nil {
			d.outputTokens = event.Usage.OutputTokens
			d.sawUsage = true
		}
		return nil, nil

	case "message_stop":
		var usage *llm.Usage
		if d.sawUsage {
			u := llm.NewUsage(d.inputTokens, d.outputTokens)
			usage = &u
		}
		return []llm.StreamChunk{llm.FinalChunk(d.finish, usage)}, nil

	case "error":
		msg := "stream error"
		code := ""
		if event.Error != nil {
			msg = event.Error.Message
			code = event.Error.Type
		}
		return nil, &llm.ProviderError{
			Provider: "anthropic",
			Kind:     llm.ErrKindServer,
			Code:     code,
			Message:  msg,
			Raw:      frame,
		}
	}

	// ping, content_block_stop and any future event types carry nothing.
	return nil, nil
}

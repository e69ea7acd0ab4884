package ollama

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eurora-labs/ferrous-llm/llm"
)

func (p *Provider) buildChatPayload(req llm.ChatRequest, tools []llm.Tool, stream bool) (map[string]any, error) {
	messages, err := mapMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"model":    p.model(req.Metadata),
		"messages": messages,
		"stream":   stream,
	}
	if opts := options(req.Parameters); len(opts) > 0 {
		payload["options"] = opts
	}
	if len(tools) > 0 {
		wireTools := make([]map[string]any, 0, len(tools))
		for _, t := range tools {
			wireTools = append(wireTools, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.Function.Name,
					"description": t.Function.Description,
					"parameters":  t.Function.Parameters,
				},
			})
		}
		payload["tools"] = wireTools
	}
	return payload, nil
}

func (p *Provider) model(md llm.Metadata) string {
	if v, ok := md.Extensions["model"].(string); ok && v != "" {
		return v
	}
	return p.cfg.Model
}

// options maps sampling parameters into the daemon's options object, where
// max tokens is called num_predict.
func options(params llm.Parameters) map[string]any {
	opts := make(map[string]any)
	if params.Temperature != nil {
		opts["temperature"] = *params.Temperature
	}
	if params.TopP != nil {
		opts["top_p"] = *params.TopP
	}
	if params.TopK != nil {
		opts["top_k"] = *params.TopK
	}
	if params.MaxTokens != nil {
		opts["num_predict"] = *params.MaxTokens
	}
	if len(params.StopSequences) > 0 {
		opts["stop"] = params.StopSequences
	}
	if params.FrequencyPenalty != nil {
		opts["frequency_penalty"] = *params.FrequencyPenalty
	}
	if params.PresencePenalty != nil {
		opts["presence_penalty"] = *params.PresencePenalty
	}
	return opts
}

func mapMessages(messages []llm.Message) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		wire := map[string]any{"role": string(m.Role)}

		switch c := m.Content.(type) {
		case nil:
			wire["content"] = ""
		case llm.TextContent:
			wire["content"] = c.Text
		case llm.MultimodalContent:
			text, images, err := splitParts(c.Parts)
			if err != nil {
				return nil, err
			}
			wire["content"] = text
			if len(images) > 0 {
				wire["images"] = images
			}
		default:
			return nil, invalidRequest("unsupported message content type")
		}

		if len(m.ToolCalls) > 0 {
			calls := make([]map[string]any, 0, len(m.ToolCalls))
			for _, call := range m.ToolCalls {
				args := json.RawMessage(call.Function.Arguments)
				if len(args) == 0 {
					args = json.RawMessage("{}")
				}
				calls = append(calls, map[string]any{
					"function": map[string]any{
						"name":      call.Function.Name,
						"arguments": args,
					},
				})
			}
			wire["tool_calls"] = calls
		}
		out = append(out, wire)
	}
	return out, nil
}

// splitParts joins text parts and collects base64 image payloads. The
// daemon takes raw base64 data, so URL images cannot be forwarded.
func splitParts(parts []llm.ContentPart) (string, []string, error) {
	var text strings.Builder
	var images []string
	for _, part := range parts {
		switch p := part.(type) {
		case llm.TextPart:
			text.WriteString(p.Text)
		case llm.ImagePart:
			src, ok := p.Source.(llm.Base64Source)
			if !ok {
				return "", nil, invalidRequest("image URLs are not supported, inline the data as base64")
			}
			images = append(images, src.Data)
		default:
			return "", nil, invalidRequest("unsupported content part for this backend")
		}
	}
	return text.String(), images, nil
}

func newChatResponse(wire chatReply) *chatResponse {
	res := &chatResponse{
		content:  wire.Message.Content,
		metadata: llm.Metadata{CreatedAt: wire.CreatedAt},
	}
	if res.metadata.CreatedAt.IsZero() {
		res.metadata.CreatedAt = time.Now().UTC()
	}
	if wire.Done {
		res.finishReason = mapDoneReason(wire.DoneReason, len(wire.Message.ToolCalls) > 0)
		res.usage = mapCounts(wire.PromptEvalCount, wire.EvalCount)
	}
	for _, call := range wire.Message.ToolCalls {
		res.toolCalls = append(res.toolCalls, mapToolCall(len(res.toolCalls), call))
	}
	return res
}

// mapToolCall synthesizes a call ID since the daemon assigns none.
func mapToolCall(index int, call replyToolCall) llm.ToolCall {
	return llm.ToolCall{
		ID:   fmt.Sprintf("call_%d", index),
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionCall{
			Name:      call.Function.Name,
			Arguments: string(call.Function.Arguments),
		},
	}
}

func mapDoneReason(wire string, hasToolCalls bool) *llm.FinishReason {
	var fr llm.FinishReason
	switch {
	case hasToolCalls:
		fr = llm.FinishReasonToolCalls
	case wire == "stop" || wire == "":
		fr = llm.FinishReasonStop
	case wire == "length":
		fr = llm.FinishReasonMaxTokens
	default:
		fr = llm.FinishReasonUnknown
	}
	return &fr
}

func mapCounts(prompt, eval int) *llm.Usage {
	if prompt == 0 && eval == 0 {
		return nil
	}
	u := llm.NewUsage(prompt, eval)
	return &u
}

type chatResponse struct {
	content      string
	usage        *llm.Usage
	finishReason *llm.FinishReason
	metadata     llm.Metadata
	toolCalls    []llm.ToolCall
}

var _ llm.ChatResponse = (*chatResponse)(nil)

func (r *chatResponse) Content() string                 { return r.content }
func (r *chatResponse) Usage() *llm.Usage               { return r.usage }
func (r *chatResponse) FinishReason() *llm.FinishReason { return r.finishReason }
func (r *chatResponse) Metadata() llm.Metadata          { return r.metadata }
func (r *chatResponse) ToolCalls() []llm.ToolCall       { return r.toolCalls }

func newCompletionResponse(wire generateReply) *completionResult {
	res := &completionResult{
		text:     wire.Response,
		metadata: llm.Metadata{CreatedAt: wire.CreatedAt},
	}
	if res.metadata.CreatedAt.IsZero() {
		res.metadata.CreatedAt = time.Now().UTC()
	}
	if wire.Done {
		res.finishReason = mapDoneReason(wire.DoneReason, false)
		res.usage = mapCounts(wire.PromptEvalCount, wire.EvalCount)
	}
	return res
}

type completionResult struct {
	text         string
	usage        *llm.Usage
	finishReason *llm.FinishReason
	metadata     llm.Metadata
}

var _ llm.CompletionResponse = (*completionResult)(nil)

func (r *completionResult) Text() string                    { return r.text }
func (r *completionResult) Usage() *llm.Usage               { return r.usage }
func (r *completionResult) FinishReason() *llm.FinishReason { return r.finishReason }
func (r *completionResult) Metadata() llm.Metadata          { return r.metadata }

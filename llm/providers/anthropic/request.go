package anthropic

import (
	"encoding/json"

	"github.com/eurora-labs/ferrous-llm/llm"
)

func (p *Provider) buildPayload(req llm.ChatRequest, tools []llm.Tool, stream bool) (map[string]any, error) {
	system, messages, err := splitMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	maxTokens := defaultMaxTokens
	if req.Parameters.MaxTokens != nil {
		maxTokens = *req.Parameters.MaxTokens
	}

	payload := map[string]any{
		"model":      p.model(req.Metadata),
		"max_tokens": maxTokens,
		"messages":   messages,
	}
	if system != "" {
		payload["system"] = system
	}
	if stream {
		payload["stream"] = true
	}

	params := req.Parameters
	if params.Temperature != nil {
		payload["temperature"] = *params.Temperature
	}
	if params.TopP != nil {
		payload["top_p"] = *params.TopP
	}
	if params.TopK != nil {
		payload["top_k"] = *params.TopK
	}
	if len(params.StopSequences) > 0 {
		payload["stop_sequences"] = params.StopSequences
	}

	if len(tools) > 0 {
		wireTools := make([]map[string]any, 0, len(tools))
		for _, t := range tools {
			wt := map[string]any{
				"name":         t.Function.Name,
				"input_schema": t.Function.Parameters,
			}
			if t.Function.Description != "" {
				wt["description"] = t.Function.Description
			}
			wireTools = append(wireTools, wt)
		}
		payload["tools"] = wireTools
	}

	if req.Metadata.UserID != "" {
		payload["metadata"] = map[string]any{"user_id": req.Metadata.UserID}
	}
	return payload, nil
}

func (p *Provider) model(md llm.Metadata) string {
	if v, ok := md.Extensions["model"].(string); ok && v != "" {
		return v
	}
	return p.cfg.Model
}

// splitMessages separates the system prompt from the turn list. System
// messages concatenate into the top-level system field; tool results become
// user turns carrying tool_result blocks, as the Messages API requires.
func splitMessages(messages []llm.Message) (string, []map[string]any, error) {
	var system string
	out := make([]map[string]any, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Text()

		case llm.RoleUser:
			blocks, err := contentBlocks(m.Content)
			if err != nil {
				return "", nil, err
			}
			out = append(out, map[string]any{"role": "user", "content": blocks})

		case llm.RoleAssistant:
			blocks, err := contentBlocks(m.Content)
			if err != nil {
				return "", nil, err
			}
			for _, call := range m.ToolCalls {
				input := json.RawMessage(call.Function.Arguments)
				if len(input) == 0 {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, map[string]any{
					"type":  "tool_use",
					"id":    call.ID,
					"name":  call.Function.Name,
					"input": input,
				})
			}
			out = append(out, map[string]any{"role": "assistant", "content": blocks})

		case llm.RoleTool:
			out = append(out, map[string]any{
				"role": "user",
				"content": []map[string]any{{
					"type":        "tool_result",
					"tool_use_id": m.ToolCallID,
					"content":     m.Text(),
				}},
			})

		default:
			return "", nil, &llm.ProviderError{
				Provider: "anthropic",
				Kind:     llm.ErrKindInvalidRequest,
				Message:  "unsupported message role " + string(m.Role),
			}
		}
	}
	return system, out, nil
}

func contentBlocks(content llm.MessageContent) ([]map[string]any, error) {
	switch c := content.(type) {
	case nil:
		return nil, nil
	case llm.TextContent:
		if c.Text == "" {
			return nil, nil
		}
		return []map[string]any{{"type": "text", "text": c.Text}}, nil
	case llm.MultimodalContent:
		blocks := make([]map[string]any, 0, len(c.Parts))
		for _, part := range c.Parts {
			block, err := partBlock(part)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
		}
		return blocks, nil
	default:
		return nil, &llm.ProviderError{
			Provider: "anthropic",
			Kind:     llm.ErrKindInvalidRequest,
			Message:  "unsupported message content type",
		}
	}
}

func partBlock(part llm.ContentPart) (map[string]any, error) {
	switch p := part.(type) {
	case llm.TextPart:
		return map[string]any{"type": "text", "text": p.Text}, nil
	case llm.ImagePart:
		switch src := p.Source.(type) {
		case llm.URLSource:
			return map[string]any{
				"type":   "image",
				"source": map[string]any{"type": "url", "url": src.URL},
			}, nil
		case llm.Base64Source:
			return map[string]any{
				"type": "image",
				"source": map[string]any{
					"type":       "base64",
					"media_type": src.MediaType,
					"data":       src.Data,
				},
			}, nil
		default:
			return nil, &llm.ProviderError{
				Provider: "anthropic",
				Kind:     llm.ErrKindInvalidRequest,
				Message:  "unsupported image source",
			}
		}
	default:
		return nil, &llm.ProviderError{
			Provider: "anthropic",
			Kind:     llm.ErrKindInvalidRequest,
			Message:  "unsupported content part for this backend",
		}
	}
}

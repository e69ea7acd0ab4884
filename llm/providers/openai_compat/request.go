package openai_compat

import (
	"fmt"

	"github.com/eurora-labs/ferrous-llm/llm"
)

// buildChatPayload maps the canonical request onto the wire shape. Vendor
// extensions are merged last and never override fields the mapping set.
func (p *Provider) buildChatPayload(req llm.ChatRequest, tools []llm.Tool, stream bool) (map[string]any, error) {
	msgs, err := mapMessages(p.cfg.Name, req.Messages)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"model":    p.model(req.Metadata),
		"messages": msgs,
	}
	if stream {
		payload["stream"] = true
		// Ask for the usage frame so the final chunk can carry accounting.
		payload["stream_options"] = map[string]any{"include_usage": true}
	}

	applyParameters(payload, req.Parameters)

	if len(tools) > 0 {
		wireTools := make([]apiTool, 0, len(tools))
		for _, t := range tools {
			wireTools = append(wireTools, apiTool{
				Type: string(t.Type),
				Function: apiFunctionDef{
					Name:        t.Function.Name,
					Description: t.Function.Description,
					Parameters:  t.Function.Parameters,
				},
			})
		}
		payload["tools"] = wireTools
	}

	if req.Metadata.UserID != "" {
		payload["user"] = req.Metadata.UserID
	}

	mergeExtensions(payload, p.cfg.Extensions)
	mergeExtensions(payload, req.Metadata.Extensions)

	return payload, nil
}

func (p *Provider) buildCompletionPayload(req llm.CompletionRequest) map[string]any {
	payload := map[string]any{
		"model":  p.model(req.Metadata),
		"prompt": req.Prompt,
	}
	applyParameters(payload, req.Parameters)
	mergeExtensions(payload, p.cfg.Extensions)
	mergeExtensions(payload, req.Metadata.Extensions)
	return payload
}

// model resolves the model identifier: config default, overridable through
// the "model" metadata extension.
func (p *Provider) model(md llm.Metadata) string {
	if v, ok := md.Extensions["model"].(string); ok && v != "" {
		return v
	}
	return p.cfg.Model
}

func applyParameters(payload map[string]any, params llm.Parameters) {
	if params.Temperature != nil {
		payload["temperature"] = *params.Temperature
	}
	if params.TopP != nil {
		payload["top_p"] = *params.TopP
	}
	if params.TopK != nil {
		// Not part of the OpenAI schema; compatible backends that support
		// it (e.g. vLLM) accept it as a top-level field.
		payload["top_k"] = *params.TopK
	}
	if params.MaxTokens != nil {
		payload["max_tokens"] = *params.MaxTokens
	}
	if len(params.StopSequences) > 0 {
		payload["stop"] = params.StopSequences
	}
	if params.FrequencyPenalty != nil {
		payload["frequency_penalty"] = *params.FrequencyPenalty
	}
	if params.PresencePenalty != nil {
		payload["presence_penalty"] = *params.PresencePenalty
	}
}

func mergeExtensions(payload map[string]any, ext map[string]any) {
	for k, v := range ext {
		if k == "model" {
			continue // handled by model()
		}
		if _, exists := payload[k]; exists {
			continue
		}
		payload[k] = v
	}
}

func mapMessages(provider string, messages []llm.Message) ([]apiMessage, error) {
	out := make([]apiMessage, 0, len(messages))
	for _, m := range messages {
		wire := apiMessage{
			Role:       string(m.Role),
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}

		content, err := mapContent(provider, m.Content)
		if err != nil {
			return nil, err
		}
		wire.Content = content

		for i, tc := range m.ToolCalls {
			wire.ToolCalls = append(wire.ToolCalls, apiToolCall{
				Index: i,
				ID:    tc.ID,
				Type:  string(tc.Type),
				Function: apiFunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}

		out = append(out, wire)
	}
	return out, nil
}

func mapContent(provider string, content llm.MessageContent) (any, error) {
	switch c := content.(type) {
	case nil:
		return nil, nil
	case llm.TextContent:
		return c.Text, nil
	case llm.MultimodalContent:
		parts := make([]map[string]any, 0, len(c.Parts))
		for _, part := range c.Parts {
			wire, err := mapPart(provider, part)
			if err != nil {
				return nil, err
			}
			parts = append(parts, wire)
		}
		return parts, nil
	default:
		return nil, invalidRequest(provider, fmt.Sprintf("unsupported content type %T", content))
	}
}

func mapPart(provider string, part llm.ContentPart) (map[string]any, error) {
	switch p := part.(type) {
	case llm.TextPart:
		return map[string]any{"type": "text", "text": p.Text}, nil
	case llm.ImagePart:
		img := map[string]any{"url": imageURL(p.Source)}
		if p.Detail != "" {
			img["detail"] = p.Detail
		}
		return map[string]any{"type": "image_url", "image_url": img}, nil
	case llm.AudioPart:
		audio := map[string]any{"data": p.Source}
		if p.Format != "" {
			audio["format"] = p.Format
		}
		return map[string]any{"type": "input_audio", "input_audio": audio}, nil
	default:
		return nil, invalidRequest(provider, fmt.Sprintf("unsupported content part %T", part))
	}
}

func imageURL(src llm.ImageSource) string {
	switch s := src.(type) {
	case llm.URLSource:
		return s.URL
	case llm.Base64Source:
		return "data:" + s.MediaType + ";base64," + s.Data
	default:
		return ""
	}
}

func invalidRequest(provider, msg string) error {
	return &llm.ProviderError{Provider: provider, Kind: llm.ErrKindInvalidRequest, Message: msg}
}

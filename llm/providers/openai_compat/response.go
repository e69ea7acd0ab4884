package openai_compat

import (
	"github.com/eurora-labs/ferrous-llm/llm"
)

type chatResponse struct {
	content      string
	usage        *llm.Usage
	finishReason *llm.FinishReason
	metadata     llm.Metadata
	toolCalls    []llm.ToolCall
}

var _ llm.ChatResponse = (*chatResponse)(nil)

func newChatResponse(wire chatCompletionResponse) *chatResponse {
	resp := &chatResponse{
		metadata: llm.Metadata{
			RequestID: wire.ID,
			CreatedAt: wire.CreatedTime(),
		},
		usage: mapUsage(wire.Usage),
	}

	if len(wire.Choices) > 0 {
		choice := wire.Choices[0]
		if s, ok := choice.Message.Content.(string); ok {
			resp.content = s
		}
		resp.finishReason = mapFinishReason(choice.FinishReason)
		for _, tc := range choice.Message.ToolCalls {
			resp.toolCalls = append(resp.toolCalls, llm.ToolCall{
				ID:   tc.ID,
				Type: llm.ToolType(tc.Type),
				Function: llm.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
	}

	return resp
}

func (r *chatResponse) Content() string                 { return r.content }
func (r *chatResponse) Usage() *llm.Usage               { return r.usage }
func (r *chatResponse) FinishReason() *llm.FinishReason { return r.finishReason }
func (r *chatResponse) Metadata() llm.Metadata          { return r.metadata }
func (r *chatResponse) ToolCalls() []llm.ToolCall       { return r.toolCalls }

func mapUsage(u *apiUsage) *llm.Usage {
	if u == nil {
		return nil
	}
	usage := llm.NewUsage(u.PromptTokens, u.CompletionTokens)
	return &usage
}

func mapFinishReason(wire string) *llm.FinishReason {
	if wire == "" {
		return nil
	}
	var fr llm.FinishReason
	switch wire {
	case "stop":
		fr = llm.FinishReasonStop
	case "length":
		fr = llm.FinishReasonMaxTokens
	case "tool_calls", "function_call":
		fr = llm.FinishReasonToolCalls
	case "content_filter":
		fr = llm.FinishReasonContentFilter
	default:
		fr = llm.FinishReasonUnknown
	}
	return &fr
}

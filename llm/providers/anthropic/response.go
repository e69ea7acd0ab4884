package anthropic

import (
	"strings"
	"time"

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

func newChatResponse(wire messageResponse) *chatResponse {
	res := &chatResponse{
		usage:        mapUsage(wire.Usage),
		finishReason: mapStopReason(wire.StopReason),
		metadata: llm.Metadata{
			RequestID: wire.ID,
			CreatedAt: time.Now().UTC(),
		},
	}

	var text strings.Builder
	for _, block := range wire.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			res.toolCalls = append(res.toolCalls, llm.ToolCall{
				ID:   block.ID,
				Type: llm.ToolTypeFunction,
				Function: llm.FunctionCall{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		}
	}
	res.content = text.String()
	return res
}

func (r *chatResponse) Content() string                 { return r.content }
func (r *chatResponse) Usage() *llm.Usage               { return r.usage }
func (r *chatResponse) FinishReason() *llm.FinishReason { return r.finishReason }
func (r *chatResponse) Metadata() llm.Metadata          { return r.metadata }
func (r *chatResponse) ToolCalls() []llm.ToolCall       { return r.toolCalls }

func mapUsage(u *messageUsage) *llm.Usage {
	if u == nil {
		return nil
	}
	usage := llm.NewUsage(u.InputTokens, u.OutputTokens)
	return &usage
}

func mapStopReason(wire string) *llm.FinishReason {
	var fr llm.FinishReason
	switch wire {
	case "":
		return nil
	case "end_turn", "stop_sequence":
		fr = llm.FinishReasonStop
	case "max_tokens":
		fr = llm.FinishReasonMaxTokens
	case "tool_use":
		fr = llm.FinishReasonToolCalls
	case "refusal":
		fr = llm.FinishReasonContentFilter
	default:
		fr = llm.FinishReasonUnknown
	}
	return &fr
}

package anthropic

import "encoding/json"

// Wire types for the Messages API. Responses are built from content blocks
// rather than choices, and stream events are typed.

type messageResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Model        string         `json:"model"`
	Content      []contentBlock `json:"content"`
	StopReason   string         `json:"stop_reason"`
	StopSequence string         `json:"stop_sequence"`
	Usage        *messageUsage  `json:"usage,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`

	// text blocks
	Text string `json:"text,omitempty"`

	// tool_use blocks
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type messageUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// streamEvent is the union of every SSE event the Messages API emits. The
// Type field discriminates; unused fields are zero.
type streamEvent struct {
	Type string `json:"type"`

	// message_start
	Message *messageResponse `json:"message,omitempty"`

	// content_block_start, content_block_delta, content_block_stop
	Index        int           `json:"index,omitempty"`
	ContentBlock *contentBlock `json:"content_block,omitempty"`
	Delta        *eventDelta   `json:"delta,omitempty"`

	// message_delta
	Usage *messageUsage `json:"usage,omitempty"`

	// error
	Error *apiError `json:"error,omitempty"`
}

// eventDelta carries either a content delta or, on message_delta, the stop
// reason.
type eventDelta struct {
	Type        string `json:"type,omitempty"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Type  string    `json:"type"`
	Error *apiError `json:"error"`
}

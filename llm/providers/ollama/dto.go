package ollama

import (
	"encoding/json"
	"time"
)

// chatReply is one /api/chat object: the whole reply when stream is false,
// one delta line when streaming. The final streamed line sets Done and
// carries the token counts.
type chatReply struct {
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Message   replyMsg  `json:"message"`

	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason,omitempty"`

	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`

	Error string `json:"error,omitempty"`
}

type replyMsg struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	ToolCalls []replyToolCall `json:"tool_calls,omitempty"`
}

type replyToolCall struct {
	Function replyFunction `json:"function"`
}

// replyFunction carries arguments as a JSON object rather than a string.
type replyFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type generateReply struct {
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Response  string    `json:"response"`

	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason,omitempty"`

	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

type embedReply struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`

	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
}

type errorReply struct {
	Error string `json:"error"`
}

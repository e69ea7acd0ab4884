package llm

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonMaxTokens     FinishReason = "max_tokens"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonError         FinishReason = "error"
	FinishReasonUnknown       FinishReason = "unknown"
)

// MessageContent is the content of a message: either plain text or an
// ordered multimodal part sequence. The two forms are intentionally a
// closed union; providers switch on the concrete type.
type MessageContent interface {
	isMessageContent()
}

// TextContent is simple text content.
type TextContent struct {
	Text string
}

func (TextContent) isMessageContent() {}

// MultimodalContent is an ordered sequence of content parts. Part order is
// semantically meaningful and must be preserved end to end.
type MultimodalContent struct {
	Parts []ContentPart
}

func (MultimodalContent) isMessageContent() {}

// ContentPart is one segment of multimodal content.
type ContentPart interface {
	isPart()
}

type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

type ImagePart struct {
	Source ImageSource

	// Detail is an optional processing hint ("low", "high", "auto").
	Detail string
}

func (ImagePart) isPart() {}

type AudioPart struct {
	// Source is a URL or base64 payload, provider dependent.
	Source string

	// Format is the audio format ("mp3", "wav", ...), if known.
	Format string
}

func (AudioPart) isPart() {}

// ImageSource is where image bytes come from: a URL or inline base64 data.
type ImageSource interface {
	isImageSource()
}

type URLSource struct {
	URL string
}

func (URLSource) isImageSource() {}

type Base64Source struct {
	MediaType string
	Data      string
}

func (Base64Source) isImageSource() {}

// Message is a canonical chat message.
//
// For tool results, use RoleTool with ToolCallID set; ToolCallID is never
// set for any other role. For assistant tool calls, use ToolCalls.
type Message struct {
	Role    Role
	Content MessageContent

	// Name is an optional sender name supported by some providers.
	Name string

	ToolCalls  []ToolCall
	ToolCallID string

	CreatedAt time.Time
}

func System(text string) Message {
	return Message{Role: RoleSystem, Content: TextContent{Text: text}, CreatedAt: time.Now().UTC()}
}

func User(text string) Message {
	return Message{Role: RoleUser, Content: TextContent{Text: text}, CreatedAt: time.Now().UTC()}
}

func Assistant(text string) Message {
	return Message{Role: RoleAssistant, Content: TextContent{Text: text}, CreatedAt: time.Now().UTC()}
}

func ToolResult(toolCallID, text string) Message {
	return Message{Role: RoleTool, ToolCallID: toolCallID, Content: TextContent{Text: text}, CreatedAt: time.Now().UTC()}
}

func UserMultimodal(parts ...ContentPart) Message {
	return Message{Role: RoleUser, Content: MultimodalContent{Parts: parts}, CreatedAt: time.Now().UTC()}
}

func AssistantWithTools(text string, calls ...ToolCall) Message {
	m := Message{Role: RoleAssistant, ToolCalls: append([]ToolCall(nil), calls...), CreatedAt: time.Now().UTC()}
	if text != "" {
		m.Content = TextContent{Text: text}
	}
	return m
}

// Text returns the concatenated plain text of the message content.
func (m Message) Text() string {
	switch c := m.Content.(type) {
	case TextContent:
		return c.Text
	case MultimodalContent:
		var b strings.Builder
		for _, p := range c.Parts {
			if tp, ok := p.(TextPart); ok {
				b.WriteString(tp.Text)
			}
		}
		return b.String()
	default:
		return ""
	}
}

func (m Message) Clone() Message {
	out := m
	if c, ok := m.Content.(MultimodalContent); ok {
		out.Content = MultimodalContent{Parts: append([]ContentPart(nil), c.Parts...)}
	}
	if m.ToolCalls != nil {
		out.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	}
	return out
}

type ToolType string

const (
	ToolTypeFunction ToolType = "function"
)

type Tool struct {
	Type     ToolType
	Function ToolFunction
}

type ToolFunction struct {
	Name        string
	Description string

	// Parameters is typically a JSON Schema object.
	Parameters json.RawMessage
}

// ToolCall is a tool invocation emitted by a model.
type ToolCall struct {
	ID       string
	Type     ToolType
	Function FunctionCall
}

type FunctionCall struct {
	Name string

	// Arguments is a string-encoded JSON payload. Providers may stream it
	// in fragments that are not individually valid JSON.
	Arguments string
}

// Parameters are optional generation controls. Nil means "use the backend
// default"; zero values are never sent as sentinels.
type Parameters struct {
	Temperature      *float64
	TopP             *float64
	TopK             *int
	MaxTokens        *int
	StopSequences    []string
	FrequencyPenalty *float64
	PresencePenalty  *float64
}

func (p Parameters) Clone() Parameters {
	out := p
	clonePtr(&out.Temperature)
	clonePtr(&out.TopP)
	clonePtr(&out.TopK)
	clonePtr(&out.MaxTokens)
	clonePtr(&out.FrequencyPenalty)
	clonePtr(&out.PresencePenalty)
	if p.StopSequences != nil {
		out.StopSequences = append([]string(nil), p.StopSequences...)
	}
	return out
}

func clonePtr[T any](p **T) {
	if *p != nil {
		v := **p
		*p = &v
	}
}

// Metadata carries request tracing/tagging data. Extensions is an open
// passthrough mapping that the core never interprets.
type Metadata struct {
	Extensions map[string]any
	RequestID  string
	UserID     string
	CreatedAt  time.Time
}

func NewMetadata() Metadata {
	return Metadata{
		Extensions: map[string]any{},
		RequestID:  uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
	}
}

func (m Metadata) Clone() Metadata {
	out := m
	if m.Extensions != nil {
		out.Extensions = make(map[string]any, len(m.Extensions))
		for k, v := range m.Extensions {
			out.Extensions[k] = v
		}
	}
	return out
}

// Usage is the token accounting for one request.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// NewUsage builds a Usage whose total is always the sum of its parts.
// Providers construct Usage exclusively through this, so the invariant holds
// even when a backend reports an inconsistent total.
func NewUsage(promptTokens, completionTokens int) Usage {
	if promptTokens < 0 {
		promptTokens = 0
	}
	if completionTokens < 0 {
		completionTokens = 0
	}
	return Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// Embedding is one embedding vector, positionally matched to its input text.
type Embedding struct {
	Index  int
	Vector []float32
}

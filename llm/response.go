package llm

// ChatResponse is the contract every chat-capable provider's response
// satisfies. Responses are provider-owned types; callers only ever see this
// interface, so vendor payload shapes never leak.
type ChatResponse interface {
	// Content returns the text of the primary choice.
	Content() string

	// Usage returns token accounting, or nil when the backend omitted it.
	Usage() *Usage

	// FinishReason reports why generation stopped, or nil when unknown.
	FinishReason() *FinishReason

	// Metadata returns response tracing data.
	Metadata() Metadata

	// ToolCalls returns the tool invocations the model elected to make,
	// or nil when it produced plain content.
	ToolCalls() []ToolCall
}

// CompletionResponse is the prompt-based sibling of ChatResponse.
type CompletionResponse interface {
	Text() string
	Usage() *Usage
	FinishReason() *FinishReason
	Metadata() Metadata
}

// GeneratedImage is one image produced by an ImageProvider.
type GeneratedImage struct {
	URL           string
	B64JSON       string
	RevisedPrompt string
}

type ImageResponse interface {
	Images() []GeneratedImage
	Metadata() Metadata
}

type SpeechToTextResponse interface {
	Text() string
	Language() string
	Metadata() Metadata
}

type TextToSpeechResponse interface {
	AudioData() []byte
	Format() string
	Metadata() Metadata
}

// AsMessage converts a chat response into an assistant message suitable for
// appending to a conversation and sending back to the provider.
func AsMessage(resp ChatResponse) Message {
	msg := Assistant(resp.Content())
	if calls := resp.ToolCalls(); len(calls) > 0 {
		msg.ToolCalls = append([]ToolCall(nil), calls...)
		if resp.Content() == "" {
			msg.Content = nil
		}
	}
	return msg
}

package llm

// ChatRequest is a canonical chat request. Requests are plain values: an
// adapter treats them as read-only and never retains one past the call.
type ChatRequest struct {
	Messages   []Message
	Parameters Parameters
	Metadata   Metadata
}

// CompletionRequest is the legacy prompt-based sibling of ChatRequest.
type CompletionRequest struct {
	Prompt     string
	Parameters Parameters
	Metadata   Metadata
}

// ImageRequest asks an ImageProvider to generate images from a prompt.
type ImageRequest struct {
	Prompt         string
	NegativePrompt string
	N              *int
	Size           string
	Quality        string

	// ResponseFormat selects "url" or "b64_json" delivery.
	ResponseFormat string

	Metadata Metadata
}

// SpeechToTextRequest asks a SpeechToTextProvider to transcribe audio.
type SpeechToTextRequest struct {
	Audio    []byte
	Format   string
	Language string
	Metadata Metadata
}

// TextToSpeechRequest asks a TextToSpeechProvider to synthesize speech.
type TextToSpeechRequest struct {
	Text     string
	Voice    string
	Format   string
	Speed    *float64
	Metadata Metadata
}

// RequestOption mutates a ChatRequest under construction.
type RequestOption func(*ChatRequest)

// NewChatRequest builds a request from messages and applies opts. Messages
// are deep-copied so the caller may keep mutating its own slice.
func NewChatRequest(messages []Message, opts ...RequestOption) ChatRequest {
	req := ChatRequest{
		Messages: cloneMessages(messages),
		Metadata: NewMetadata(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&req)
		}
	}
	return req
}

// NewCompletionRequest builds a prompt-based request. Options that set
// message-independent parameters apply through a throwaway ChatRequest.
func NewCompletionRequest(prompt string, opts ...RequestOption) CompletionRequest {
	tmp := NewChatRequest(nil, opts...)
	return CompletionRequest{
		Prompt:     prompt,
		Parameters: tmp.Parameters,
		Metadata:   tmp.Metadata,
	}
}

func (r ChatRequest) Clone() ChatRequest {
	return ChatRequest{
		Messages:   cloneMessages(r.Messages),
		Parameters: r.Parameters.Clone(),
		Metadata:   r.Metadata.Clone(),
	}
}

func WithTemperature(v float64) RequestOption {
	return func(r *ChatRequest) { r.Parameters.Temperature = &v }
}

func WithTopP(v float64) RequestOption {
	return func(r *ChatRequest) { r.Parameters.TopP = &v }
}

func WithTopK(v int) RequestOption {
	return func(r *ChatRequest) { r.Parameters.TopK = &v }
}

func WithMaxTokens(v int) RequestOption {
	return func(r *ChatRequest) { r.Parameters.MaxTokens = &v }
}

func WithStopSequences(stop ...string) RequestOption {
	return func(r *ChatRequest) {
		r.Parameters.StopSequences = append([]string(nil), stop...)
	}
}

func WithFrequencyPenalty(v float64) RequestOption {
	return func(r *ChatRequest) { r.Parameters.FrequencyPenalty = &v }
}

func WithPresencePenalty(v float64) RequestOption {
	return func(r *ChatRequest) { r.Parameters.PresencePenalty = &v }
}

func WithRequestID(id string) RequestOption {
	return func(r *ChatRequest) { r.Metadata.RequestID = id }
}

func WithUserID(id string) RequestOption {
	return func(r *ChatRequest) { r.Metadata.UserID = id }
}

// WithExtension records a provider-specific passthrough value. The core
// never interprets extensions; adapters may.
func WithExtension(key string, value any) RequestOption {
	return func(r *ChatRequest) {
		if r.Metadata.Extensions == nil {
			r.Metadata.Extensions = map[string]any{}
		}
		r.Metadata.Extensions[key] = value
	}
}

func cloneMessages(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	out := make([]Message, len(messages))
	for i := range messages {
		out[i] = messages[i].Clone()
	}
	return out
}

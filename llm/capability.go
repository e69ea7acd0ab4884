package llm

import "context"

// ChatProvider is the minimal capability: one chat round trip. The call
// returns either a complete response or a classified error, never partial
// content.
//
// Implementations are expected to:
//   - treat the request as read-only
//   - return a *ProviderError (or wrap one) for every failure
//   - honor ctx cancellation
//   - be safe for concurrent invocation
type ChatProvider interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// StreamingProvider adds incremental delivery on top of ChatProvider.
//
// The returned Stream is single-pass and pull-based: the next chunk is
// produced only when the caller asks for it. It ends after exactly one
// final chunk, or earlier with a terminal error from Recv.
type StreamingProvider interface {
	ChatProvider
	ChatStream(ctx context.Context, req ChatRequest) (Stream, error)
}

// CompletionProvider serves legacy prompt-based generation. It is a sibling
// of ChatProvider, not a refinement: some backends implement only one.
type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// ToolProvider adds function calling on top of ChatProvider. The response's
// ToolCalls() is populated when the model elects to call a tool instead of,
// or in addition to, producing text.
type ToolProvider interface {
	ChatProvider
	ChatWithTools(ctx context.Context, req ChatRequest, tools []Tool) (ChatResponse, error)
}

// EmbeddingProvider turns texts into vectors. The output has the same
// length and order as the input; an empty input yields an empty output,
// not an error.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) ([]Embedding, error)
}

type ImageProvider interface {
	GenerateImage(ctx context.Context, req ImageRequest) (ImageResponse, error)
}

type SpeechToTextProvider interface {
	Transcribe(ctx context.Context, req SpeechToTextRequest) (SpeechToTextResponse, error)
}

type TextToSpeechProvider interface {
	Synthesize(ctx context.Context, req TextToSpeechRequest) (TextToSpeechResponse, error)
}

// Capability queries. Callers that need an optional capability ask for it
// explicitly and branch on the second return, instead of inspecting fields
// of a concrete provider type.

func AsStreaming(p ChatProvider) (StreamingProvider, bool) {
	s, ok := p.(StreamingProvider)
	return s, ok
}

func AsTools(p ChatProvider) (ToolProvider, bool) {
	t, ok := p.(ToolProvider)
	return t, ok
}

func AsEmbeddings(p any) (EmbeddingProvider, bool) {
	e, ok := p.(EmbeddingProvider)
	return e, ok
}

func AsCompletions(p any) (CompletionProvider, bool) {
	c, ok := p.(CompletionProvider)
	return c, ok
}

// ProviderNamer is an optional interface for discovering which backend a
// provider instance talks to.
type ProviderNamer interface {
	ProviderName() string
}

func NameOf(p any) string {
	if n, ok := p.(ProviderNamer); ok && n.ProviderName() != "" {
		return n.ProviderName()
	}
	return "unknown"
}

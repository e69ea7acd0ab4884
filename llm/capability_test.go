package llm

import (
	"context"
	"testing"
)

type chatOnly struct{}

func (chatOnly) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) { return nil, nil }

type chatAndStream struct {
	chatOnly
}

func (chatAndStream) ChatStream(ctx context.Context, req ChatRequest) (Stream, error) {
	return nil, nil
}

func (chatAndStream) ProviderName() string { return "fake" }

func TestCapabilityDiscovery(t *testing.T) {
	var plain ChatProvider = chatOnly{}
	if _, ok := AsStreaming(plain); ok {
		t.Error("chat-only provider must not report streaming")
	}
	if _, ok := AsTools(plain); ok {
		t.Error("chat-only provider must not report tools")
	}
	if _, ok := AsEmbeddings(plain); ok {
		t.Error("chat-only provider must not report embeddings")
	}

	var rich ChatProvider = chatAndStream{}
	if _, ok := AsStreaming(rich); !ok {
		t.Error("streaming provider not discovered")
	}
}

func TestNameOf(t *testing.T) {
	if got := NameOf(chatAndStream{}); got != "fake" {
		t.Errorf("NameOf() = %q, want %q", got, "fake")
	}
	if got := NameOf(chatOnly{}); got != "unknown" {
		t.Errorf("NameOf() for unnamed provider = %q, want unknown", got)
	}
}

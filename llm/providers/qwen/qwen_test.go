package qwen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eurora-labs/ferrous-llm/llm"
	"github.com/eurora-labs/ferrous-llm/llm/providers/openai_compat"
)

func TestNew_Defaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "qwen-plus", body["model"])

		json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1",
			"choices": []any{map[string]any{
				"message":       map[string]any{"role": "assistant", "content": "ni hao"},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(server.Close)

	p, err := New("test-key", openai_compat.WithBaseURL(server.URL))
	require.NoError(t, err)
	assert.Equal(t, "qwen", p.ProviderName())

	resp, err := p.Chat(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("hi")}))
	require.NoError(t, err)
	assert.Equal(t, "ni hao", resp.Content())
}

func TestEmbedModelOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"data": []any{map[string]any{"index": 0, "embedding": []float64{0.5}}},
		})
	}))
	t.Cleanup(server.Close)

	p, err := New("test-key",
		openai_compat.WithBaseURL(server.URL),
		openai_compat.WithModel("text-embedding-v3"),
	)
	require.NoError(t, err)

	embeddings, err := p.Embed(context.Background(), []string{"hello"})
	require.NoError(t, err)
	require.Len(t, embeddings, 1)
}

func TestCapabilitySurface(t *testing.T) {
	p, err := New("test-key")
	require.NoError(t, err)

	var asChat llm.ChatProvider = p
	if _, ok := llm.AsStreaming(asChat); !ok {
		t.Error("streaming not exposed")
	}
	if _, ok := llm.AsEmbeddings(asChat); !ok {
		t.Error("embeddings not exposed")
	}
	// Legacy completions live on a different DashScope API.
	if _, ok := llm.AsCompletions(asChat); ok {
		t.Error("completions must not be exposed")
	}
}

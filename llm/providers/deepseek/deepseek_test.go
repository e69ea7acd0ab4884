package deepseek

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
		assert.Equal(t, "deepseek-chat", body["model"])

		json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1",
			"choices": []any{map[string]any{
				"message":       map[string]any{"role": "assistant", "content": "hi"},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(server.Close)

	p, err := New("test-key", openai_compat.WithBaseURL(server.URL))
	require.NoError(t, err)
	assert.Equal(t, "deepseek", p.ProviderName())

	resp, err := p.Chat(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("hi")}))
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Content())
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New("")
	var ce *llm.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "api_key", ce.Field)
}

func TestCapabilitySurface(t *testing.T) {
	p, err := New("test-key")
	require.NoError(t, err)

	var asChat llm.ChatProvider = p
	if _, ok := llm.AsStreaming(asChat); !ok {
		t.Error("streaming not exposed")
	}
	if _, ok := llm.AsTools(asChat); !ok {
		t.Error("tools not exposed")
	}
	if _, ok := llm.AsCompletions(asChat); !ok {
		t.Error("completions not exposed")
	}
	// No embeddings endpoint upstream, so the wrapper must not leak one.
	if _, ok := llm.AsEmbeddings(asChat); ok {
		t.Error("embeddings must not be exposed")
	}
}

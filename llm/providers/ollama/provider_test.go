package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eurora-labs/ferrous-llm/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := New("llama3.2",
		WithBaseURL(server.URL),
		WithRetryPolicy(llm.RetryPolicy{MaxRetries: 0}),
	)
	require.NoError(t, err)
	return p
}

func TestChat(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "local daemon takes no credentials")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3.2", body["model"])
		assert.Equal(t, false, body["stream"])
		opts := body["options"].(map[string]any)
		// Max tokens travels as num_predict in the options object.
		assert.Equal(t, float64(64), opts["num_predict"])

		json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama3.2",
			"message":           map[string]any{"role": "assistant", "content": "Hello!"},
			"done":              true,
			"done_reason":       "stop",
			"prompt_eval_count": 11,
			"eval_count":        4,
		})
	}
	p := newTestProvider(t, handler)

	resp, err := p.Chat(context.Background(), llm.NewChatRequest(
		[]llm.Message{llm.User("hi")},
		llm.WithMaxTokens(64),
	))
	require.NoError(t, err)

	assert.Equal(t, "Hello!", resp.Content())
	require.NotNil(t, resp.FinishReason())
	assert.Equal(t, llm.FinishReasonStop, *resp.FinishReason())
	require.NotNil(t, resp.Usage())
	assert.Equal(t, 11, resp.Usage().PromptTokens)
	assert.Equal(t, 15, resp.Usage().TotalTokens)
}

func TestChatWithTools(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotNil(t, body["tools"])

		json.NewEncoder(w).Encode(map[string]any{
			"model": "llama3.2",
			"message": map[string]any{
				"role":    "assistant",
				"content": "",
				"tool_calls": []any{map[string]any{
					"function": map[string]any{
						"name":      "get_weather",
						"arguments": map[string]any{"city": "Paris"},
					},
				}},
			},
			"done":        true,
			"done_reason": "stop",
		})
	}
	p := newTestProvider(t, handler)

	tool, err := llm.NewFunctionTool("get_weather", "weather", map[string]any{"type": "object"})
	require.NoError(t, err)

	resp, err := p.ChatWithTools(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("weather?")}), []llm.Tool{tool})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls(), 1)
	call := resp.ToolCalls()[0]
	assert.NotEmpty(t, call.ID, "the daemon sends no call ids, one must be synthesized")
	assert.Equal(t, "get_weather", call.Function.Name)
	assert.JSONEq(t, `{"city":"Paris"}`, call.Function.Arguments)
	require.NotNil(t, resp.FinishReason())
	assert.Equal(t, llm.FinishReasonToolCalls, *resp.FinishReason())
}

func TestChatStream(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "application/x-ndjson")
		lines := []string{
			`{"model":"llama3.2","message":{"role":"assistant","content":"Hel"},"done":false}`,
			`{"model":"llama3.2","message":{"role":"assistant","content":"lo"},"done":false}`,
			`{"model":"llama3.2","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","prompt_eval_count":8,"eval_count":2}`,
		}
		for _, line := range lines {
			io.WriteString(w, line+"\n")
		}
	}
	p := newTestProvider(t, handler)

	stream, err := p.ChatStream(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("hi")}))
	require.NoError(t, err)

	acc, err := llm.DrainStream(stream)
	require.NoError(t, err)
	assert.Equal(t, "Hello", acc.Text())
	require.NotNil(t, acc.FinishReason())
	assert.Equal(t, llm.FinishReasonStop, *acc.FinishReason())
	require.NotNil(t, acc.Usage())
	assert.Equal(t, 10, acc.Usage().TotalTokens)
}

func TestChatStream_DaemonError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"model":"llama3.2","message":{"role":"assistant","content":"a"},"done":false}`+"\n")
		io.WriteString(w, `{"error":"model runner crashed"}`+"\n")
	}
	p := newTestProvider(t, handler)

	stream, err := p.ChatStream(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("hi")}))
	require.NoError(t, err)

	_, err = llm.DrainStream(stream)
	pe, ok := llm.AsProviderError(err)
	require.True(t, ok, "error = %v", err)
	assert.Equal(t, llm.ErrKindServer, pe.Kind)
	assert.Equal(t, "model runner crashed", pe.Message)
}

func TestComplete(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Once upon a time", body["prompt"])
		assert.Equal(t, false, body["stream"])

		json.NewEncoder(w).Encode(map[string]any{
			"model":             "llama3.2",
			"response":          " there was a daemon",
			"done":              true,
			"done_reason":       "stop",
			"prompt_eval_count": 4,
			"eval_count":        5,
		})
	}
	p := newTestProvider(t, handler)

	resp, err := p.Complete(context.Background(), llm.NewCompletionRequest("Once upon a time"))
	require.NoError(t, err)
	assert.Equal(t, " there was a daemon", resp.Text())
	require.NotNil(t, resp.Usage())
	assert.Equal(t, 9, resp.Usage().TotalTokens)
}

func TestEmbed(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"model":      "llama3.2",
			"embeddings": []any{[]float64{0.1, 0.2}, []float64{0.3, 0.4}},
		})
	}
	p := newTestProvider(t, handler)

	embeddings, err := p.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, 0, embeddings[0].Index)
	assert.Equal(t, []float32{0.1, 0.2}, embeddings[0].Vector)
	assert.Equal(t, 1, embeddings[1].Index)
}

func TestChat_ErrorBody(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"model 'missing' not found"}`)
	})

	_, err := p.Chat(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("hi")}))
	pe, ok := llm.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, llm.ErrKindInvalidRequest, pe.Kind)
	assert.Equal(t, "model 'missing' not found", pe.Message)
}

func TestSplitParts_RejectsImageURLs(t *testing.T) {
	_, _, err := splitParts([]llm.ContentPart{
		llm.ImagePart{Source: llm.URLSource{URL: "https://example.com/cat.png"}},
	})
	pe, ok := llm.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, llm.ErrKindInvalidRequest, pe.Kind)
}

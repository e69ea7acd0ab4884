package openai_compat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eurora-labs/ferrous-llm/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Provider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	all := append([]Option{
		WithBaseURL(server.URL),
		WithModel("test-model"),
		WithRetryPolicy(llm.RetryPolicy{MaxRetries: 0}),
	}, opts...)

	cfg := DefaultConfig("testbackend", "test-key")
	for _, opt := range all {
		opt(&cfg)
	}
	p, err := New(cfg)
	require.NoError(t, err)
	return p, server
}

func chatJSON(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []any{map[string]any{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 99},
	}
}

func TestChat(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])
		msgs := body["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		_, hasStream := body["stream"]
		assert.False(t, hasStream, "non-streaming request must not set stream")

		json.NewEncoder(w).Encode(chatJSON("Hello!"))
	}
	p, _ := newTestProvider(t, handler)

	resp, err := p.Chat(context.Background(), llm.NewChatRequest([]llm.Message{
		llm.System("be nice"),
		llm.User("hi"),
	}))
	require.NoError(t, err)

	assert.Equal(t, "Hello!", resp.Content())
	require.NotNil(t, resp.FinishReason())
	assert.Equal(t, llm.FinishReasonStop, *resp.FinishReason())
	require.NotNil(t, resp.Usage())
	assert.Equal(t, 7, resp.Usage().PromptTokens)
	// The total is recomputed from the parts, not trusted from the wire.
	assert.Equal(t, 10, resp.Usage().TotalTokens)
	assert.Equal(t, "chatcmpl-123", resp.Metadata().RequestID)
	assert.Empty(t, resp.ToolCalls())
}

func TestChat_ModelOverride(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "other-model", body["model"])
		json.NewEncoder(w).Encode(chatJSON("ok"))
	}
	p, _ := newTestProvider(t, handler)

	req := llm.NewChatRequest([]llm.Message{llm.User("hi")}, llm.WithExtension("model", "other-model"))
	_, err := p.Chat(context.Background(), req)
	require.NoError(t, err)
}

func TestChat_EmptyMessages(t *testing.T) {
	var calls atomic.Int32
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := p.Chat(context.Background(), llm.ChatRequest{})
	pe, ok := llm.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, llm.ErrKindInvalidRequest, pe.Kind)
	assert.Equal(t, int32(0), calls.Load(), "invalid request must not reach the network")
}

func TestChatWithTools(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		tools := body["tools"].([]any)
		require.Len(t, tools, 1)
		fn := tools[0].(map[string]any)["function"].(map[string]any)
		assert.Equal(t, "get_weather", fn["name"])

		json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-tool",
			"choices": []any{map[string]any{
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []any{map[string]any{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "get_weather",
							"arguments": `{"city":"Paris"}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
		})
	}
	p, _ := newTestProvider(t, handler)

	tool, err := llm.NewFunctionTool("get_weather", "weather lookup", map[string]any{"type": "object"})
	require.NoError(t, err)

	resp, err := p.ChatWithTools(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("weather in paris?")}), []llm.Tool{tool})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls(), 1)
	call := resp.ToolCalls()[0]
	assert.Equal(t, "call_1", call.ID)
	assert.Equal(t, "get_weather", call.Function.Name)
	assert.JSONEq(t, `{"city":"Paris"}`, call.Function.Arguments)
	require.NotNil(t, resp.FinishReason())
	assert.Equal(t, llm.FinishReasonToolCalls, *resp.FinishReason())
}

func TestChat_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind llm.ErrorKind
		wantMsg  string
	}{
		{"auth", 401, `{"error":{"message":"bad key","type":"invalid_api_key"}}`, llm.ErrKindAuth, "bad key"},
		{"rate limit", 429, `{"error":{"message":"slow down"}}`, llm.ErrKindRateLimited, "slow down"},
		{"invalid", 400, `{"error":{"message":"bad temperature"}}`, llm.ErrKindInvalidRequest, "bad temperature"},
		{"server", 500, `not even json`, llm.ErrKindServer, "unexpected status 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := p.Chat(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("hi")}))
			pe, ok := llm.AsProviderError(err)
			require.True(t, ok, "error = %v", err)
			assert.Equal(t, tt.wantKind, pe.Kind)
			assert.Equal(t, tt.status, pe.Status)
			assert.Equal(t, tt.wantMsg, pe.Message)
			assert.Equal(t, "testbackend", pe.Provider)
		})
	}
}

func TestChat_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(chatJSON("recovered"))
	}
	p, _ := newTestProvider(t, handler, WithRetryPolicy(llm.RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}))

	resp, err := p.Chat(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("hi")}))
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content())
	assert.Equal(t, int32(2), calls.Load())
}

func TestChat_NoRetryOnAuthError(t *testing.T) {
	var calls atomic.Int32
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}, WithRetryPolicy(llm.RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}))

	_, err := p.Chat(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("hi")}))
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestComplete(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/completions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Once upon a time", body["prompt"])

		json.NewEncoder(w).Encode(map[string]any{
			"id": "cmpl-1",
			"choices": []any{map[string]any{
				"text":          " there was a test",
				"finish_reason": "length",
			}},
			"usage": map[string]any{"prompt_tokens": 4, "completion_tokens": 5},
		})
	}
	p, _ := newTestProvider(t, handler)

	resp, err := p.Complete(context.Background(), llm.NewCompletionRequest("Once upon a time"))
	require.NoError(t, err)
	assert.Equal(t, " there was a test", resp.Text())
	require.NotNil(t, resp.FinishReason())
	assert.Equal(t, llm.FinishReasonMaxTokens, *resp.FinishReason())
}

func TestEmbed(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		// Out-of-order response; the adapter must restore input order.
		json.NewEncoder(w).Encode(map[string]any{
			"data": []any{
				map[string]any{"index": 1, "embedding": []float64{0.3, 0.4}},
				map[string]any{"index": 0, "embedding": []float64{0.1, 0.2}},
			},
		})
	}
	p, _ := newTestProvider(t, handler)

	embeddings, err := p.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, 0, embeddings[0].Index)
	assert.Equal(t, []float32{0.1, 0.2}, embeddings[0].Vector)
	assert.Equal(t, 1, embeddings[1].Index)
}

func TestEmbed_EmptyInput(t *testing.T) {
	var calls atomic.Int32
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	embeddings, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, embeddings)
	assert.Equal(t, int32(0), calls.Load())
}

func TestEmbed_CountMismatch(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []any{map[string]any{"index": 0, "embedding": []float64{0.1}}},
		})
	})

	_, err := p.Embed(context.Background(), []string{"a", "b"})
	pe, ok := llm.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, llm.ErrKindServer, pe.Kind)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing key", func(c *Config) { c.APIKey = "" }, "api_key"},
		{"missing model", func(c *Config) { c.Model = "" }, "model"},
		{"bad url", func(c *Config) { c.BaseURL = "not a url" }, "base_url"},
		{"missing url", func(c *Config) { c.BaseURL = "" }, "base_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("x", "key")
			cfg.Model = "m"
			tt.mutate(&cfg)

			_, err := New(cfg)
			var ce *llm.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

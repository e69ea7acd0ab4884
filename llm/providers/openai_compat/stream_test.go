package openai_compat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eurora-labs/ferrous-llm/llm"
)

func sseHandler(t *testing.T, frames ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])
		assert.NotNil(t, body["stream_options"], "usage frame must be requested")

		w.Header().Set("Content-Type", "text/event-stream")
		for _, frame := range frames {
			io.WriteString(w, "data: "+frame+"\n\n")
		}
	}
}

func TestChatStream(t *testing.T) {
	p, _ := newTestProvider(t, sseHandler(t,
		`{"id":"chatcmpl-1","choices":[{"index":0,"delta":{"role":"assistant"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"2+2 "}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"is 4"}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		`{"choices":[],"usage":{"prompt_tokens":9,"completion_tokens":4}}`,
		`[DONE]`,
	))

	stream, err := p.ChatStream(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("2+2?")}))
	require.NoError(t, err)

	acc, err := llm.DrainStream(stream)
	require.NoError(t, err)
	assert.Equal(t, "2+2 is 4", acc.Text())
	require.NotNil(t, acc.FinishReason())
	assert.Equal(t, llm.FinishReasonStop, *acc.FinishReason())
	require.NotNil(t, acc.Usage())
	assert.Equal(t, 9, acc.Usage().PromptTokens)
	assert.Equal(t, 13, acc.Usage().TotalTokens)
}

func TestChatStream_OnlyFinalCarriesUsage(t *testing.T) {
	p, _ := newTestProvider(t, sseHandler(t,
		`{"choices":[{"index":0,"delta":{"content":"hi"}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		`{"choices":[],"usage":{"prompt_tokens":1,"completion_tokens":1}}`,
		`[DONE]`,
	))

	stream, err := p.ChatStream(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("hi")}))
	require.NoError(t, err)
	defer stream.Close()

	finals := 0
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if chunk.IsFinal() {
			finals++
			assert.NotNil(t, chunk.Usage())
			assert.NotNil(t, chunk.FinishReason())
		} else {
			assert.Nil(t, chunk.Usage(), "only the final chunk may carry usage")
			assert.Nil(t, chunk.FinishReason())
		}
	}
	assert.Equal(t, 1, finals)
}

func TestChatStream_ToolCallDeltas(t *testing.T) {
	p, _ := newTestProvider(t, sseHandler(t,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_weather","arguments":""}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"city\":"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Paris\"}"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
		`[DONE]`,
	))

	stream, err := p.ChatStream(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("weather?")}))
	require.NoError(t, err)

	acc, err := llm.DrainStream(stream)
	require.NoError(t, err)

	calls := acc.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "get_weather", calls[0].Function.Name)
	assert.JSONEq(t, `{"city":"Paris"}`, calls[0].Function.Arguments)
	require.NotNil(t, acc.FinishReason())
	assert.Equal(t, llm.FinishReasonToolCalls, *acc.FinishReason())
}

func TestChatStream_SynthesizedFinalWithoutDone(t *testing.T) {
	// Some compatible backends close the connection without [DONE].
	p, _ := newTestProvider(t, sseHandler(t,
		`{"choices":[{"index":0,"delta":{"content":"partial"}}]}`,
	))

	stream, err := p.ChatStream(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("hi")}))
	require.NoError(t, err)

	acc, err := llm.DrainStream(stream)
	require.NoError(t, err)
	assert.Equal(t, "partial", acc.Text())
	assert.Nil(t, acc.FinishReason())
	assert.Nil(t, acc.Usage())
}

func TestChatStream_WireError(t *testing.T) {
	p, _ := newTestProvider(t, sseHandler(t,
		`{"choices":[{"index":0,"delta":{"content":"a"}}]}`,
		`{"error":{"message":"capacity exceeded","code":"overloaded"}}`,
	))

	stream, err := p.ChatStream(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("hi")}))
	require.NoError(t, err)

	_, err = llm.DrainStream(stream)
	pe, ok := llm.AsProviderError(err)
	require.True(t, ok, "error = %v", err)
	assert.Equal(t, llm.ErrKindServer, pe.Kind)
	assert.Equal(t, "capacity exceeded", pe.Message)
	assert.Equal(t, "overloaded", pe.Code)
}

func TestChatStream_EstablishmentError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"bad key"}}`)
	}))
	t.Cleanup(server.Close)

	cfg := DefaultConfig("testbackend", "bad-key")
	cfg.BaseURL = server.URL
	cfg.Model = "test-model"
	cfg.Retry = llm.RetryPolicy{MaxRetries: 0}
	p, err := New(cfg)
	require.NoError(t, err)

	_, err = p.ChatStream(context.Background(), llm.NewChatRequest([]llm.Message{llm.User("hi")}))
	pe, ok := llm.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, llm.ErrKindAuth, pe.Kind)
	assert.Equal(t, "bad key", pe.Message)
}

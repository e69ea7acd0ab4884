package openai_compat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eurora-labs/ferrous-llm/llm"
)

func TestGenerateImage(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a red panda", body["prompt"])
		assert.Equal(t, "1024x1024", body["size"])

		json.NewEncoder(w).Encode(map[string]any{
			"created": 1700000000,
			"data": []any{map[string]any{
				"url":            "https://img.example.com/1.png",
				"revised_prompt": "a fluffy red panda",
			}},
		})
	}
	p, _ := newTestProvider(t, handler)

	resp, err := p.GenerateImage(context.Background(), llm.ImageRequest{
		Prompt: "a red panda",
		Size:   "1024x1024",
	})
	require.NoError(t, err)

	require.Len(t, resp.Images(), 1)
	assert.Equal(t, "https://img.example.com/1.png", resp.Images()[0].URL)
	assert.Equal(t, "a fluffy red panda", resp.Images()[0].RevisedPrompt)
}

func TestGenerateImage_EmptyPrompt(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("must not reach the network")
	})

	_, err := p.GenerateImage(context.Background(), llm.ImageRequest{})
	pe, ok := llm.AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, llm.ErrKindInvalidRequest, pe.Kind)
}

func TestTranscribe(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "test-model", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "audio.wav", header.Filename)

		json.NewEncoder(w).Encode(map[string]any{"text": "hello world", "language": "english"})
	}
	p, _ := newTestProvider(t, handler)

	resp, err := p.Transcribe(context.Background(), llm.SpeechToTextRequest{
		Audio:    []byte{0x52, 0x49, 0x46, 0x46},
		Format:   "wav",
		Language: "en",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", resp.Text())
	assert.Equal(t, "english", resp.Language())
}

func TestSynthesize(t *testing.T) {
	audio := []byte{0xFF, 0xF3, 0x01, 0x02}
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["input"])
		assert.Equal(t, "alloy", body["voice"])

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(audio)
	}
	p, _ := newTestProvider(t, handler)

	resp, err := p.Synthesize(context.Background(), llm.TextToSpeechRequest{
		Text:  "hello",
		Voice: "alloy",
	})
	require.NoError(t, err)
	assert.Equal(t, audio, resp.AudioData())
	assert.Equal(t, "mp3", resp.Format())
}

package openai_compat

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/eurora-labs/ferrous-llm/llm"
)

const (
	transcriptionsPath = "/audio/transcriptions"
	speechPath         = "/audio/speech"
)

// Transcribe uploads audio as multipart form data and returns its text.
func (p *Provider) Transcribe(ctx context.Context, req llm.SpeechToTextRequest) (llm.SpeechToTextResponse, error) {
	if len(req.Audio) == 0 {
		return nil, invalidRequest(p.cfg.Name, "audio must not be empty")
	}

	body, contentType, err := transcriptionForm(p.model(req.Metadata), req)
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: p.cfg.Name,
			Kind:     llm.ErrKindUnknown,
			Message:  "failed to encode audio upload",
			Cause:    err,
		}
	}

	hdr := p.headers("application/json")
	hdr.Set("Content-Type", contentType)

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	raw, err := llm.Retry(ctx, p.cfg.Retry, p.tr.Logger, func(ctx context.Context) ([]byte, error) {
		raw, err := p.tr.DoRaw(ctx, http.MethodPost, transcriptionsPath, hdr, body)
		if err != nil {
			return nil, p.mapError(err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	var wire transcriptionResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &llm.ProviderError{
			Provider: p.cfg.Name,
			Kind:     llm.ErrKindUnknown,
			Message:  "failed to decode transcription response",
			Raw:      raw,
			Cause:    err,
		}
	}
	return &transcriptionResult{
		text:     wire.Text,
		language: wire.Language,
		metadata: llm.Metadata{CreatedAt: time.Now().UTC()},
	}, nil
}

// Synthesize turns text into audio. The response body is the raw audio in
// the requested format.
func (p *Provider) Synthesize(ctx context.Context, req llm.TextToSpeechRequest) (llm.TextToSpeechResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, invalidRequest(p.cfg.Name, "text must not be empty")
	}

	payload := map[string]any{
		"model": p.model(req.Metadata),
		"input": req.Text,
	}
	if req.Voice != "" {
		payload["voice"] = req.Voice
	}
	if req.Format != "" {
		payload["response_format"] = req.Format
	}
	if req.Speed != nil {
		payload["speed"] = *req.Speed
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: p.cfg.Name,
			Kind:     llm.ErrKindUnknown,
			Message:  "failed to encode speech request",
			Cause:    err,
		}
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	audio, err := llm.Retry(ctx, p.cfg.Retry, p.tr.Logger, func(ctx context.Context) ([]byte, error) {
		raw, err := p.tr.DoRaw(ctx, http.MethodPost, speechPath, p.headers(""), body)
		if err != nil {
			return nil, p.mapError(err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	format := req.Format
	if format == "" {
		format = "mp3"
	}
	return &speechResult{
		audio:    audio,
		format:   format,
		metadata: llm.Metadata{CreatedAt: time.Now().UTC()},
	}, nil
}

func transcriptionForm(model string, req llm.SpeechToTextRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	format := req.Format
	if format == "" {
		format = "wav"
	}
	file, err := w.CreateFormFile("file", "audio."+format)
	if err != nil {
		return nil, "", err
	}
	if _, err := file.Write(req.Audio); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("model", model); err != nil {
		return nil, "", err
	}
	if req.Language != "" {
		if err := w.WriteField("language", req.Language); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

type transcriptionResult struct {
	text     string
	language string
	metadata llm.Metadata
}

var _ llm.SpeechToTextResponse = (*transcriptionResult)(nil)

func (r *transcriptionResult) Text() string           { return r.text }
func (r *transcriptionResult) Language() string       { return r.language }
func (r *transcriptionResult) Metadata() llm.Metadata { return r.metadata }

type speechResult struct {
	audio    []byte
	format   string
	metadata llm.Metadata
}

var _ llm.TextToSpeechResponse = (*speechResult)(nil)

func (r *speechResult) AudioData() []byte      { return r.audio }
func (r *speechResult) Format() string         { return r.format }
func (r *speechResult) Metadata() llm.Metadata { return r.metadata }

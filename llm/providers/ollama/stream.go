package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/eurora-labs/ferrous-llm/llm"
)

// ChatStream starts a streaming chat. The daemon emits one JSON object per
// line; the line with done set carries the reason and token counts and maps
// to the final chunk.
func (p *Provider) ChatStream(ctx context.Context, req llm.ChatRequest) (llm.Stream, error) {
	if len(req.Messages) == 0 {
		return nil, invalidRequest("messages must not be empty")
	}
	payload, err := p.buildChatPayload(req, nil, true)
	if err != nil {
		return nil, err
	}

	cancel := func() {}
	if p.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
	}

	resp, err := llm.Retry(ctx, p.cfg.Retry, p.tr.Logger, func(ctx context.Context) (*http.Response, error) {
		resp, err := p.tr.DoStream(ctx, http.MethodPost, chatPath, p.headers(), payload)
		if err != nil {
			return nil, p.mapError(err)
		}
		return resp, nil
	})
	if err != nil {
		cancel()
		return nil, err
	}

	source := llm.SourceWithCancel(newLineSource(resp.Body), cancel)
	dec := &lineDecoder{}
	return llm.NewNormalizedStream(source, dec.decode, p.tr.Logger), nil
}

// lineSource yields newline-delimited JSON objects as frames.
type lineSource struct {
	rc io.ReadCloser
	r  *bufio.Reader
}

func newLineSource(rc io.ReadCloser) *lineSource {
	return &lineSource{rc: rc, r: bufio.NewReaderSize(rc, 64*1024)}
}

func (s *lineSource) Next() ([]byte, error) {
	for {
		line, err := s.r.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			return line, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (s *lineSource) Close() error { return s.rc.Close() }

type lineDecoder struct {
	toolIndex int
}

func (d *lineDecoder) decode(frame []byte) ([]llm.StreamChunk, error) {
	var reply chatReply
	if err := json.Unmarshal(frame, &reply); err != nil {
		return nil, &llm.ProviderError{
			Provider: "ollama",
			Kind:     llm.ErrKindServer,
			Message:  "malformed stream line",
			Raw:      frame,
			Cause:    err,
		}
	}
	if reply.Error != "" {
		return nil, &llm.ProviderError{
			Provider: "ollama",
			Kind:     llm.ErrKindServer,
			Message:  reply.Error,
			Raw:      frame,
		}
	}

	var out []llm.StreamChunk
	if reply.Message.Content != "" {
		out = append(out, llm.ContentChunk(reply.Message.Content))
	}
	sawToolCalls := false
	for _, call := range reply.Message.ToolCalls {
		sawToolCalls = true
		out = append(out, llm.ToolCallChunk(llm.ToolCallDelta{
			Index:          d.toolIndex,
			ID:             fmt.Sprintf("call_%d", d.toolIndex),
			Name:           call.Function.Name,
			ArgumentsDelta: string(call.Function.Arguments),
		}))
		d.toolIndex++
	}

	if reply.Done {
		out = append(out, llm.FinalChunk(
			mapDoneReason(reply.DoneReason, sawToolCalls),
			mapCounts(reply.PromptEvalCount, reply.EvalCount),
		))
	}
	return out, nil
}

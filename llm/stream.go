package llm

import (
	"errors"
	"io"
	"strings"
)

// Stream is a single-pass, pull-based sequence of chunks from one
// generation. Recv suspends on the underlying transport read until the next
// chunk is available, so a slow consumer naturally backpressures the
// backend; nothing is buffered ahead of the caller.
//
// Recv returns io.EOF after the final chunk has been delivered. A
// mid-stream failure surfaces as a terminal error, after which no further
// chunks are produced. Close releases the transport resource; callers that
// abandon a stream early must call it (ceasing to pull IS cancellation).
type Stream interface {
	Recv() (StreamChunk, error)
	Close() error
}

// ErrStreamClosed is returned by Recv after Close, or after a terminal
// error has already been delivered.
var ErrStreamClosed = errors.New("llm: stream closed")

// StreamChunk is one increment of a streaming response. Each chunk carries
// only its delta; accumulation is the caller's concern (see Accumulator).
//
// Exactly one chunk per stream is final, and only the final chunk may carry
// usage and a finish reason. The asymmetry is deliberate: token usage is
// unknown until the backend closes the stream. Construction goes through
// ContentChunk / ToolCallChunk / FinalChunk so non-final chunks cannot
// carry final-only fields.
type StreamChunk struct {
	content      string
	toolCalls    []ToolCallDelta
	final        bool
	usage        *Usage
	finishReason *FinishReason
}

// ToolCallDelta is one fragment of a streamed tool call. Arguments arrive
// in pieces that are not individually valid JSON.
type ToolCallDelta struct {
	Index          int
	ID             string
	Name           string
	ArgumentsDelta string
}

func ContentChunk(delta string) StreamChunk {
	return StreamChunk{content: delta}
}

func ToolCallChunk(delta ToolCallDelta) StreamChunk {
	return StreamChunk{toolCalls: []ToolCallDelta{delta}}
}

func FinalChunk(finishReason *FinishReason, usage *Usage) StreamChunk {
	return StreamChunk{final: true, finishReason: finishReason, usage: usage}
}

// Content returns this chunk's incremental text delta.
func (c StreamChunk) Content() string { return c.content }

// ToolCallDeltas returns this chunk's tool call fragments, if any.
func (c StreamChunk) ToolCallDeltas() []ToolCallDelta { return c.toolCalls }

// IsFinal reports whether this is the stream's terminal chunk.
func (c StreamChunk) IsFinal() bool { return c.final }

// Usage is non-nil only on the final chunk, and only when the backend
// reported token accounting.
func (c StreamChunk) Usage() *Usage { return c.usage }

// FinishReason is non-nil only on the final chunk, and only when the
// backend reported one.
func (c StreamChunk) FinishReason() *FinishReason { return c.finishReason }

// Accumulator rebuilds a complete response from chunks. It is tolerant of
// partial tool call fragments arriving across many chunks.
type Accumulator struct {
	text      strings.Builder
	toolCalls []ToolCall

	finishReason *FinishReason
	usage        *Usage
}

func (a *Accumulator) Apply(chunk StreamChunk) {
	a.text.WriteString(chunk.Content())
	for _, d := range chunk.ToolCallDeltas() {
		for len(a.toolCalls) <= d.Index {
			a.toolCalls = append(a.toolCalls, ToolCall{Type: ToolTypeFunction})
		}
		tc := &a.toolCalls[d.Index]
		if d.ID != "" {
			tc.ID = d.ID
		}
		if d.Name != "" {
			tc.Function.Name = d.Name
		}
		tc.Function.Arguments += d.ArgumentsDelta
	}
	if chunk.IsFinal() {
		a.finishReason = chunk.FinishReason()
		a.usage = chunk.Usage()
	}
}

// Text returns the concatenated content so far.
func (a *Accumulator) Text() string { return a.text.String() }

// ToolCalls returns the assembled tool calls so far.
func (a *Accumulator) ToolCalls() []ToolCall {
	if len(a.toolCalls) == 0 {
		return nil
	}
	return append([]ToolCall(nil), a.toolCalls...)
}

func (a *Accumulator) FinishReason() *FinishReason { return a.finishReason }
func (a *Accumulator) Usage() *Usage               { return a.usage }

// Message returns the assembled assistant message.
func (a *Accumulator) Message() Message {
	if calls := a.ToolCalls(); calls != nil {
		return AssistantWithTools(a.Text(), calls...)
	}
	return Assistant(a.Text())
}

// DrainStream consumes a stream to completion and returns the accumulated
// state. The stream is closed on every path.
func DrainStream(stream Stream) (*Accumulator, error) {
	defer stream.Close()

	var acc Accumulator
	for {
		chunk, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return &acc, nil
			}
			return nil, err
		}
		acc.Apply(chunk)
	}
}

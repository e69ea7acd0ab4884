package llm

import (
	"errors"
	"io"
	"log/slog"
)

// FrameSource is a backend's native incremental transport, reduced to its
// essentials: one raw frame per Next call (an SSE event's data, one NDJSON
// line, one RPC message), io.EOF at normal end, and a Close that releases
// the connection.
type FrameSource interface {
	Next() ([]byte, error)
	Close() error
}

// DecodeFrameFunc is supplied by the adapter and turns one raw frame into
// zero or more chunks. Decoders own the cumulative-to-delta conversion for
// backends that send running text, and may keep state across frames (e.g.
// holding a finish reason until the backend's terminator arrives). A
// returned error must already be classified.
type DecodeFrameFunc func(frame []byte) ([]StreamChunk, error)

// NewNormalizedStream presents a FrameSource as a Stream with uniform chunk
// semantics, regardless of the transport shape behind it. It enforces:
//
//   - exactly one final chunk: anything decoded after it is discarded and
//     logged as a protocol anomaly (some backends send trailing keep-alive
//     frames after completion)
//   - no accumulation: chunks pass through as the deltas the decoder built
//   - pull-based backpressure: the source is read only when Recv is called
//
// The source is closed on every exit path: final chunk, terminal error, and
// early Close by the caller. If the source ends before a final chunk was
// seen, a bare final chunk is synthesized; some backends close the
// connection without a terminator frame.
func NewNormalizedStream(source FrameSource, decode DecodeFrameFunc, logger *slog.Logger) Stream {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &normalizedStream{source: source, decode: decode, logger: logger}
}

type normalizedStream struct {
	source FrameSource
	decode DecodeFrameFunc
	logger *slog.Logger

	pending   []StreamChunk
	finalSent bool
	closed    bool
}

func (s *normalizedStream) Recv() (StreamChunk, error) {
	for {
		if len(s.pending) > 0 {
			chunk := s.pending[0]
			s.pending = s.pending[1:]
			if s.finalSent {
				s.logger.Debug("llm stream: chunk after final discarded", "content_len", len(chunk.Content()))
				continue
			}
			if chunk.IsFinal() {
				s.finalSent = true
				s.close()
			}
			return chunk, nil
		}

		if s.finalSent {
			return StreamChunk{}, io.EOF
		}
		if s.closed {
			return StreamChunk{}, ErrStreamClosed
		}

		frame, err := s.source.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.finalSent = true
				s.close()
				return FinalChunk(nil, nil), nil
			}
			s.close()
			return StreamChunk{}, s.terminal(err)
		}

		chunks, err := s.decode(frame)
		if err != nil {
			s.close()
			return StreamChunk{}, s.terminal(err)
		}
		s.pending = chunks
	}
}

func (s *normalizedStream) Close() error {
	return s.close()
}

func (s *normalizedStream) close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.source.Close()
}

// terminal wraps an unclassified failure so callers always branch on a
// kind. Classified errors pass through untouched.
func (s *normalizedStream) terminal(err error) error {
	if _, ok := AsProviderError(err); ok {
		return err
	}
	return &ProviderError{Kind: Classify(err), Message: err.Error(), Cause: err}
}

// SourceWithCancel ties a cancel function (typically a per-call deadline's)
// to the source's Close, so the deadline is released on every stream exit
// path along with the transport handle.
func SourceWithCancel(src FrameSource, cancel func()) FrameSource {
	return &cancelSource{FrameSource: src, cancel: cancel}
}

type cancelSource struct {
	FrameSource
	cancel func()
}

func (s *cancelSource) Close() error {
	err := s.FrameSource.Close()
	if s.cancel != nil {
		s.cancel()
	}
	return err
}

// Package sse decodes server-sent-event streams into raw data frames.
package sse

import (
	"bufio"
	"bytes"
	"io"
)

// Source reads one SSE event per Next call and yields its concatenated
// data payload. It satisfies the frame-source shape the streaming
// normalizer consumes: io.EOF at stream end, Close releasing the body.
type Source struct {
	rc io.ReadCloser
	r  *bufio.Reader
}

func NewSource(rc io.ReadCloser) *Source {
	return &Source{rc: rc, r: bufio.NewReaderSize(rc, 64*1024)}
}

// Next returns the next event's data payload, with multiple `data:` lines
// joined by `\n` per the SSE spec. Comment lines and non-data fields are
// skipped; event names are not surfaced since every backend we speak to
// repeats the type inside the JSON payload.
func (s *Source) Next() ([]byte, error) {
	var dataLines [][]byte
	for {
		line, err := s.r.ReadBytes('\n')
		if err != nil {
			if len(line) > 0 {
				line = bytes.TrimRight(line, "\r\n")
				if len(line) > 0 {
					dataLines = appendDataLine(dataLines, line)
				}
			}
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			if len(dataLines) == 0 {
				continue
			}
			return bytes.Join(dataLines, []byte("\n")), nil
		}

		// Comment line.
		if line[0] == ':' {
			continue
		}
		dataLines = appendDataLine(dataLines, line)
	}
}

func (s *Source) Close() error {
	return s.rc.Close()
}

func appendDataLine(dst [][]byte, line []byte) [][]byte {
	if !bytes.HasPrefix(line, []byte("data:")) {
		return dst
	}
	val := line[len("data:"):]
	if len(val) > 0 && val[0] == ' ' {
		val = val[1:]
	}
	return append(dst, append([]byte(nil), val...))
}

package ollama

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eurora-labs/ferrous-llm/llm"
	"github.com/eurora-labs/ferrous-llm/llm/internal/transport"
)

func (p *Provider) mapError(err error) error {
	if err == nil {
		return nil
	}
	if pe, ok := llm.AsProviderError(err); ok {
		if pe.Provider == "" {
			pe.Provider = "ollama"
		}
		return pe
	}

	var se *transport.StatusError
	if errors.As(err, &se) {
		pe := &llm.ProviderError{
			Provider:   "ollama",
			Kind:       llm.ClassifyStatus(se.StatusCode),
			Status:     se.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d", se.StatusCode),
			RetryAfter: se.RetryAfter,
			Raw:        se.Body,
			Cause:      se,
		}
		var body errorReply
		if json.Unmarshal(se.Body, &body) == nil && body.Error != "" {
			pe.Message = body.Error
		}
		return pe
	}

	return &llm.ProviderError{
		Provider: "ollama",
		Kind:     llm.Classify(err),
		Message:  err.Error(),
		Cause:    err,
	}
}

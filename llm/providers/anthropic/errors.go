package anthropic

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
			pe.Provider = "anthropic"
		}
		return pe
	}

	var se *transport.StatusError
	if errors.As(err, &se) {
		pe := &llm.ProviderError{
			Provider:   "anthropic",
			Kind:       llm.ClassifyStatus(se.StatusCode),
			Status:     se.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d", se.StatusCode),
			RetryAfter: se.RetryAfter,
			Raw:        se.Body,
			Cause:      se,
		}
		// The Messages API reports overload as 529.
		if se.StatusCode == 529 {
			pe.Kind = llm.ErrKindRateLimited
		}
		var env errorEnvelope
		if json.Unmarshal(se.Body, &env) == nil && env.Error != nil {
			if env.Error.Message != "" {
				pe.Message = env.Error.Message
			}
			pe.Code = env.Error.Type
		}
		return pe
	}

	return &llm.ProviderError{
		Provider: "anthropic",
		Kind:     llm.Classify(err),
		Message:  err.Error(),
		Cause:    err,
	}
}

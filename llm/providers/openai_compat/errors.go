package openai_compat

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eurora-labs/ferrous-llm/llm"
	"github.com/eurora-labs/ferrous-llm/llm/internal/transport"
)

// mapError converts transport and context failures into *llm.ProviderError
// carrying this provider's name. Already-classified errors pass through.
func (p *Provider) mapError(err error) error {
	if err == nil {
		return nil
	}
	if pe, ok := llm.AsProviderError(err); ok {
		if pe.Provider == "" {
			pe.Provider = p.cfg.Name
		}
		return pe
	}

	var se *transport.StatusError
	if errors.As(err, &se) {
		return p.mapStatusError(se)
	}

	return &llm.ProviderError{
		Provider: p.cfg.Name,
		Kind:     llm.Classify(err),
		Message:  err.Error(),
		Cause:    err,
	}
}

func (p *Provider) mapStatusError(se *transport.StatusError) *llm.ProviderError {
	pe := &llm.ProviderError{
		Provider:   p.cfg.Name,
		Kind:       llm.ClassifyStatus(se.StatusCode),
		Status:     se.StatusCode,
		Message:    fmt.Sprintf("unexpected status %d", se.StatusCode),
		RetryAfter: se.RetryAfter,
		Raw:        se.Body,
		Cause:      se,
	}

	var env errorEnvelope
	if json.Unmarshal(se.Body, &env) == nil && env.Error != nil {
		if env.Error.Message != "" {
			pe.Message = env.Error.Message
		}
		pe.Code = codeString(env.Error.Code)
		if pe.Code == "" {
			pe.Code = env.Error.Type
		}
	}
	return pe
}

// codeString flattens the error code field, which some servers emit as a
// string and others as a number.
func codeString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		return fmt.Sprintf("%.0f", c)
	default:
		return ""
	}
}

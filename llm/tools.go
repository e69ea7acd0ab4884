package llm

import (
	"encoding/json"
	"fmt"
)

// NewFunctionTool builds a function tool from a name, description and a
// JSON-schema-shaped parameters value.
func NewFunctionTool(name, description string, parameters any) (Tool, error) {
	if name == "" {
		return Tool{}, fmt.Errorf("llm: function name required")
	}

	fn := ToolFunction{Name: name, Description: description}
	if parameters != nil {
		b, err := json.Marshal(parameters)
		if err != nil {
			return Tool{}, fmt.Errorf("llm: marshal tool parameters: %w", err)
		}
		fn.Parameters = b
	}

	return Tool{Type: ToolTypeFunction, Function: fn}, nil
}

// MustJSON converts a value to a JSON RawMessage, panicking on failure.
// Intended for static schema literals.
func MustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(b)
}

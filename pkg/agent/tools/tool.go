// Package tools defines the tool contract for the Surf agent: the Tool
// interface, the structured result envelope every invocation returns, the
// name-keyed registry, and the two control tools (done, human_input) that
// carry loop-level meaning for the executor.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is a capability the tool-bound model can invoke. Execute is the sole
// extension point to browser-side effects.
//
// Execute should return a structured *Result even for domain failures (bad
// selector, navigation timeout) so the turn can always be completed with a
// tool-result message. Returning a non-nil error is reserved for unexpected
// failures; the executor converts those into failed Results rather than
// aborting the turn.
type Tool interface {
	// Name returns the unique identifier for this tool (e.g. "navigate").
	Name() string

	// Description returns a model-facing description of what the tool does.
	Description() string

	// Schema returns the JSON schema of the tool's arguments object.
	Schema() map[string]interface{}

	// Execute runs the tool with JSON-encoded arguments.
	Execute(ctx context.Context, args json.RawMessage) (*Result, error)
}

// Result is the structured envelope every tool invocation produces. It is
// serialized as text into the tool-result message; the core never inspects
// tool internals beyond this envelope.
type Result struct {
	OK                 bool   `json:"ok"`
	Output             string `json:"output,omitempty"`
	Error              string `json:"error,omitempty"`
	RequiresHumanInput bool   `json:"requires_human_input,omitempty"`
}

// Ok builds a successful result with the given output.
func Ok(output string) *Result {
	return &Result{OK: true, Output: output}
}

// Fail builds a failed result with the given error text.
func Fail(errText string) *Result {
	return &Result{OK: false, Error: errText}
}

// Text serializes the result for the tool-result message.
func (r *Result) Text() string {
	data, err := json.Marshal(r)
	if err != nil {
		// Result contains only strings and bools; marshal cannot fail in
		// practice, but keep the turn alive if it somehow does.
		return `{"ok":false,"error":"unserializable tool result"}`
	}
	return string(data)
}

// Call is one tool invocation requested by the model. The ID correlates the
// call with the tool-result message that answers it.
type Call struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ObjectSchema builds a JSON schema for an arguments object with the given
// properties and required field names.
func ObjectSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

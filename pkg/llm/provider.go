// Package llm provides the model-client abstraction the agent core depends
// on: a tool-bound streaming invocation and a structured-output invocation.
//
// Providers handle API communication only. The agent layer converts stream
// chunks into events, manages conversation state, and enforces the loop
// contract, which keeps providers reusable and independently testable.
package llm

import (
	"context"
	"encoding/json"

	"github.com/entrhq/surf/pkg/types"
)

// ToolCall is a tool invocation emitted by the model. Arguments is the raw
// JSON arguments object.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolDefinition describes a tool to the model: name, description, and the
// JSON schema of its arguments object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// StreamChunk is one increment of a streamed tool-bound completion.
//
//   - Content chunks carry a text delta.
//   - The final chunk has Finished=true and carries the complete tool-call
//     list for the turn (possibly empty).
//   - Error chunks have Err set; the channel is closed after them.
type StreamChunk struct {
	Content   string
	ToolCalls []ToolCall
	Finished  bool
	Err       error
}

// IsError returns true if this chunk carries a stream error.
func (c *StreamChunk) IsError() bool {
	return c.Err != nil
}

// Provider is the model client used by the planner and executor.
type Provider interface {
	// StreamToolCompletion sends the conversation with tool definitions and
	// streams back the response. The returned channel is closed when the
	// stream completes or fails; the context must be honored mid-stream.
	StreamToolCompletion(ctx context.Context, messages []*types.Message, tools []ToolDefinition) (<-chan *StreamChunk, error)

	// CompleteStructured sends the conversation and returns a JSON document
	// validated by the service against the given schema. The caller still
	// performs its own semantic validation.
	CompleteStructured(ctx context.Context, messages []*types.Message, schemaName string, schema map[string]interface{}) (json.RawMessage, error)

	// Model returns the model name being used.
	Model() string
}

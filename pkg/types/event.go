package types

// AgentEventType defines the type of event published on a task's channel.
type AgentEventType string

const (
	EventTypeTaskStart          AgentEventType = "task_start"           // EventTypeTaskStart indicates a task has begun executing.
	EventTypeThinking           AgentEventType = "thinking"             // EventTypeThinking carries accumulated streamed model text under a stable MessageID.
	EventTypeAssistant          AgentEventType = "assistant"            // EventTypeAssistant carries a final assistant-facing message (e.g. the task answer).
	EventTypeToolCall           AgentEventType = "tool_call"            // EventTypeToolCall indicates a tool is about to be invoked.
	EventTypeToolResult         AgentEventType = "tool_result"          // EventTypeToolResult carries the structured result of a tool invocation.
	EventTypeError              AgentEventType = "error"                // EventTypeError indicates an error surfaced during execution.
	EventTypeHumanInputRequest  AgentEventType = "human_input_request"  // EventTypeHumanInputRequest asks an external surface for a manual step.
	EventTypeHumanInputResponse AgentEventType = "human_input_response" // EventTypeHumanInputResponse transports the human's decision back to the task.
	EventTypeTaskDone           AgentEventType = "task_done"            // EventTypeTaskDone indicates the task completed with a final answer.
	EventTypeTaskFailed         AgentEventType = "task_failed"          // EventTypeTaskFailed indicates the task terminated without completing.
	EventTypeTaskCancelled      AgentEventType = "task_cancelled"       // EventTypeTaskCancelled indicates cancellation or a human abort ended the task.
)

// AgentEvent is the closed tagged union flowing through a task's event
// channel. The Type field is the discriminant; the remaining fields are
// populated per kind by the constructors below.
type AgentEvent struct {
	// Type indicates the kind of event.
	Type AgentEventType

	// MessageID gives streamed thinking events a stable identity so
	// subscribers render one live-updating message rather than many.
	MessageID string

	// Content holds text content for content-type events.
	Content string

	// ToolName is the name of the tool involved (tool events only).
	ToolName string

	// ToolInput is the decoded tool arguments (tool call events only).
	ToolInput map[string]interface{}

	// ToolOutput is the serialized tool result (tool result events only).
	ToolOutput string

	// Error contains error information for error and task-failed events.
	Error error

	// HumanInputRequest is set on human-input request events.
	HumanInputRequest *HumanInputRequest

	// HumanInputResponse is set on human-input response events.
	HumanInputResponse *HumanInputResponse
}

// NewTaskStartEvent creates a task start event carrying the task description.
func NewTaskStartEvent(task string) *AgentEvent {
	return &AgentEvent{Type: EventTypeTaskStart, Content: task}
}

// NewThinkingEvent creates a thinking event with the accumulated content so far.
func NewThinkingEvent(messageID, content string) *AgentEvent {
	return &AgentEvent{Type: EventTypeThinking, MessageID: messageID, Content: content}
}

// NewAssistantEvent creates an assistant message event.
func NewAssistantEvent(content string) *AgentEvent {
	return &AgentEvent{Type: EventTypeAssistant, Content: content}
}

// NewToolCallEvent creates a tool call event.
func NewToolCallEvent(toolName string, input map[string]interface{}) *AgentEvent {
	return &AgentEvent{Type: EventTypeToolCall, ToolName: toolName, ToolInput: input}
}

// NewToolResultEvent creates a tool result event.
func NewToolResultEvent(toolName, output string) *AgentEvent {
	return &AgentEvent{Type: EventTypeToolResult, ToolName: toolName, ToolOutput: output}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(err error) *AgentEvent {
	return &AgentEvent{Type: EventTypeError, Error: err}
}

// NewHumanInputRequestEvent creates a human input request event.
func NewHumanInputRequestEvent(req *HumanInputRequest) *AgentEvent {
	return &AgentEvent{Type: EventTypeHumanInputRequest, HumanInputRequest: req}
}

// NewHumanInputResponseEvent creates a human input response event.
func NewHumanInputResponseEvent(resp *HumanInputResponse) *AgentEvent {
	return &AgentEvent{Type: EventTypeHumanInputResponse, HumanInputResponse: resp}
}

// NewTaskDoneEvent creates a task done event carrying the final answer.
func NewTaskDoneEvent(finalAnswer string) *AgentEvent {
	return &AgentEvent{Type: EventTypeTaskDone, Content: finalAnswer}
}

// NewTaskFailedEvent creates a task failed event.
func NewTaskFailedEvent(err error) *AgentEvent {
	return &AgentEvent{Type: EventTypeTaskFailed, Error: err}
}

// NewTaskCancelledEvent creates a task cancelled event.
func NewTaskCancelledEvent(reason string) *AgentEvent {
	return &AgentEvent{Type: EventTypeTaskCancelled, Content: reason}
}

// IsHumanInputEvent returns true if this is a human-input request or response event.
func (e *AgentEvent) IsHumanInputEvent() bool {
	return e.Type == EventTypeHumanInputRequest || e.Type == EventTypeHumanInputResponse
}

// IsTerminalEvent returns true if this event ends the task from a subscriber's
// point of view.
func (e *AgentEvent) IsTerminalEvent() bool {
	return e.Type == EventTypeTaskDone ||
		e.Type == EventTypeTaskFailed ||
		e.Type == EventTypeTaskCancelled
}

// IsErrorEvent returns true if this is an error event.
func (e *AgentEvent) IsErrorEvent() bool {
	return e.Type == EventTypeError
}

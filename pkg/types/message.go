// Package types defines the shared data model for the Surf agent:
// conversation messages, agent events, and the human-input handshake
// payloads exchanged over the per-task event channel.
package types

import "time"

// MessageRole identifies who produced a message in the conversation.
type MessageRole string

const (
	RoleSystem MessageRole = "system" // RoleSystem is the system prompt role.
	RoleHuman  MessageRole = "human"  // RoleHuman is user-authored content (including tool-result framing from the loop).
	RoleAI     MessageRole = "ai"     // RoleAI is model-authored content.
	RoleTool   MessageRole = "tool"   // RoleTool is a tool-result message answering a specific tool call.
)

// MessageType classifies message content beyond its role. Browser-state and
// screenshot messages are pruned and refreshed between steps to bound prompt
// size, so they carry their own type tag.
type MessageType string

const (
	MessageTypeNormal       MessageType = "normal"
	MessageTypeBrowserState MessageType = "browser_state"
	MessageTypeScreenshot   MessageType = "screenshot"
)

// ToolCallRef records one tool call issued by an AI message. The ID correlates
// the call with the tool-result message that answers it.
type ToolCallRef struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry in the ordered conversation history sent to the model.
//
// Ordering invariant: a RoleTool message must appear immediately after the
// RoleAI message whose tool call it answers (matched by ToolCallID), and every
// tool call issued in one model turn must be answered before any further
// non-tool message is appended.
type Message struct {
	Role       MessageRole
	Type       MessageType
	Content    string
	ToolCallID string        // set on RoleTool messages
	ToolCalls  []ToolCallRef // set on RoleAI messages that issued tool calls
	Timestamp  time.Time
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Type: MessageTypeNormal, Content: content, Timestamp: time.Now()}
}

// NewHumanMessage creates a human message.
func NewHumanMessage(content string) *Message {
	return &Message{Role: RoleHuman, Type: MessageTypeNormal, Content: content, Timestamp: time.Now()}
}

// NewAIMessage creates an AI message with no tool calls.
func NewAIMessage(content string) *Message {
	return &Message{Role: RoleAI, Type: MessageTypeNormal, Content: content, Timestamp: time.Now()}
}

// NewAIMessageWithToolCalls creates an AI message that issued the given tool calls.
func NewAIMessageWithToolCalls(content string, calls []ToolCallRef) *Message {
	return &Message{Role: RoleAI, Type: MessageTypeNormal, Content: content, ToolCalls: calls, Timestamp: time.Now()}
}

// NewToolMessage creates a tool-result message answering the given call ID.
func NewToolMessage(content, toolCallID string) *Message {
	return &Message{Role: RoleTool, Type: MessageTypeNormal, Content: content, ToolCallID: toolCallID, Timestamp: time.Now()}
}

// NewBrowserStateMessage creates a human message carrying a browser-state snapshot.
func NewBrowserStateMessage(content string) *Message {
	return &Message{Role: RoleHuman, Type: MessageTypeBrowserState, Content: content, Timestamp: time.Now()}
}

// NewScreenshotMessage creates a human message carrying a screenshot reference.
func NewScreenshotMessage(content string) *Message {
	return &Message{Role: RoleHuman, Type: MessageTypeScreenshot, Content: content, Timestamp: time.Now()}
}

// ReasoningEntry is one planning step's serialized reasoning, kept as
// short-term memory for subsequent planning prompts.
type ReasoningEntry struct {
	Observation    string
	Reasoning      string
	Challenges     string
	TaskComplete   bool
	ActionsPlanned []string
}

// Package history provides the ordered conversation log shared by the
// planner and executor, with ordering-safe mutation operations.
//
// The model API contract requires that a tool-result message appear
// immediately after the AI message whose tool call it answers, and that every
// tool call issued in a turn is answered before any further non-tool message.
// Side-effect additions (browser-state snapshots, screenshots produced while
// tool calls are still being processed) therefore go through a pending queue
// and are flushed atomically at a safe point instead of being appended
// directly.
package history

import (
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/surf/pkg/types"
	"github.com/pkoukk/tiktoken-go"
)

// Manager owns the message history for one task.
type Manager struct {
	mu       sync.Mutex
	messages []*types.Message
	queue    []*types.Message

	encoder *tiktoken.Tiktoken
}

// Option configures a Manager.
type Option func(*Manager)

// WithEncoding sets the tiktoken encoding used for token counting. Without
// it the manager falls back to a character-based estimate.
func WithEncoding(name string) Option {
	return func(m *Manager) {
		enc, err := tiktoken.GetEncoding(name)
		if err == nil {
			m.encoder = enc
		}
	}
}

// NewManager creates an empty history manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddSystem appends a system message.
func (m *Manager) AddSystem(content string) {
	m.Add(types.NewSystemMessage(content))
}

// AddHuman appends a human message.
func (m *Manager) AddHuman(content string) {
	m.Add(types.NewHumanMessage(content))
}

// AddAI appends an AI message.
func (m *Manager) AddAI(content string) {
	m.Add(types.NewAIMessage(content))
}

// AddAIWithToolCalls appends an AI message that issued tool calls. The
// corresponding tool results must be appended (AddTool) before any further
// non-tool message.
func (m *Manager) AddAIWithToolCalls(content string, calls []types.ToolCallRef) {
	m.Add(types.NewAIMessageWithToolCalls(content, calls))
}

// AddTool appends a tool-result message answering the given call ID.
func (m *Manager) AddTool(result, toolCallID string) {
	m.Add(types.NewToolMessage(result, toolCallID))
}

// Add appends a raw message to the history.
func (m *Manager) Add(msg *types.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// Queue buffers a message for a later FlushQueue. Used for side-effect
// messages (state snapshots, screenshots) that must not interleave with an
// in-flight tool-call/tool-result batch.
func (m *Manager) Queue(msg *types.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, msg)
}

// QueueBrowserState buffers a browser-state snapshot message.
func (m *Manager) QueueBrowserState(content string) {
	m.Queue(types.NewBrowserStateMessage(content))
}

// QueueScreenshot buffers a screenshot message.
func (m *Manager) QueueScreenshot(content string) {
	m.Queue(types.NewScreenshotMessage(content))
}

// FlushQueue appends all pending messages to the history in the order they
// were queued. Must be called after every batch of tool-call processing and
// after every planning step, before any other party reads the message list.
// Idempotent: flushing an empty queue is a no-op.
func (m *Manager) FlushQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return
	}
	m.messages = append(m.messages, m.queue...)
	m.queue = nil
}

// PendingCount returns the number of queued, unflushed messages.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// RemoveMessagesByType removes all messages of the given type from the
// history and the pending queue. Used to prune stale browser-state and
// screenshot messages before adding fresh ones.
func (m *Manager) RemoveMessagesByType(t types.MessageType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = filterOutType(m.messages, t)
	m.queue = filterOutType(m.queue, t)
}

func filterOutType(msgs []*types.Message, t types.MessageType) []*types.Message {
	kept := msgs[:0]
	for _, msg := range msgs {
		if msg.Type != t {
			kept = append(kept, msg)
		}
	}
	return kept
}

// Messages returns a copy of the flushed history in conversation order.
func (m *Manager) Messages() []*types.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*types.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the number of flushed messages.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// FilteredAsString renders the history as a readable transcript, excluding
// the given message types. Used to build the planner prompt without
// system/screenshot/raw-state noise.
func (m *Manager) FilteredAsString(exclude ...types.MessageType) string {
	excluded := make(map[types.MessageType]bool, len(exclude))
	for _, t := range exclude {
		excluded[t] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	for _, msg := range m.messages {
		if excluded[msg.Type] || msg.Role == types.RoleSystem {
			continue
		}
		fmt.Fprintf(&b, "[%s] %s\n", msg.Role, msg.Content)
		for _, call := range msg.ToolCalls {
			fmt.Fprintf(&b, "[%s] called tool %s(%s)\n", msg.Role, call.Name, call.Arguments)
		}
	}
	return b.String()
}

// TokenCount estimates the token size of the flushed history. With a
// configured encoding it uses tiktoken; otherwise it falls back to a rough
// 4-characters-per-token estimate.
func (m *Manager) TokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, msg := range m.messages {
		if m.encoder != nil {
			total += len(m.encoder.Encode(msg.Content, nil, nil))
		} else {
			total += len(msg.Content) / 4
		}
		total += 4 // per-message framing overhead
	}
	return total
}

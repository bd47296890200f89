// Package execution provides the per-task state container shared by the
// planner and executor: metrics, the abort signal, the reasoning log, and the
// human-input handshake slots.
//
// A Context is created when a task starts and discarded when it ends; it is
// never reused across tasks. Concurrent tasks (one per browser tab) run in
// fully independent Contexts.
package execution

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/surf/pkg/agent/channel"
	"github.com/entrhq/surf/pkg/types"
)

// Context holds the shared, per-task execution state. The loop structure
// guarantees a single writer at a time (exactly one planner or executor step
// is in flight), but accessors are still mutex-guarded because the abort
// signal and human-input response arrive from other goroutines.
type Context struct {
	taskID string

	mu            sync.Mutex
	task          string
	aborted       bool
	metrics       Metrics
	reasoning     []types.ReasoningEntry
	humanRequest  *types.HumanInputRequest
	humanResponse *types.HumanInputResponse

	ch *channel.Channel
}

// NewContext creates a fresh execution context for a task.
func NewContext(taskID, task string, ch *channel.Channel) *Context {
	return &Context{
		taskID: taskID,
		task:   task,
		ch:     ch,
	}
}

// TaskID returns the task/tab identifier this context is keyed by.
func (c *Context) TaskID() string {
	return c.taskID
}

// Task returns the current natural-language task string.
func (c *Context) Task() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.task
}

// SetTask replaces the task string (used when a follow-up refines the task).
func (c *Context) SetTask(task string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.task = task
}

// Channel returns the task's event channel handle.
func (c *Context) Channel() *channel.Channel {
	return c.ch
}

// Abort requests cancellation. Every suspend point in the loop checks
// ShouldAbort and unwinds without further side effects once it returns true.
func (c *Context) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aborted = true
}

// ShouldAbort reports whether cancellation has been requested.
func (c *Context) ShouldAbort() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aborted
}

// Begin stamps the metrics start time. Called once at task start.
func (c *Context) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.StartTime = time.Now()
}

// Finish stamps the metrics end time. Called on every terminal path.
func (c *Context) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metrics.EndTime.IsZero() {
		c.metrics.EndTime = time.Now()
	}
}

// Metrics returns a snapshot of the current metrics.
func (c *Context) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

// IncToolCalls increments the tool call counter.
func (c *Context) IncToolCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.ToolCalls++
}

// IncErrors increments the error counter.
func (c *Context) IncErrors() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.Errors++
}

// IncObservations increments the observation counter (one per successful
// planning step).
func (c *Context) IncObservations() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.Observations++
}

// AppendReasoning records one planning step's reasoning entry. The log is
// append-only and read-only to the executor.
func (c *Context) AppendReasoning(entry types.ReasoningEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reasoning = append(c.reasoning, entry)
}

// LastReasoning returns up to n of the most recent reasoning entries in
// chronological order.
func (c *Context) LastReasoning(n int) []types.ReasoningEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 || len(c.reasoning) == 0 {
		return nil
	}
	start := len(c.reasoning) - n
	if start < 0 {
		start = 0
	}
	out := make([]types.ReasoningEntry, len(c.reasoning)-start)
	copy(out, c.reasoning[start:])
	return out
}

// SetHumanInputRequest records an outstanding human-input request. A second
// request before the first resolves is a caller error.
func (c *Context) SetHumanInputRequest(req *types.HumanInputRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.humanRequest != nil {
		return fmt.Errorf("human input request %s is already outstanding", c.humanRequest.RequestID)
	}
	c.humanRequest = req
	c.humanResponse = nil
	return nil
}

// HumanInputRequest returns the outstanding request, or nil.
func (c *Context) HumanInputRequest() *types.HumanInputRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.humanRequest
}

// RecordHumanInputResponse stores a response if it matches the outstanding
// request. Responses for unknown or stale request IDs are dropped.
func (c *Context) RecordHumanInputResponse(resp *types.HumanInputResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.humanRequest == nil || resp == nil || resp.RequestID != c.humanRequest.RequestID {
		return
	}
	c.humanResponse = resp
}

// TakeHumanInputResponse returns and clears the recorded response, or nil if
// none has arrived yet. Human-input state is single-use.
func (c *Context) TakeHumanInputResponse() *types.HumanInputResponse {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp := c.humanResponse
	if resp != nil {
		c.humanResponse = nil
	}
	return resp
}

// ClearHumanInput drops any outstanding request/response state. Called on
// every handshake exit path.
func (c *Context) ClearHumanInput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.humanRequest = nil
	c.humanResponse = nil
}

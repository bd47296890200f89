package execution

import "time"

// Metrics tracks per-task execution counters. Counters are monotonically
// non-decreasing for the lifetime of a task; a fresh Context starts at zero.
type Metrics struct {
	ToolCalls    uint64
	Errors       uint64
	Observations uint64
	StartTime    time.Time
	EndTime      time.Time
}

// ErrorRate returns errors/toolCalls, or 0 when no tool calls have been made.
func (m Metrics) ErrorRate() float64 {
	if m.ToolCalls == 0 {
		return 0
	}
	return float64(m.Errors) / float64(m.ToolCalls)
}

// Elapsed returns the task duration so far, or the final duration once the
// task has finished.
func (m Metrics) Elapsed() time.Duration {
	if m.StartTime.IsZero() {
		return 0
	}
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

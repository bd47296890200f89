package execution

import (
	"testing"
	"time"

	"github.com/entrhq/surf/pkg/agent/channel"
	"github.com/entrhq/surf/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() *Context {
	return NewContext("task-1", "open example.com", channel.New("task-1"))
}

func TestMetricsCounters(t *testing.T) {
	ectx := newTestContext()
	ectx.Begin()

	ectx.IncToolCalls()
	ectx.IncToolCalls()
	ectx.IncErrors()
	ectx.IncObservations()

	m := ectx.Metrics()
	assert.Equal(t, uint64(2), m.ToolCalls)
	assert.Equal(t, uint64(1), m.Errors)
	assert.Equal(t, uint64(1), m.Observations)
	assert.Equal(t, 0.5, m.ErrorRate())
	assert.False(t, m.StartTime.IsZero())

	ectx.Finish()
	m = ectx.Metrics()
	assert.False(t, m.EndTime.IsZero())
	assert.GreaterOrEqual(t, m.Elapsed(), time.Duration(0))

	// Finish is idempotent: the first end time sticks.
	end := m.EndTime
	ectx.Finish()
	assert.Equal(t, end, ectx.Metrics().EndTime)
}

func TestErrorRateWithoutToolCalls(t *testing.T) {
	assert.Equal(t, 0.0, Metrics{}.ErrorRate())
}

func TestAbortSignal(t *testing.T) {
	ectx := newTestContext()
	assert.False(t, ectx.ShouldAbort())
	ectx.Abort()
	assert.True(t, ectx.ShouldAbort())
}

func TestReasoningLogWindow(t *testing.T) {
	ectx := newTestContext()
	assert.Nil(t, ectx.LastReasoning(5))

	for i := 0; i < 4; i++ {
		ectx.AppendReasoning(types.ReasoningEntry{Observation: string(rune('a' + i))})
	}

	last := ectx.LastReasoning(2)
	require.Len(t, last, 2)
	assert.Equal(t, "c", last[0].Observation)
	assert.Equal(t, "d", last[1].Observation)

	all := ectx.LastReasoning(10)
	assert.Len(t, all, 4)
}

func TestSingleOutstandingHumanInputRequest(t *testing.T) {
	ectx := newTestContext()

	err := ectx.SetHumanInputRequest(&types.HumanInputRequest{RequestID: "req-1", Prompt: "log in"})
	require.NoError(t, err)

	err = ectx.SetHumanInputRequest(&types.HumanInputRequest{RequestID: "req-2", Prompt: "again"})
	assert.Error(t, err)
	assert.Equal(t, "req-1", ectx.HumanInputRequest().RequestID)
}

func TestHumanInputResponseCorrelation(t *testing.T) {
	ectx := newTestContext()
	require.NoError(t, ectx.SetHumanInputRequest(&types.HumanInputRequest{RequestID: "req-1"}))

	// Mismatched request IDs are dropped.
	ectx.RecordHumanInputResponse(&types.HumanInputResponse{RequestID: "other", Action: types.HumanInputDone})
	assert.Nil(t, ectx.TakeHumanInputResponse())

	ectx.RecordHumanInputResponse(&types.HumanInputResponse{RequestID: "req-1", Action: types.HumanInputDone})
	resp := ectx.TakeHumanInputResponse()
	require.NotNil(t, resp)
	assert.True(t, resp.IsDone())

	// Response state is single-use.
	assert.Nil(t, ectx.TakeHumanInputResponse())

	ectx.ClearHumanInput()
	assert.Nil(t, ectx.HumanInputRequest())
	require.NoError(t, ectx.SetHumanInputRequest(&types.HumanInputRequest{RequestID: "req-3"}))
}

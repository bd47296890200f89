package executor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/entrhq/surf/pkg/agent/channel"
	"github.com/entrhq/surf/pkg/agent/execution"
	"github.com/entrhq/surf/pkg/agent/history"
	"github.com/entrhq/surf/pkg/agent/tools"
	"github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/llm"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider replays one scripted chunk sequence per model turn.
type scriptedProvider struct {
	turns [][]*llm.StreamChunk
	calls int
}

func (s *scriptedProvider) StreamToolCompletion(ctx context.Context, messages []*types.Message, defs []llm.ToolDefinition) (<-chan *llm.StreamChunk, error) {
	if s.calls >= len(s.turns) {
		return nil, errors.New("no scripted turn left")
	}
	turn := s.turns[s.calls]
	s.calls++

	out := make(chan *llm.StreamChunk, len(turn))
	for _, chunk := range turn {
		out <- chunk
	}
	close(out)
	return out, nil
}

func (s *scriptedProvider) CompleteStructured(ctx context.Context, messages []*types.Message, schemaName string, schema map[string]interface{}) (json.RawMessage, error) {
	return nil, errors.New("not used in execution")
}

func (s *scriptedProvider) Model() string { return "fake-model" }

// toolTurn builds a turn that streams some text and finishes with tool calls.
func toolTurn(text string, calls ...llm.ToolCall) []*llm.StreamChunk {
	var chunks []*llm.StreamChunk
	if text != "" {
		chunks = append(chunks, &llm.StreamChunk{Content: text})
	}
	return append(chunks, &llm.StreamChunk{Finished: true, ToolCalls: calls})
}

// fakeTool runs a fixed function under a fixed name.
type fakeTool struct {
	name string
	fn   func(ctx context.Context, args json.RawMessage) (*tools.Result, error)
}

func (f *fakeTool) Name() string                   { return f.name }
func (f *fakeTool) Description() string            { return f.name + " test tool" }
func (f *fakeTool) Schema() map[string]interface{} { return tools.ObjectSchema(nil, nil) }
func (f *fakeTool) Execute(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	return f.fn(ctx, args)
}

func okTool(name string) *fakeTool {
	return &fakeTool{name: name, fn: func(context.Context, json.RawMessage) (*tools.Result, error) {
		return tools.Ok(name + " ok"), nil
	}}
}

type fixture struct {
	executor *Executor
	history  *history.Manager
	ectx     *execution.Context
	ch       *channel.Channel
	events   *[]*types.AgentEvent
}

func newFixture(t *testing.T, provider llm.Provider, registered ...tools.Tool) *fixture {
	t.Helper()

	cfg := config.Default()
	log, _ := logging.NewLogger("executor-test")
	t.Cleanup(func() { log.Close() })

	registry := tools.NewRegistry()
	for _, tool := range registered {
		require.NoError(t, registry.Register(tool))
	}

	hist := history.NewManager()
	ch := channel.New("task-1")
	ectx := execution.NewContext("task-1", "test task", ch)
	ectx.Begin()

	var events []*types.AgentEvent
	sub := ch.Subscribe(func(e *types.AgentEvent) { events = append(events, e) })
	t.Cleanup(sub.Unsubscribe)

	state := &fakeState{state: "link \"Home\" [1]", shot: []byte{0xff, 0xd8}}
	return &fixture{
		executor: New(provider, registry, hist, state, cfg, log),
		history:  hist,
		ectx:     ectx,
		ch:       ch,
		events:   &events,
	}
}

type fakeState struct {
	state string
	shot  []byte
}

func (f *fakeState) BrowserStateString(ctx context.Context, simplified bool) (string, error) {
	return f.state, nil
}

func (f *fakeState) Screenshot(ctx context.Context, quality int, withOverlay bool) ([]byte, error) {
	return f.shot, nil
}

func TestRunCompletesOnDoneTool(t *testing.T) {
	provider := &scriptedProvider{turns: [][]*llm.StreamChunk{
		toolTurn("navigating", llm.ToolCall{ID: "c1", Name: "navigate", Arguments: json.RawMessage(`{"url":"https://example.com"}`)}),
		toolTurn("finishing", llm.ToolCall{ID: "c2", Name: tools.DoneName, Arguments: json.RawMessage(`{"success":true,"message":"all actions done"}`)}),
	}}
	f := newFixture(t, provider, okTool("navigate"), tools.NewDoneTool())

	result, err := f.executor.Run(context.Background(), f.ectx, []string{"open example.com"})
	require.NoError(t, err)
	assert.True(t, result.Done)
	assert.False(t, result.RequiresHumanInput)
	assert.Equal(t, uint64(2), f.ectx.Metrics().ToolCalls)
	assert.Equal(t, uint64(0), f.ectx.Metrics().Errors)
}

func TestRunKeepsToolResultsAdjacent(t *testing.T) {
	provider := &scriptedProvider{turns: [][]*llm.StreamChunk{
		toolTurn("", llm.ToolCall{ID: "c1", Name: tools.DoneName, Arguments: json.RawMessage(`{"success":true,"message":"done"}`)}),
	}}
	f := newFixture(t, provider, tools.NewDoneTool())

	_, err := f.executor.Run(context.Background(), f.ectx, []string{"finish up"})
	require.NoError(t, err)

	msgs := f.history.Messages()
	// browser state, screenshot, instruction, AI turn, tool result.
	require.Len(t, msgs, 5)
	assert.Equal(t, types.MessageTypeBrowserState, msgs[0].Type)
	assert.Equal(t, types.MessageTypeScreenshot, msgs[1].Type)
	assert.Equal(t, types.RoleHuman, msgs[2].Role)

	require.Len(t, msgs[3].ToolCalls, 1)
	assert.Equal(t, "c1", msgs[3].ToolCalls[0].ID)
	assert.Equal(t, types.RoleTool, msgs[4].Role)
	assert.Equal(t, "c1", msgs[4].ToolCallID)
	assert.Equal(t, 0, f.history.PendingCount())
}

func TestRunSuspendsForHumanInput(t *testing.T) {
	provider := &scriptedProvider{turns: [][]*llm.StreamChunk{
		toolTurn("need a human", llm.ToolCall{ID: "c1", Name: tools.HumanInputName, Arguments: json.RawMessage(`{"prompt":"solve the captcha"}`)}),
	}}
	f := newFixture(t, provider)
	require.NoError(t, f.executor.registry.Register(tools.NewHumanInputTool(f.ectx)))

	result, err := f.executor.Run(context.Background(), f.ectx, []string{"log in"})
	require.NoError(t, err)
	assert.True(t, result.RequiresHumanInput)
	assert.False(t, result.Done)
	require.NotNil(t, f.ectx.HumanInputRequest())
	assert.Equal(t, "solve the captcha", f.ectx.HumanInputRequest().Prompt)
}

func TestRunRecordsUnknownToolFailure(t *testing.T) {
	provider := &scriptedProvider{turns: [][]*llm.StreamChunk{
		toolTurn("", llm.ToolCall{ID: "c1", Name: "teleport", Arguments: json.RawMessage(`{}`)}),
		toolTurn("", llm.ToolCall{ID: "c2", Name: tools.DoneName, Arguments: json.RawMessage(`{"success":true,"message":"done"}`)}),
	}}
	f := newFixture(t, provider, tools.NewDoneTool())

	result, err := f.executor.Run(context.Background(), f.ectx, []string{"do the impossible"})
	require.NoError(t, err)
	assert.True(t, result.Done)
	assert.Equal(t, uint64(1), f.ectx.Metrics().Errors)

	// The unknown call still got a tool-result message.
	var toolResults []string
	for _, msg := range f.history.Messages() {
		if msg.Role == types.RoleTool && msg.ToolCallID == "c1" {
			toolResults = append(toolResults, msg.Content)
		}
	}
	require.Len(t, toolResults, 1)
	assert.Contains(t, toolResults[0], "unknown tool")
}

func TestRunRecoversToolPanic(t *testing.T) {
	panicky := &fakeTool{name: "explode", fn: func(context.Context, json.RawMessage) (*tools.Result, error) {
		panic("boom")
	}}
	provider := &scriptedProvider{turns: [][]*llm.StreamChunk{
		toolTurn("", llm.ToolCall{ID: "c1", Name: "explode", Arguments: json.RawMessage(`{}`)}),
		toolTurn("", llm.ToolCall{ID: "c2", Name: tools.DoneName, Arguments: json.RawMessage(`{"success":true,"message":"done"}`)}),
	}}
	f := newFixture(t, provider, panicky, tools.NewDoneTool())

	result, err := f.executor.Run(context.Background(), f.ectx, []string{"press the red button"})
	require.NoError(t, err)
	assert.True(t, result.Done)
	assert.Equal(t, uint64(1), f.ectx.Metrics().Errors)
}

func TestRunStopsAtTurnCap(t *testing.T) {
	busy := toolTurn("", llm.ToolCall{ID: "c", Name: "navigate", Arguments: json.RawMessage(`{}`)})
	provider := &scriptedProvider{turns: [][]*llm.StreamChunk{busy, busy, busy, busy}}
	f := newFixture(t, provider, okTool("navigate"))

	result, err := f.executor.Run(context.Background(), f.ectx, []string{"keep browsing"})
	require.NoError(t, err)
	assert.False(t, result.Done)
	assert.False(t, result.RequiresHumanInput)
	assert.Equal(t, config.Default().MaxExecutorIterations, provider.calls)
}

func TestRunContinuesAfterTextOnlyTurn(t *testing.T) {
	provider := &scriptedProvider{turns: [][]*llm.StreamChunk{
		{
			{Content: "The element took a moment to appear."},
			{Finished: true},
		},
		toolTurn("", llm.ToolCall{ID: "c1", Name: tools.DoneName, Arguments: json.RawMessage(`{"success":true,"message":"done"}`)}),
	}}
	f := newFixture(t, provider, tools.NewDoneTool())

	result, err := f.executor.Run(context.Background(), f.ectx, []string{"click the slow button"})
	require.NoError(t, err)
	assert.True(t, result.Done)
	assert.Equal(t, 2, provider.calls)

	var aiText []string
	for _, msg := range f.history.Messages() {
		if msg.Role == types.RoleAI && len(msg.ToolCalls) == 0 {
			aiText = append(aiText, msg.Content)
		}
	}
	require.Len(t, aiText, 1)
	assert.Equal(t, "The element took a moment to appear.", aiText[0])
}

func TestRunReturnsOnEmptyTurn(t *testing.T) {
	provider := &scriptedProvider{turns: [][]*llm.StreamChunk{
		{{Finished: true}},
	}}
	f := newFixture(t, provider)

	result, err := f.executor.Run(context.Background(), f.ectx, []string{"do nothing apparently"})
	require.NoError(t, err)
	assert.False(t, result.Done)
	assert.False(t, result.RequiresHumanInput)
	assert.Equal(t, 1, provider.calls)
}

func TestRunStreamsThinkingUnderStableID(t *testing.T) {
	provider := &scriptedProvider{turns: [][]*llm.StreamChunk{
		{
			{Content: "navi"},
			{Content: "gating now"},
			{Finished: true, ToolCalls: []llm.ToolCall{{ID: "c1", Name: tools.DoneName, Arguments: json.RawMessage(`{"success":true,"message":"done"}`)}}},
		},
	}}
	f := newFixture(t, provider, tools.NewDoneTool())

	_, err := f.executor.Run(context.Background(), f.ectx, []string{"go"})
	require.NoError(t, err)

	var thinking []*types.AgentEvent
	for _, e := range *f.events {
		if e.Type == types.EventTypeThinking {
			thinking = append(thinking, e)
		}
	}
	require.Len(t, thinking, 2)
	assert.Equal(t, thinking[0].MessageID, thinking[1].MessageID)
	assert.Equal(t, "navi", thinking[0].Content)
	assert.Equal(t, "navigating now", thinking[1].Content)
}

func TestRunSurfacesStreamErrors(t *testing.T) {
	provider := &scriptedProvider{turns: [][]*llm.StreamChunk{
		{{Err: errors.New("stream reset")}},
	}}
	f := newFixture(t, provider)

	_, err := f.executor.Run(context.Background(), f.ectx, []string{"anything"})
	require.Error(t, err)
	assert.Equal(t, uint64(1), f.ectx.Metrics().Errors)
}

// abortingProvider requests cancellation partway through its own stream and
// still finishes the turn with a tool call.
type abortingProvider struct {
	ectx *execution.Context
	call llm.ToolCall
}

func (p *abortingProvider) StreamToolCompletion(ctx context.Context, messages []*types.Message, defs []llm.ToolDefinition) (<-chan *llm.StreamChunk, error) {
	out := make(chan *llm.StreamChunk, 2)
	out <- &llm.StreamChunk{Content: "starting the action"}
	p.ectx.Abort()
	out <- &llm.StreamChunk{Finished: true, ToolCalls: []llm.ToolCall{p.call}}
	close(out)
	return out, nil
}

func (p *abortingProvider) CompleteStructured(ctx context.Context, messages []*types.Message, schemaName string, schema map[string]interface{}) (json.RawMessage, error) {
	return nil, errors.New("not used in execution")
}

func (p *abortingProvider) Model() string { return "fake-model" }

func TestRunSkipsDispatchWhenAbortedMidStream(t *testing.T) {
	var dispatched int
	navigate := &fakeTool{name: "navigate", fn: func(context.Context, json.RawMessage) (*tools.Result, error) {
		dispatched++
		return tools.Ok("navigated"), nil
	}}

	f := newFixture(t, &scriptedProvider{}, navigate)
	provider := &abortingProvider{
		ectx: f.ectx,
		call: llm.ToolCall{ID: "c1", Name: "navigate", Arguments: json.RawMessage(`{"url":"https://example.com"}`)},
	}
	f.executor.provider = provider

	_, err := f.executor.Run(context.Background(), f.ectx, []string{"open example.com"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, dispatched)
	assert.Equal(t, uint64(0), f.ectx.Metrics().ToolCalls)
}

func TestRunCountsRepeatedToolFailures(t *testing.T) {
	failing := &fakeTool{name: "click", fn: func(context.Context, json.RawMessage) (*tools.Result, error) {
		return tools.Fail("no element matches selector"), nil
	}}
	clickTurn := toolTurn("", llm.ToolCall{ID: "c", Name: "click", Arguments: json.RawMessage(`{"selector":"#gone"}`)})
	provider := &scriptedProvider{turns: [][]*llm.StreamChunk{clickTurn, clickTurn, clickTurn}}
	f := newFixture(t, provider, failing)

	result, err := f.executor.Run(context.Background(), f.ectx, []string{"click the vanished button"})
	require.NoError(t, err)
	assert.False(t, result.Done)
	assert.Equal(t, uint64(3), f.ectx.Metrics().ToolCalls)
	assert.Equal(t, uint64(3), f.ectx.Metrics().Errors)
}

func TestRunHonorsAbort(t *testing.T) {
	provider := &scriptedProvider{}
	f := newFixture(t, provider)

	f.ectx.Abort()
	_, err := f.executor.Run(context.Background(), f.ectx, []string{"anything"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, provider.calls)
}

func TestRunRefreshesStaleSnapshots(t *testing.T) {
	provider := &scriptedProvider{turns: [][]*llm.StreamChunk{
		toolTurn("", llm.ToolCall{ID: "c1", Name: tools.DoneName, Arguments: json.RawMessage(`{"success":true,"message":"done"}`)}),
	}}
	f := newFixture(t, provider, tools.NewDoneTool())

	f.history.Add(types.NewBrowserStateMessage("stale state"))
	f.history.Add(types.NewScreenshotMessage("stale shot"))

	_, err := f.executor.Run(context.Background(), f.ectx, []string{"refresh"})
	require.NoError(t, err)

	var states, shots []string
	for _, msg := range f.history.Messages() {
		switch msg.Type {
		case types.MessageTypeBrowserState:
			states = append(states, msg.Content)
		case types.MessageTypeScreenshot:
			shots = append(shots, msg.Content)
		}
	}
	require.Len(t, states, 1)
	assert.Equal(t, "link \"Home\" [1]", states[0])
	require.Len(t, shots, 1)
	assert.NotEqual(t, "stale shot", shots[0])
}

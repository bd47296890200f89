// Package executor implements the action-execution half of the agent loop:
// it turns a planned action list into tool-bound model turns, dispatches the
// resulting tool calls, and keeps the conversation history well ordered.
package executor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/entrhq/surf/pkg/agent/execution"
	"github.com/entrhq/surf/pkg/agent/history"
	"github.com/entrhq/surf/pkg/agent/tools"
	"github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/llm"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/types"
)

// StateProvider supplies the browser snapshot refreshed at the start of every
// plan execution.
type StateProvider interface {
	BrowserStateString(ctx context.Context, simplified bool) (string, error)
	Screenshot(ctx context.Context, quality int, withOverlay bool) ([]byte, error)
}

// Result reports how a plan's execution ended. Done means the done tool was
// invoked successfully; RequiresHumanInput means execution suspended for the
// human-input handshake. Neither set means the sub-loop ran out of turns or
// the model stopped calling tools, and the planner should take over again.
type Result struct {
	Done               bool
	RequiresHumanInput bool
}

// Executor runs planned actions through tool-bound model turns.
type Executor struct {
	provider llm.Provider
	registry *tools.Registry
	history  *history.Manager
	state    StateProvider
	cfg      *config.Config
	log      *logging.Logger
}

// New creates an executor.
func New(provider llm.Provider, registry *tools.Registry, hist *history.Manager, state StateProvider, cfg *config.Config, log *logging.Logger) *Executor {
	return &Executor{
		provider: provider,
		registry: registry,
		history:  hist,
		state:    state,
		cfg:      cfg,
		log:      log,
	}
}

// Run executes one plan. It gives the model up to MaxExecutorIterations
// turns; each turn streams the response, dispatches every requested tool
// call sequentially, and appends the tool results directly after the AI
// message that requested them. Cancellation surfaces as context.Canceled.
func (e *Executor) Run(ctx context.Context, ectx *execution.Context, actions []string) (*Result, error) {
	for iteration := 0; iteration < e.cfg.MaxExecutorIterations; iteration++ {
		if ectx.ShouldAbort() {
			return nil, context.Canceled
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if iteration == 0 {
			e.refreshBrowserState(ctx)
			e.history.AddHuman(actionInstruction(actions))
		} else {
			e.history.AddHuman("Continue with the remaining actions. Call done when every action has been carried out.")
		}

		content, calls, err := e.streamTurn(ctx, ectx)
		if err != nil {
			if ctx.Err() != nil || ectx.ShouldAbort() {
				return nil, context.Canceled
			}
			ectx.IncErrors()
			return nil, fmt.Errorf("executor turn failed: %w", err)
		}

		// An abort that landed during the final stream chunk must not let the
		// turn's tool calls run.
		if ectx.ShouldAbort() {
			return nil, context.Canceled
		}

		if len(calls) == 0 {
			if content == "" {
				e.log.Debugf("executor turn produced no output, returning to planner")
				return &Result{}, nil
			}
			// A text-only turn stays in the sub-loop; the next turn carries
			// the continue-or-done reminder.
			e.history.AddAI(content)
			continue
		}

		refs := make([]types.ToolCallRef, len(calls))
		for i, call := range calls {
			refs[i] = types.ToolCallRef{ID: call.ID, Name: call.Name, Arguments: string(call.Arguments)}
		}
		e.history.AddAIWithToolCalls(content, refs)

		done, needsHuman := e.dispatch(ctx, ectx, calls)

		// Snapshots queued while the batch was in flight land only after
		// every tool call has its result message.
		e.history.FlushQueue()

		if needsHuman {
			return &Result{RequiresHumanInput: true}, nil
		}
		if done {
			return &Result{Done: true}, nil
		}
	}

	e.log.Debugf("executor hit the per-plan turn cap (%d), returning to planner", e.cfg.MaxExecutorIterations)
	return &Result{}, nil
}

// dispatch runs the turn's tool calls in order, recording a tool-result
// message for every call regardless of outcome.
func (e *Executor) dispatch(ctx context.Context, ectx *execution.Context, calls []llm.ToolCall) (done, needsHuman bool) {
	for _, call := range calls {
		ectx.IncToolCalls()
		ectx.Channel().PublishMessage(types.NewToolCallEvent(call.Name, decodeArgs(call.Arguments)))

		result := e.invoke(ctx, call)
		if !result.OK {
			ectx.IncErrors()
		}

		e.history.AddTool(result.Text(), call.ID)
		ectx.Channel().PublishMessage(types.NewToolResultEvent(call.Name, result.Text()))

		if result.RequiresHumanInput {
			needsHuman = true
		}
		if call.Name == tools.DoneName && result.OK {
			done = true
		}
	}
	return done, needsHuman
}

// invoke executes one tool call, converting unknown tools, returned errors,
// and panics into failed results so the turn always completes.
func (e *Executor) invoke(ctx context.Context, call llm.ToolCall) (result *tools.Result) {
	tool, ok := e.registry.Get(call.Name)
	if !ok {
		e.log.Warnf("model called unknown tool %q", call.Name)
		return tools.Fail(fmt.Sprintf("unknown tool: %s", call.Name))
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("tool %s panicked: %v", call.Name, r)
			result = tools.Fail(fmt.Sprintf("tool %s panicked: %v", call.Name, r))
		}
	}()

	res, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		e.log.Warnf("tool %s failed: %v", call.Name, err)
		return tools.Fail(err.Error())
	}
	if res == nil {
		return tools.Fail(fmt.Sprintf("tool %s returned no result", call.Name))
	}
	return res
}

// refreshBrowserState replaces any stale snapshot messages with the current
// browser state and screenshot. Snapshot failures are tolerated; execution
// proceeds on the conversation alone.
func (e *Executor) refreshBrowserState(ctx context.Context) {
	e.history.RemoveMessagesByType(types.MessageTypeBrowserState)
	e.history.RemoveMessagesByType(types.MessageTypeScreenshot)

	if state, err := e.state.BrowserStateString(ctx, true); err == nil && state != "" {
		e.history.QueueBrowserState(state)
	} else if err != nil {
		e.log.Warnf("browser state unavailable: %v", err)
	}
	if shot, err := e.state.Screenshot(ctx, e.cfg.ScreenshotQuality, true); err == nil && len(shot) > 0 {
		e.history.QueueScreenshot(base64.StdEncoding.EncodeToString(shot))
	}

	e.history.FlushQueue()
}

// streamTurn runs one tool-bound model turn, republishing the accumulating
// text as thinking events, and returns the final content and tool calls.
func (e *Executor) streamTurn(ctx context.Context, ectx *execution.Context) (string, []llm.ToolCall, error) {
	stream, err := e.provider.StreamToolCompletion(ctx, e.history.Messages(), e.toolDefinitions())
	if err != nil {
		return "", nil, err
	}

	thinking := newThinkingStream(ectx.Channel())
	var calls []llm.ToolCall

	for chunk := range stream {
		if ectx.ShouldAbort() {
			return "", nil, context.Canceled
		}
		if chunk.IsError() {
			return "", nil, chunk.Err
		}
		if chunk.Content != "" {
			thinking.Append(chunk.Content)
		}
		if chunk.Finished {
			calls = chunk.ToolCalls
		}
	}

	return thinking.Content(), calls, nil
}

func (e *Executor) toolDefinitions() []llm.ToolDefinition {
	all := e.registry.All()
	defs := make([]llm.ToolDefinition, len(all))
	for i, tool := range all {
		defs[i] = llm.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Schema(),
		}
	}
	return defs
}

func actionInstruction(actions []string) string {
	var b strings.Builder
	b.WriteString("Carry out the following actions using the available tools, then call done:\n")
	for i, action := range actions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, action)
	}
	return b.String()
}

func decodeArgs(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return map[string]interface{}{"_raw": string(raw)}
	}
	return args
}

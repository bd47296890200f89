// Package planner implements the one-shot structured-reasoning step of the
// agent loop: given the task, execution metrics, recent reasoning, the
// conversation history, and a fresh browser-state snapshot, it asks the
// reasoning model for a bounded action plan or a completion verdict.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/surf/pkg/agent/execution"
	"github.com/entrhq/surf/pkg/agent/history"
	"github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/llm"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/types"
	"github.com/google/uuid"
)

// escalationErrorRate is the derived error-rate threshold above which the
// planner prompt steers toward escalation strategies.
const escalationErrorRate = 0.30

// stuckToolCalls and stuckErrors form the stuck-loop heuristic: high call
// volume with many errors suggests the plan keeps failing the same way.
const (
	stuckToolCalls = 20
	stuckErrors    = 5
)

// StateProvider supplies the fresh browser-state snapshot included in every
// planning prompt. Both results are treated as opaque and possibly absent.
type StateProvider interface {
	BrowserStateString(ctx context.Context, simplified bool) (string, error)
	Screenshot(ctx context.Context, quality int, withOverlay bool) ([]byte, error)
}

// Planner performs one planning iteration per call.
type Planner struct {
	provider llm.Provider
	history  *history.Manager
	state    StateProvider
	cfg      *config.Config
	log      *logging.Logger
}

// New creates a planner.
func New(provider llm.Provider, hist *history.Manager, state StateProvider, cfg *config.Config, log *logging.Logger) *Planner {
	return &Planner{
		provider: provider,
		history:  hist,
		state:    state,
		cfg:      cfg,
		log:      log,
	}
}

// Plan runs one planning iteration for the task bound to ectx.
//
// On success it appends a reasoning entry, increments the observation
// counter, and publishes the step's reasoning as a thinking event. Failures
// (schema violations, exhausted retries) return a *Error; cancellation
// returns context.Canceled.
func (p *Planner) Plan(ctx context.Context, ectx *execution.Context) (*Output, error) {
	if ectx.ShouldAbort() {
		return nil, context.Canceled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messages := []*types.Message{
		types.NewSystemMessage(plannerSystemPrompt),
		types.NewHumanMessage(p.buildPrompt(ctx, ectx)),
	}

	raw, err := p.completeWithRetry(ctx, messages)
	if err != nil {
		if ctx.Err() != nil || ectx.ShouldAbort() {
			return nil, context.Canceled
		}
		return nil, &Error{Reason: "model call exhausted retries", Err: err}
	}

	var out Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{Reason: "output is not valid JSON", Err: err}
	}
	if err := out.Validate(p.cfg.MaxActionsPerPlan); err != nil {
		return nil, &Error{Reason: "output violates schema invariants", Err: err}
	}

	ectx.AppendReasoning(types.ReasoningEntry{
		Observation:    out.Observation,
		Reasoning:      out.Reasoning,
		Challenges:     out.Challenges,
		TaskComplete:   out.TaskComplete,
		ActionsPlanned: out.Actions,
	})
	ectx.IncObservations()

	ectx.Channel().PublishMessage(types.NewThinkingEvent(
		uuid.New().String(),
		fmt.Sprintf("%s\n%s", out.Observation, out.Reasoning),
	))

	return &out, nil
}

// buildPrompt assembles the planning prompt: task, derived metric signals,
// recent reasoning, the filtered conversation transcript, and the current
// browser state.
func (p *Planner) buildPrompt(ctx context.Context, ectx *execution.Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Task\n%s\n\n", ectx.Task())

	p.writeSignals(&b, ectx.Metrics())
	p.writeReasoning(&b, ectx)
	p.writeHistory(&b)
	p.writeBrowserState(&b, ctx)

	fmt.Fprintf(&b, "# Instructions\nProduce the next plan: up to %d high-level actions, or declare the task complete with a final answer.\n", p.cfg.MaxActionsPerPlan)
	return b.String()
}

func (p *Planner) writeSignals(b *strings.Builder, m execution.Metrics) {
	fmt.Fprintf(b, "# Progress signals\nTool calls: %d, errors: %d (error rate %.0f%%), observations: %d, elapsed: %s\n",
		m.ToolCalls, m.Errors, m.ErrorRate()*100, m.Observations, m.Elapsed().Round(100*time.Millisecond))

	if m.ErrorRate() > escalationErrorRate {
		b.WriteString("The error rate is high. Prefer a different approach over repeating failed actions: try another selector, another page, or ask for human input.\n")
	}
	if m.ToolCalls >= stuckToolCalls && m.Errors >= stuckErrors {
		b.WriteString("Many tool calls with repeated errors suggest the current strategy is stuck. Change strategy or conclude the task.\n")
	}
	b.WriteString("\n")
}

func (p *Planner) writeReasoning(b *strings.Builder, ectx *execution.Context) {
	entries := ectx.LastReasoning(p.cfg.ReasoningWindow)
	if len(entries) == 0 {
		return
	}
	b.WriteString("# Previous reasoning\n")
	for i, entry := range entries {
		fmt.Fprintf(b, "%d. observed: %s | planned: %s\n", i+1, entry.Observation, strings.Join(entry.ActionsPlanned, "; "))
	}
	b.WriteString("\n")
}

func (p *Planner) writeHistory(b *strings.Builder) {
	transcript := p.history.FilteredAsString(types.MessageTypeBrowserState, types.MessageTypeScreenshot)
	if transcript == "" {
		return
	}
	// Bound the prompt: keep the most recent part of an oversized transcript.
	if p.cfg.MaxPromptTokens > 0 && p.history.TokenCount() > p.cfg.MaxPromptTokens {
		maxChars := p.cfg.MaxPromptTokens * 4
		if len(transcript) > maxChars {
			transcript = "(older history truncated)\n" + transcript[len(transcript)-maxChars:]
		}
	}
	fmt.Fprintf(b, "# Conversation so far\n%s\n", transcript)
}

func (p *Planner) writeBrowserState(b *strings.Builder, ctx context.Context) {
	state, err := p.state.BrowserStateString(ctx, true)
	if err != nil || state == "" {
		b.WriteString("# Browser state\n(unavailable)\n\n")
		return
	}
	fmt.Fprintf(b, "# Browser state\n%s\n\n", state)

	if shot, err := p.state.Screenshot(ctx, p.cfg.ScreenshotQuality, true); err == nil && len(shot) > 0 {
		fmt.Fprintf(b, "A screenshot of the page (%d bytes) was captured alongside this state.\n\n", len(shot))
	}
}

const plannerSystemPrompt = `You are the planning module of a browser automation agent. Each round you receive the task, progress signals, your previous reasoning, the conversation with the execution module, and the current browser state. Respond with a JSON object containing your observation, reasoning, challenges, a list of at most five high-level actions for the execution module, a task_complete flag, and a final_answer. Set task_complete only when the task is genuinely finished, with the answer in final_answer and no further actions. While the task is unfinished, leave final_answer empty.`

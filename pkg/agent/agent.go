// Package agent wires the Surf control loop together: a planner that decides
// what to do next, an executor that carries the plan out through browser
// tools, a per-task event channel for progress, and the human-in-the-loop
// handshake for steps the agent cannot perform itself.
package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/entrhq/surf/pkg/agent/channel"
	"github.com/entrhq/surf/pkg/agent/execution"
	"github.com/entrhq/surf/pkg/agent/executor"
	"github.com/entrhq/surf/pkg/agent/history"
	"github.com/entrhq/surf/pkg/agent/humanloop"
	"github.com/entrhq/surf/pkg/agent/planner"
	"github.com/entrhq/surf/pkg/agent/tools"
	"github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/llm"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/types"
)

// StateProvider supplies browser snapshots to both halves of the loop.
type StateProvider interface {
	BrowserStateString(ctx context.Context, simplified bool) (string, error)
	Screenshot(ctx context.Context, quality int, withOverlay bool) ([]byte, error)
}

// Agent runs browser-automation tasks. One Agent serves many tasks; each
// Execute call gets its own history, tool registry, and execution context.
type Agent struct {
	provider llm.Provider
	state    StateProvider
	cfg      *config.Config
	log      *logging.Logger
	channels *channel.Registry

	extraTools []tools.Tool

	mu     sync.Mutex
	active map[string]*execution.Context
}

// Option configures an Agent.
type Option func(*Agent)

// WithConfig sets the agent configuration. Defaults are used otherwise.
func WithConfig(cfg *config.Config) Option {
	return func(a *Agent) { a.cfg = cfg }
}

// WithLogger sets the agent logger.
func WithLogger(log *logging.Logger) Option {
	return func(a *Agent) { a.log = log }
}

// WithTools registers additional tools (typically the browser tool set) for
// every task. The done and human_input control tools are always present.
func WithTools(ts ...tools.Tool) Option {
	return func(a *Agent) { a.extraTools = append(a.extraTools, ts...) }
}

// New creates an agent backed by the given model provider and browser state
// source.
func New(provider llm.Provider, state StateProvider, opts ...Option) (*Agent, error) {
	a := &Agent{
		provider: provider,
		state:    state,
		cfg:      config.Default(),
		channels: channel.NewRegistry(),
		active:   make(map[string]*execution.Context),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	if a.log == nil {
		// NewLogger falls back to stderr on error; either way it is usable.
		log, _ := logging.NewLogger("agent")
		a.log = log
	}
	return a, nil
}

// Channels returns the per-task channel registry. Subscribe to a task's
// channel (GetOrCreate with the task ID) before calling Execute to observe
// every event from task_start on.
func (a *Agent) Channels() *channel.Registry {
	return a.channels
}

// Abort requests cooperative cancellation of a running task. The task unwinds
// at its next suspend point; unknown task IDs are ignored.
func (a *Agent) Abort(taskID string) {
	a.mu.Lock()
	ectx := a.active[taskID]
	a.mu.Unlock()

	if ectx != nil {
		ectx.Abort()
	}
}

// Execute runs one task to a terminal state. It returns nil when the task
// completes with a final answer; otherwise one of the sentinel errors
// (ErrCancelled, ErrIterationBudget, ErrHumanAbort, ErrHumanTimeout) or the
// underlying failure.
func (a *Agent) Execute(ctx context.Context, taskID, task string) error {
	ch := a.channels.GetOrCreate(taskID)
	ectx := execution.NewContext(taskID, task, ch)

	a.mu.Lock()
	if _, exists := a.active[taskID]; exists {
		a.mu.Unlock()
		return errors.New("task " + taskID + " is already running")
	}
	a.active[taskID] = ectx
	a.mu.Unlock()

	defer func() {
		ectx.Finish()
		a.mu.Lock()
		delete(a.active, taskID)
		a.mu.Unlock()
	}()

	ectx.Begin()
	ch.PublishMessage(types.NewTaskStartEvent(task))
	a.log.Infof("task %s started: %s", taskID, task)

	hist := history.NewManager(history.WithEncoding("cl100k_base"))
	hist.AddSystem(executorSystemPrompt)
	hist.AddHuman(task)

	registry, err := a.buildRegistry(ectx)
	if err != nil {
		ch.PublishMessage(types.NewTaskFailedEvent(err))
		return err
	}

	plan := planner.New(a.provider, hist, a.state, a.cfg, a.log)
	exec := executor.New(a.provider, registry, hist, a.state, a.cfg, a.log)

	for iteration := 0; iteration < a.cfg.MaxPlanningIterations; iteration++ {
		if ectx.ShouldAbort() || ctx.Err() != nil {
			return a.cancelled(ch, taskID)
		}

		out, err := plan.Plan(ctx, ectx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return a.cancelled(ch, taskID)
			}
			// Planning failures are recoverable; the budget bounds retries.
			a.log.Warnf("task %s planning iteration %d failed: %v", taskID, iteration, err)
			ch.PublishMessage(types.NewErrorEvent(err))
			ectx.IncErrors()
			continue
		}

		// Any side-effect messages queued during planning land before the
		// history is read again.
		hist.FlushQueue()

		if out.TaskComplete {
			hist.AddAI(out.FinalAnswer)
			ch.PublishMessage(types.NewAssistantEvent(out.FinalAnswer))
			ch.PublishMessage(types.NewTaskDoneEvent(out.FinalAnswer))
			a.log.Infof("task %s done after %d observations", taskID, ectx.Metrics().Observations)
			return nil
		}

		if len(out.Actions) == 0 {
			a.log.Infof("task %s: empty plan, planning again", taskID)
			continue
		}

		result, err := exec.Run(ctx, ectx, out.Actions)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return a.cancelled(ch, taskID)
			}
			a.log.Warnf("task %s execution failed: %v", taskID, err)
			ch.PublishMessage(types.NewErrorEvent(err))
			continue
		}

		if result.RequiresHumanInput {
			if err := a.awaitHuman(ctx, ectx, ch, hist, taskID); err != nil {
				return err
			}
		}
	}

	ch.PublishMessage(types.NewTaskFailedEvent(ErrIterationBudget))
	a.log.Warnf("task %s exhausted %d planning iterations", taskID, a.cfg.MaxPlanningIterations)
	return ErrIterationBudget
}

func (a *Agent) buildRegistry(ectx *execution.Context) (*tools.Registry, error) {
	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewDoneTool()); err != nil {
		return nil, err
	}
	if err := registry.Register(tools.NewHumanInputTool(ectx)); err != nil {
		return nil, err
	}
	for _, tool := range a.extraTools {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// awaitHuman runs the handshake and maps its outcome onto the loop: resume,
// abort, or timeout.
func (a *Agent) awaitHuman(ctx context.Context, ectx *execution.Context, ch *channel.Channel, hist *history.Manager, taskID string) error {
	outcome, err := humanloop.Await(ctx, ectx, a.cfg, a.log)
	if err != nil {
		return a.cancelled(ch, taskID)
	}

	switch outcome {
	case humanloop.OutcomeDone:
		hist.AddHuman("The human completed the requested manual step. Continue with the task.")
		return nil
	case humanloop.OutcomeAbort:
		ch.PublishMessage(types.NewTaskCancelledEvent("aborted by human"))
		a.log.Infof("task %s aborted by human", taskID)
		return ErrHumanAbort
	default:
		ch.PublishMessage(types.NewTaskFailedEvent(ErrHumanTimeout))
		a.log.Warnf("task %s human input timed out", taskID)
		return ErrHumanTimeout
	}
}

func (a *Agent) cancelled(ch *channel.Channel, taskID string) error {
	ch.PublishMessage(types.NewTaskCancelledEvent("cancellation requested"))
	a.log.Infof("task %s cancelled", taskID)
	return ErrCancelled
}

const executorSystemPrompt = `You are a browser automation agent. You receive a task, then rounds of planned actions to carry out with the available browser tools. Work through each action in order, observe results carefully, and call done when the round's actions are complete. If a step genuinely requires a human (captcha, credentials, a confirmation you must not make alone), call human_input.`

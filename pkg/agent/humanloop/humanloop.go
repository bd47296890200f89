// Package humanloop implements the suspension side of the human-in-the-loop
// handshake: after the human_input tool records an outstanding request, Await
// parks the task until the human answers, the wait times out, or the task is
// cancelled.
package humanloop

import (
	"context"
	"time"

	"github.com/entrhq/surf/pkg/agent/execution"
	"github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/types"
)

// Outcome is how a human-input wait ended.
type Outcome int

const (
	// OutcomeDone means the human performed the manual step; the task resumes.
	OutcomeDone Outcome = iota
	// OutcomeAbort means the human declined; the task is cancelled.
	OutcomeAbort
	// OutcomeTimeout means no response arrived before the deadline.
	OutcomeTimeout
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeAbort:
		return "abort"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Await blocks until the outstanding human-input request on ectx resolves.
//
// It subscribes to the task channel for the matching response event, polls at
// the configured interval, and gives up at the configured timeout. Whatever
// the exit path, the subscription is torn down and the handshake state on the
// context is cleared. Cancellation surfaces as context.Canceled.
func Await(ctx context.Context, ectx *execution.Context, cfg *config.Config, log *logging.Logger) (Outcome, error) {
	req := ectx.HumanInputRequest()
	if req == nil {
		// Nothing outstanding; treat as already answered.
		return OutcomeDone, nil
	}

	sub := ectx.Channel().Subscribe(func(event *types.AgentEvent) {
		if event.Type != types.EventTypeHumanInputResponse || event.HumanInputResponse == nil {
			return
		}
		// Stale or mismatched request IDs are dropped by the context.
		ectx.RecordHumanInputResponse(event.HumanInputResponse)
	})
	defer sub.Unsubscribe()
	defer ectx.ClearHumanInput()

	log.Infof("waiting for human input (request %s): %s", req.RequestID, req.Prompt)

	ticker := time.NewTicker(cfg.HumanInputPollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(cfg.HumanInputTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return OutcomeAbort, ctx.Err()
		case <-deadline.C:
			log.Warnf("human input request %s timed out after %s", req.RequestID, cfg.HumanInputTimeout)
			return OutcomeTimeout, nil
		case <-ticker.C:
			if ectx.ShouldAbort() {
				return OutcomeAbort, context.Canceled
			}
			resp := ectx.TakeHumanInputResponse()
			if resp == nil {
				continue
			}
			if resp.IsDone() {
				log.Infof("human completed request %s", req.RequestID)
				return OutcomeDone, nil
			}
			log.Infof("human aborted request %s", req.RequestID)
			return OutcomeAbort, nil
		}
	}
}

package agent

import "errors"

var (
	// ErrCancelled is returned when a task ends because cancellation was
	// requested, either through the context or Abort.
	ErrCancelled = errors.New("task cancelled")

	// ErrIterationBudget is returned when a task exhausts its planning
	// iteration budget without completing.
	ErrIterationBudget = errors.New("planning iteration budget exhausted")

	// ErrHumanAbort is returned when a human declines a human-input request.
	ErrHumanAbort = errors.New("task aborted by human")

	// ErrHumanTimeout is returned when a human-input request goes unanswered
	// past the configured timeout.
	ErrHumanTimeout = errors.New("human input timed out")
)

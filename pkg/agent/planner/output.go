package planner

import (
	"fmt"
)

// Output is the structured result of one planning step.
//
// Invariants (validated, never coerced):
//   - TaskComplete=true requires empty Actions and a non-empty FinalAnswer.
//   - TaskComplete=false requires an empty FinalAnswer and at most
//     MaxActions actions. Zero actions without completion is structurally
//     allowed; the outer loop logs it and re-plans.
type Output struct {
	Observation  string   `json:"observation"`
	Reasoning    string   `json:"reasoning"`
	Challenges   string   `json:"challenges"`
	Actions      []string `json:"actions"`
	TaskComplete bool     `json:"task_complete"`
	FinalAnswer  string   `json:"final_answer"`
}

// Validate checks the output against its schema invariants. A violation is a
// hard error for the planning iteration.
func (o *Output) Validate(maxActions int) error {
	if o.TaskComplete {
		if len(o.Actions) != 0 {
			return fmt.Errorf("task_complete=true but %d actions planned", len(o.Actions))
		}
		if o.FinalAnswer == "" {
			return fmt.Errorf("task_complete=true but final_answer is empty")
		}
		return nil
	}

	if o.FinalAnswer != "" {
		return fmt.Errorf("task_complete=false but final_answer is set")
	}
	if len(o.Actions) > maxActions {
		return fmt.Errorf("plan has %d actions, maximum is %d", len(o.Actions), maxActions)
	}
	return nil
}

// SchemaName is the name under which the output schema is registered with
// the structured-output API.
const SchemaName = "planner_output"

// Schema returns the JSON schema the structured-output call is validated
// against service-side.
func Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"observation": map[string]interface{}{
				"type":        "string",
				"description": "What the current browser state and history show",
			},
			"reasoning": map[string]interface{}{
				"type":        "string",
				"description": "Why the planned actions move the task forward",
			},
			"challenges": map[string]interface{}{
				"type":        "string",
				"description": "Obstacles observed or anticipated",
			},
			"actions": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "High-level actions for this round, empty when the task is complete",
			},
			"task_complete": map[string]interface{}{
				"type":        "boolean",
				"description": "Whether the task is finished",
			},
			"final_answer": map[string]interface{}{
				"type":        "string",
				"description": "The answer to report, only when task_complete is true",
			},
		},
		"required": []string{"observation", "reasoning", "challenges", "actions", "task_complete", "final_answer"},
	}
}

// Error is a tagged planning failure: schema violation or an exhausted model
// call. The outer loop treats it as recoverable and re-plans.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planning failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("planning failed: %s", e.Reason)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

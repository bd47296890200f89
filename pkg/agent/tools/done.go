package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// DoneName is the tool name the executor treats as an explicit completion
// signal for the current plan.
const DoneName = "done"

// DoneTool lets the tool-bound model declare the current plan's actions
// finished. Its success ends the executor sub-loop; the planner then decides
// whether the overall task is complete.
type DoneTool struct{}

// NewDoneTool creates the done control tool.
func NewDoneTool() *DoneTool {
	return &DoneTool{}
}

// Name returns the tool name.
func (t *DoneTool) Name() string {
	return DoneName
}

// Description returns the tool description.
func (t *DoneTool) Description() string {
	return "Declare the current set of actions complete. Call this once all requested actions have been performed, with a short summary of what was accomplished."
}

// Schema returns the tool's argument schema.
func (t *DoneTool) Schema() map[string]interface{} {
	return ObjectSchema(map[string]interface{}{
		"success": map[string]interface{}{
			"type":        "boolean",
			"description": "Whether the actions were completed successfully",
		},
		"message": map[string]interface{}{
			"type":        "string",
			"description": "Short summary of what was accomplished",
		},
	}, []string{"success", "message"})
}

type doneArgs struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Execute records the completion summary.
func (t *DoneTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	var in doneArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid done arguments: %w", err)
	}
	if !in.Success {
		return Ok(fmt.Sprintf("actions finished with problems: %s", in.Message)), nil
	}
	return Ok(in.Message), nil
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entrhq/surf/pkg/agent/execution"
	"github.com/entrhq/surf/pkg/types"
	"github.com/google/uuid"
)

// HumanInputName is the tool name whose success suspends execution for the
// human-in-the-loop handshake.
const HumanInputName = "human_input"

// HumanInputTool lets the model request a manual step from a human (solving
// a captcha, completing a login, confirming a sensitive action). A successful
// invocation records the outstanding request on the execution context and
// publishes it on the task channel; the executor then suspends for the
// handshake.
type HumanInputTool struct {
	ectx *execution.Context
}

// NewHumanInputTool creates the human_input control tool bound to a task's
// execution context.
func NewHumanInputTool(ectx *execution.Context) *HumanInputTool {
	return &HumanInputTool{ectx: ectx}
}

// Name returns the tool name.
func (t *HumanInputTool) Name() string {
	return HumanInputName
}

// Description returns the tool description.
func (t *HumanInputTool) Description() string {
	return "Ask the human operator to perform a manual step the agent cannot do itself (captcha, login, confirmation). Execution pauses until the human responds."
}

// Schema returns the tool's argument schema.
func (t *HumanInputTool) Schema() map[string]interface{} {
	return ObjectSchema(map[string]interface{}{
		"prompt": map[string]interface{}{
			"type":        "string",
			"description": "What the human should do, stated precisely",
		},
	}, []string{"prompt"})
}

type humanInputArgs struct {
	Prompt string `json:"prompt"`
}

// Execute records and publishes the human-input request.
func (t *HumanInputTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	var in humanInputArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid human_input arguments: %w", err)
	}
	if in.Prompt == "" {
		return Fail("prompt is required"), nil
	}

	req := &types.HumanInputRequest{
		RequestID: uuid.New().String(),
		Prompt:    in.Prompt,
	}
	if err := t.ectx.SetHumanInputRequest(req); err != nil {
		return Fail(err.Error()), nil
	}

	t.ectx.Channel().PublishMessage(types.NewHumanInputRequestEvent(req))

	return &Result{
		OK:                 true,
		Output:             fmt.Sprintf("waiting for human: %s", in.Prompt),
		RequiresHumanInput: true,
	}, nil
}

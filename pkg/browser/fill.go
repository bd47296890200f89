package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entrhq/surf/pkg/agent/tools"
)

// FillTool types a value into an input identified by a CSS selector.
type FillTool struct {
	driver Driver
}

// NewFillTool creates the fill tool.
func NewFillTool(driver Driver) *FillTool {
	return &FillTool{driver: driver}
}

// Name returns the tool name.
func (t *FillTool) Name() string {
	return "fill"
}

// Description returns the tool description.
func (t *FillTool) Description() string {
	return "Fill the input matching a CSS selector with a value, replacing any existing content."
}

// Schema returns the tool's argument schema.
func (t *FillTool) Schema() map[string]interface{} {
	return tools.ObjectSchema(map[string]interface{}{
		"selector": map[string]interface{}{
			"type":        "string",
			"description": "CSS selector of the input element",
		},
		"value": map[string]interface{}{
			"type":        "string",
			"description": "Text to enter",
		},
	}, []string{"selector", "value"})
}

type fillArgs struct {
	Selector string `json:"selector"`
	Value    string `json:"value"`
}

// Execute fills the input.
func (t *FillTool) Execute(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	var in fillArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid fill arguments: %w", err)
	}
	if in.Selector == "" {
		return tools.Fail("selector is required"), nil
	}

	if err := t.driver.Fill(in.Selector, in.Value); err != nil {
		return tools.Fail(err.Error()), nil
	}
	return tools.Ok(fmt.Sprintf("filled %s", in.Selector)), nil
}

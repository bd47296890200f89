package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entrhq/surf/pkg/agent/tools"
)

// ClickTool clicks an element identified by a CSS selector.
type ClickTool struct {
	driver Driver
}

// NewClickTool creates the click tool.
func NewClickTool(driver Driver) *ClickTool {
	return &ClickTool{driver: driver}
}

// Name returns the tool name.
func (t *ClickTool) Name() string {
	return "click"
}

// Description returns the tool description.
func (t *ClickTool) Description() string {
	return "Click the first element matching a CSS selector."
}

// Schema returns the tool's argument schema.
func (t *ClickTool) Schema() map[string]interface{} {
	return tools.ObjectSchema(map[string]interface{}{
		"selector": map[string]interface{}{
			"type":        "string",
			"description": "CSS selector of the element to click",
		},
	}, []string{"selector"})
}

type clickArgs struct {
	Selector string `json:"selector"`
}

// Execute clicks the element.
func (t *ClickTool) Execute(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	var in clickArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid click arguments: %w", err)
	}
	if in.Selector == "" {
		return tools.Fail("selector is required"), nil
	}

	if err := t.driver.Click(in.Selector); err != nil {
		return tools.Fail(err.Error()), nil
	}
	return tools.Ok(fmt.Sprintf("clicked %s, now at %s", in.Selector, t.driver.URL())), nil
}

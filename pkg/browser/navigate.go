package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entrhq/surf/pkg/agent/tools"
)

// NavigateTool opens a URL in the session's page, subject to the allowlist.
type NavigateTool struct {
	driver    Driver
	allowlist *Allowlist
}

// NewNavigateTool creates the navigate tool.
func NewNavigateTool(driver Driver, allowlist *Allowlist) *NavigateTool {
	return &NavigateTool{driver: driver, allowlist: allowlist}
}

// Name returns the tool name.
func (t *NavigateTool) Name() string {
	return "navigate"
}

// Description returns the tool description.
func (t *NavigateTool) Description() string {
	return "Navigate the browser to a URL and wait for the page to load."
}

// Schema returns the tool's argument schema.
func (t *NavigateTool) Schema() map[string]interface{} {
	return tools.ObjectSchema(map[string]interface{}{
		"url": map[string]interface{}{
			"type":        "string",
			"description": "Absolute http(s) URL to open",
		},
	}, []string{"url"})
}

type navigateArgs struct {
	URL string `json:"url"`
}

// Execute navigates to the requested URL.
func (t *NavigateTool) Execute(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	var in navigateArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid navigate arguments: %w", err)
	}
	if in.URL == "" {
		return tools.Fail("url is required"), nil
	}
	if err := t.allowlist.AllowsURL(in.URL); err != nil {
		return tools.Fail(err.Error()), nil
	}

	if err := t.driver.Goto(in.URL); err != nil {
		return tools.Fail(err.Error()), nil
	}
	return tools.Ok(fmt.Sprintf("navigated to %s", t.driver.URL())), nil
}

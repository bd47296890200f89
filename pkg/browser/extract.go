package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/entrhq/surf/pkg/agent/tools"
)

// extractMaxLength bounds extracted text so a single page cannot flood the
// conversation.
const extractMaxLength = 10000

// ExtractTool reads text content from the page, optionally scoped to a
// selector.
type ExtractTool struct {
	driver Driver
}

// NewExtractTool creates the extract_content tool.
func NewExtractTool(driver Driver) *ExtractTool {
	return &ExtractTool{driver: driver}
}

// Name returns the tool name.
func (t *ExtractTool) Name() string {
	return "extract_content"
}

// Description returns the tool description.
func (t *ExtractTool) Description() string {
	return "Extract readable text from the page, or from the first element matching an optional CSS selector. Prefixed with the page title."
}

// Schema returns the tool's argument schema.
func (t *ExtractTool) Schema() map[string]interface{} {
	return tools.ObjectSchema(map[string]interface{}{
		"selector": map[string]interface{}{
			"type":        "string",
			"description": "Optional CSS selector limiting extraction to one element",
		},
	}, nil)
}

type extractArgs struct {
	Selector string `json:"selector"`
}

// Execute extracts page text.
func (t *ExtractTool) Execute(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	var in extractArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("invalid extract_content arguments: %w", err)
		}
	}

	text, err := t.driver.TextContent(in.Selector)
	if err != nil {
		return tools.Fail(err.Error()), nil
	}
	if len(text) > extractMaxLength {
		text = fmt.Sprintf("%s\n\n[content truncated: %d of %d characters shown]",
			text[:extractMaxLength], extractMaxLength, len(text))
	}

	title, err := t.driver.Title()
	if err == nil && title != "" {
		text = fmt.Sprintf("# %s\n\n%s", title, text)
	}
	return tools.Ok(text), nil
}

package browser

import (
	"context"
	"fmt"
)

// maxOutlineLength bounds the simplified page outline handed to the model.
const maxOutlineLength = 20000

// State adapts a Driver into the snapshot source the agent loop consumes.
type State struct {
	driver Driver
}

// NewState creates a state provider over the given driver.
func NewState(driver Driver) *State {
	return &State{driver: driver}
}

// BrowserStateString renders the current page for the model. With simplified
// set it returns the indexed outline; otherwise the raw HTML.
func (s *State) BrowserStateString(ctx context.Context, simplified bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw, err := s.driver.Content()
	if err != nil {
		return "", err
	}
	if !simplified {
		return raw, nil
	}

	view, err := Simplify(raw, maxOutlineLength)
	if err != nil {
		return "", fmt.Errorf("failed to simplify page: %w", err)
	}
	return view.Render(s.driver.URL()), nil
}

// Screenshot captures the current viewport as a JPEG. The overlay flag is
// accepted for interface compatibility; highlighting is not implemented.
func (s *State) Screenshot(ctx context.Context, quality int, withOverlay bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.driver.ScreenshotJPEG(quality)
}

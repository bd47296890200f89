package planner

import (
	"context"
	"encoding/json"
	"time"

	"github.com/entrhq/surf/pkg/types"
)

const (
	retryMaxAttempts = 3
	retryBackoff     = time.Second
)

// completeWithRetry wraps the structured-output call in a fixed retry
// policy. The cancellation signal is honored between attempts; exhausting
// retries surfaces as the last error.
func (p *Planner) completeWithRetry(ctx context.Context, messages []*types.Message) (json.RawMessage, error) {
	var lastErr error

	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := p.provider.CompleteStructured(ctx, messages, SchemaName, Schema())
		if err == nil {
			return raw, nil
		}
		lastErr = err
		p.log.Warnf("structured completion failed (attempt %d/%d): %v", attempt, retryMaxAttempts, err)

		if attempt == retryMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff):
		}
	}
	return nil, lastErr
}

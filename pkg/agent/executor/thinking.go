package executor

import (
	"strings"

	"github.com/entrhq/surf/pkg/agent/channel"
	"github.com/entrhq/surf/pkg/types"
	"github.com/google/uuid"
)

// thinkingStream accumulates streamed model text and republishes the full
// accumulated content under one stable message ID, so subscribers render a
// single live-updating message instead of a flood of fragments.
type thinkingStream struct {
	id string
	ch *channel.Channel
	b  strings.Builder
}

func newThinkingStream(ch *channel.Channel) *thinkingStream {
	return &thinkingStream{
		id: uuid.New().String(),
		ch: ch,
	}
}

// Append adds a delta and publishes the accumulated content so far.
func (t *thinkingStream) Append(delta string) {
	t.b.WriteString(delta)
	t.ch.PublishMessage(types.NewThinkingEvent(t.id, t.b.String()))
}

// Content returns everything accumulated so far.
func (t *thinkingStream) Content() string {
	return t.b.String()
}

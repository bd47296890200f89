package history

import (
	"strings"
	"testing"

	"github.com/entrhq/surf/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolResultAdjacency(t *testing.T) {
	m := NewManager()
	m.AddSystem("you are a browser agent")
	m.AddHuman("open example.com")

	calls := []types.ToolCallRef{
		{ID: "call-1", Name: "navigate", Arguments: `{"url":"https://example.com"}`},
		{ID: "call-2", Name: "extract_content", Arguments: `{}`},
	}
	m.AddAIWithToolCalls("", calls)

	// A screenshot produced by a tool mid-batch is queued, not appended.
	m.QueueScreenshot("screenshot: 34KB jpeg")

	m.AddTool(`{"ok":true}`, "call-1")
	m.AddTool(`{"ok":true,"output":"Example Domain"}`, "call-2")
	m.FlushQueue()

	msgs := m.Messages()
	require.Len(t, msgs, 6)

	// Every tool call issued in the turn is answered immediately after the
	// AI message, before the queued screenshot lands.
	assert.Equal(t, types.RoleAI, msgs[2].Role)
	assert.Equal(t, types.RoleTool, msgs[3].Role)
	assert.Equal(t, "call-1", msgs[3].ToolCallID)
	assert.Equal(t, types.RoleTool, msgs[4].Role)
	assert.Equal(t, "call-2", msgs[4].ToolCallID)
	assert.Equal(t, types.MessageTypeScreenshot, msgs[5].Type)
}

func TestFlushQueueIsIdempotent(t *testing.T) {
	m := NewManager()
	m.QueueBrowserState("[1] <a> More information")
	assert.Equal(t, 1, m.PendingCount())

	m.FlushQueue()
	m.FlushQueue()

	assert.Equal(t, 0, m.PendingCount())
	assert.Equal(t, 1, m.Len())
}

func TestRemoveMessagesByType(t *testing.T) {
	m := NewManager()
	m.AddHuman("task")
	m.QueueBrowserState("state v1")
	m.FlushQueue()
	m.QueueScreenshot("shot v1")
	m.FlushQueue()

	// A queued-but-unflushed stale snapshot is removed too.
	m.QueueBrowserState("state v2, never flushed")
	m.RemoveMessagesByType(types.MessageTypeBrowserState)
	m.RemoveMessagesByType(types.MessageTypeScreenshot)
	m.FlushQueue()

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "task", msgs[0].Content)
}

func TestFilteredAsString(t *testing.T) {
	m := NewManager()
	m.AddSystem("system prompt")
	m.AddHuman("open example.com")
	m.QueueBrowserState("raw dom state")
	m.FlushQueue()
	m.AddAIWithToolCalls("", []types.ToolCallRef{{ID: "c1", Name: "navigate", Arguments: `{"url":"x"}`}})
	m.AddTool(`{"ok":true}`, "c1")

	s := m.FilteredAsString(types.MessageTypeBrowserState, types.MessageTypeScreenshot)

	assert.NotContains(t, s, "system prompt")
	assert.NotContains(t, s, "raw dom state")
	assert.Contains(t, s, "open example.com")
	assert.Contains(t, s, "called tool navigate")
	assert.Contains(t, s, `{"ok":true}`)
}

func TestMessagesReturnsCopy(t *testing.T) {
	m := NewManager()
	m.AddHuman("a")

	msgs := m.Messages()
	msgs[0] = types.NewHumanMessage("mutated")

	assert.Equal(t, "a", m.Messages()[0].Content)
}

func TestTokenCountFallback(t *testing.T) {
	m := NewManager()
	m.AddHuman(strings.Repeat("word ", 100))

	// No encoding configured: estimate is non-zero and roughly chars/4.
	count := m.TokenCount()
	assert.Greater(t, count, 100)
	assert.Less(t, count, 200)
}

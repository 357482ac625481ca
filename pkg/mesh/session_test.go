package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Creation(t *testing.T) {
	session := NewSession("test-session")

	assert.Equal(t, "test-session", session.ID)
	assert.Equal(t, 0, session.EntryCount())
	assert.True(t, session.QueueEmpty())
	assert.False(t, session.CreatedAt().IsZero())
	assert.Nil(t, session.Task())
}

func TestSession_AddMessage(t *testing.T) {
	session := NewSession("test-session")
	session.AddMessage(NewMessage("Agent1", "Agent2", "Hello"))

	require.Equal(t, 1, session.EntryCount())
	entry := session.Entries()[0]
	assert.Equal(t, "Hello", entry.Message.Content)
	assert.False(t, entry.Answered)
}

func TestSession_AddMessageWithResponse(t *testing.T) {
	session := NewSession("test-session")
	session.AddMessageWithResponse(NewMessage("Agent1", "Agent2", "Hello"), "Hi there!")

	require.Equal(t, 1, session.EntryCount())
	entry := session.Entries()[0]
	assert.True(t, entry.Answered)
	assert.Equal(t, "Hi there!", entry.Response)
}

func TestSession_SetLastResponse(t *testing.T) {
	session := NewSession("test-session")

	// No-op on an empty log.
	session.SetLastResponse("ignored")
	assert.Equal(t, 0, session.EntryCount())

	session.AddMessage(NewMessage("Agent1", "Agent2", "Hello"))
	session.SetLastResponse("Response!")

	entry := session.Entries()[0]
	require.True(t, entry.Answered)
	assert.Equal(t, "Response!", entry.Response)

	// The response is set at most once.
	session.SetLastResponse("Overwrite attempt")
	assert.Equal(t, "Response!", session.Entries()[0].Response)
}

func TestSession_QueueFIFO(t *testing.T) {
	session := NewSession("test-session")

	first := NewMessage("A", "B", "first")
	second := NewMessage("A", "B", "second")
	third := NewMessage("A", "B", "third")
	session.PushMessage(first)
	session.PushMessage(second)
	session.PushMessage(third)
	assert.Equal(t, 3, session.QueueLen())

	for _, want := range []Message{first, second, third} {
		got, ok := session.PopMessage()
		require.True(t, ok)
		assert.Equal(t, want.ID, got.ID)
	}

	_, ok := session.PopMessage()
	assert.False(t, ok)
	assert.True(t, session.QueueEmpty())
}

func TestSession_Clear(t *testing.T) {
	session := NewSession("test-session")
	session.AddMessage(NewMessage("A", "B", "one"))
	session.PushMessage(NewMessage("A", "B", "pending"))

	session.Clear()

	assert.Equal(t, 0, session.EntryCount())
	assert.Equal(t, 1, session.QueueLen())
}

func TestSession_Snapshot(t *testing.T) {
	session := NewSession("test-session")
	session.AddMessage(NewMessage("A", "B", "logged"))
	session.PushMessage(NewMessage("A", "B", "pending"))
	session.task = newTask("B", "test-session")

	snap := session.Snapshot()

	assert.Equal(t, session.ID, snap.ID)
	assert.Equal(t, session.CreatedAt(), snap.CreatedAt())
	assert.Equal(t, 1, snap.EntryCount())
	assert.Equal(t, 1, snap.QueueLen())
	assert.Nil(t, snap.Task())

	// Frozen copy: mutations do not leak back.
	snap.AddMessage(NewMessage("A", "B", "extra"))
	snap.PushMessage(NewMessage("A", "B", "extra pending"))
	assert.Equal(t, 1, session.EntryCount())
	assert.Equal(t, 1, session.QueueLen())
}

package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndQuery(t *testing.T) {
	s := newStore(t)

	s.Record(Entry{
		SessionID:  "s1",
		Event:      EventDispatch,
		ToolName:   "read_file",
		Detail:     "main.go",
		Success:    true,
		DurationMs: 4,
	})
	s.Record(Entry{
		SessionID: "s1",
		Event:     EventGate,
		ToolName:  "run_terminal_command",
		Detail:    "outbound network or remote probe command",
	})

	entries, err := s.RecentBySession("s1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	assert.Equal(t, EventGate, entries[0].Event)
	assert.Equal(t, EventDispatch, entries[1].Event)
	assert.True(t, entries[1].Success)
	assert.Equal(t, "main.go", entries[1].Detail)
}

func TestRecentBySessionIsolation(t *testing.T) {
	s := newStore(t)

	s.Record(Entry{SessionID: "s1", Event: EventDispatch, ToolName: "a"})
	s.Record(Entry{SessionID: "s2", Event: EventDispatch, ToolName: "b"})

	entries, err := s.RecentBySession("s1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].ToolName)
}

func TestRecentBySessionLimit(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 5; i++ {
		s.Record(Entry{SessionID: "s1", Event: EventDispatch, ToolName: "t"})
	}

	entries, err := s.RecentBySession("s1", 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestCountByEvent(t *testing.T) {
	s := newStore(t)

	s.Record(Entry{SessionID: "s1", Event: EventGate, ToolName: "run_terminal_command"})
	s.Record(Entry{SessionID: "s1", Event: EventApproval, ToolName: "run_terminal_command", Detail: "approved"})
	s.Record(Entry{SessionID: "s1", Event: EventGate, ToolName: "run_terminal_command"})

	n, err := s.CountByEvent(EventGate)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTimestampDefaulted(t *testing.T) {
	s := newStore(t)
	s.Record(Entry{SessionID: "s1", Event: EventDispatch, ToolName: "t"})

	entries, err := s.RecentBySession("s1", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.WithinDuration(t, time.Now(), entries[0].Timestamp, time.Minute)
}

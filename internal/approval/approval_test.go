package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAndApprove(t *testing.T) {
	s := NewStation()

	p, err := s.Submit("s1", "run_terminal_command", map[string]any{"command": "git push"}, "environment-modifying operation")
	require.NoError(t, err)
	assert.Equal(t, DecisionNone, p.Decision)
	assert.True(t, s.HasPending("s1"))

	resolved, err := s.Approve("s1")
	require.NoError(t, err)
	assert.Equal(t, DecisionApproved, resolved.Decision)
	assert.Equal(t, "run_terminal_command", resolved.ToolName)
	assert.False(t, s.HasPending("s1"))
}

func TestSubmitAndReject(t *testing.T) {
	s := NewStation()

	_, err := s.Submit("s1", "run_terminal_command", nil, "wide recursive delete")
	require.NoError(t, err)

	resolved, err := s.Reject("s1")
	require.NoError(t, err)
	assert.Equal(t, DecisionRejected, resolved.Decision)
	assert.False(t, s.HasPending("s1"))
}

func TestSecondSubmitFails(t *testing.T) {
	s := NewStation()

	_, err := s.Submit("s1", "t1", nil, "r1")
	require.NoError(t, err)

	_, err = s.Submit("s1", "t2", nil, "r2")
	assert.ErrorIs(t, err, ErrAlreadyPending)

	// the original entry is untouched
	p := s.Pending("s1")
	require.NotNil(t, p)
	assert.Equal(t, "t1", p.ToolName)
}

func TestSessionsAreIndependent(t *testing.T) {
	s := NewStation()

	_, err := s.Submit("s1", "t1", nil, "r1")
	require.NoError(t, err)
	_, err = s.Submit("s2", "t2", nil, "r2")
	require.NoError(t, err)

	_, err = s.Approve("s1")
	require.NoError(t, err)
	assert.True(t, s.HasPending("s2"))
}

func TestResolveWithoutPending(t *testing.T) {
	s := NewStation()

	_, err := s.Approve("ghost")
	assert.ErrorIs(t, err, ErrNothingPending)
	_, err = s.Reject("ghost")
	assert.ErrorIs(t, err, ErrNothingPending)
}

func TestResubmitAfterResolution(t *testing.T) {
	s := NewStation()

	_, err := s.Submit("s1", "t1", nil, "r1")
	require.NoError(t, err)
	_, err = s.Reject("s1")
	require.NoError(t, err)

	// back to NONE: a new dangerous call can be submitted
	_, err = s.Submit("s1", "t2", nil, "r2")
	assert.NoError(t, err)
}

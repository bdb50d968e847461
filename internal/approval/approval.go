// Package approval holds the per-session approval state machine:
// NONE -> PENDING -> {APPROVED, REJECTED} -> NONE. A dangerous command
// suspends its tool call into a pending entry; exactly one external
// decision resolves it.
package approval

import (
	"errors"
	"fmt"
	"sync"

	"codebox/internal/logging"
)

// Decision is the resolution state of a pending entry.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionApproved
	DecisionRejected
)

func (d Decision) String() string {
	switch d {
	case DecisionApproved:
		return "approved"
	case DecisionRejected:
		return "rejected"
	default:
		return "none"
	}
}

// Pending is one suspended tool call awaiting a decision.
type Pending struct {
	SessionID string
	ToolName  string
	Args      map[string]any
	Reason    string
	Decision  Decision
}

// ErrAlreadyPending indicates a second dangerous call arrived while one is
// outstanding. The agent loop must not dispatch concurrent tool calls
// against the same session; this surfaces that caller-ordering bug.
var ErrAlreadyPending = errors.New("approval already pending for session")

// ErrNothingPending indicates a decision arrived with no pending entry.
var ErrNothingPending = errors.New("no pending approval for session")

// Station tracks at most one pending approval per session.
type Station struct {
	mu      sync.Mutex
	pending map[string]*Pending
}

// NewStation creates an empty approval station.
func NewStation() *Station {
	return &Station{pending: make(map[string]*Pending)}
}

// Submit suspends a tool call into a pending entry for the session.
func (s *Station) Submit(sessionID, toolName string, args map[string]any, reason string) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pending[sessionID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPending, sessionID)
	}

	p := &Pending{
		SessionID: sessionID,
		ToolName:  toolName,
		Args:      args,
		Reason:    reason,
	}
	s.pending[sessionID] = p
	logging.Approval("pending approval: session=%s tool=%s reason=%s", sessionID, toolName, reason)
	return p, nil
}

// Pending returns the outstanding entry for a session, or nil.
func (s *Station) Pending(sessionID string) *Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[sessionID]
}

// HasPending reports whether a session has an outstanding entry.
func (s *Station) HasPending(sessionID string) bool {
	return s.Pending(sessionID) != nil
}

// Approve resolves the pending entry, releasing the suspended call.
func (s *Station) Approve(sessionID string) (*Pending, error) {
	return s.resolve(sessionID, DecisionApproved)
}

// Reject resolves the pending entry; the call is not executed.
func (s *Station) Reject(sessionID string) (*Pending, error) {
	return s.resolve(sessionID, DecisionRejected)
}

// resolve removes the entry and returns it with the decision set, so the
// session is back to NONE once the caller acts on the result.
func (s *Station) resolve(sessionID string, d Decision) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNothingPending, sessionID)
	}
	delete(s.pending, sessionID)
	p.Decision = d
	logging.Approval("resolved approval: session=%s tool=%s decision=%s", sessionID, p.ToolName, d)
	return p, nil
}

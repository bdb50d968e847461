// Package driver hosts the interactive wait loop: a tool call runs as a
// cancellable task off the interactive thread while the frontend polls for
// a cancel keystroke or the session entering approval-pending state.
package driver

import (
	"context"
	"sync"
	"time"

	"codebox/internal/approval"
	"codebox/internal/logging"
)

// Task is a cancellable in-flight computation.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result string
	err    error
}

// Go runs fn on its own goroutine and returns a handle to it. The context
// handed to fn is cancelled by Cancel.
func Go(ctx context.Context, fn func(ctx context.Context) (string, error)) *Task {
	taskCtx, cancel := context.WithCancel(ctx)
	t := &Task{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		result, err := fn(taskCtx)
		t.mu.Lock()
		t.result, t.err = result, err
		t.mu.Unlock()
	}()
	return t
}

// Cancel disposes the in-flight computation. Tool side effects already
// committed are not rolled back.
func (t *Task) Cancel() {
	t.cancel()
}

// IsDone reports whether the computation finished.
func (t *Task) IsDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task finishes or the timeout elapses. The third
// return is false on timeout.
func (t *Task) Wait(timeout time.Duration) (string, error, bool) {
	select {
	case <-t.done:
		result, err := t.Result()
		return result, err, true
	case <-time.After(timeout):
		return "", nil, false
	}
}

// Result returns the task's outcome; valid once IsDone reports true.
func (t *Task) Result() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

// Done exposes the completion channel for select-based callers.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Outcome is why an Await call returned.
type Outcome int

const (
	// OutcomeDone means the task finished naturally.
	OutcomeDone Outcome = iota

	// OutcomeCancelled means the user cancelled; the task was disposed.
	OutcomeCancelled

	// OutcomeApprovalPending means the session entered PENDING; the task
	// is suspended, not cancelled, and Await returned without waiting
	// for it.
	OutcomeApprovalPending
)

// pollInterval is the frontend signal-check cadence.
const pollInterval = 30 * time.Millisecond

// Driver ties the wait loop to an approval station.
type Driver struct {
	station  *approval.Station
	interval time.Duration
}

// New creates a driver polling at the default interval.
func New(station *approval.Station) *Driver {
	return &Driver{station: station, interval: pollInterval}
}

// Await blocks until the task completes, the cancel channel fires, or the
// session acquires a pending approval. It blocks on none of the three
// indefinitely: each poll tick re-checks all signals.
func (d *Driver) Await(sessionID string, task *Task, cancelCh <-chan struct{}) Outcome {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-task.Done():
			return OutcomeDone

		case <-cancelCh:
			task.Cancel()
			logging.Driver("task cancelled by user: session=%s", sessionID)
			return OutcomeCancelled

		case <-ticker.C:
			if d.station != nil && d.station.HasPending(sessionID) {
				logging.Driver("wait suspended on pending approval: session=%s", sessionID)
				return OutcomeApprovalPending
			}
		}
	}
}

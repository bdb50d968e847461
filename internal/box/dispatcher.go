package box

import (
	"context"
	"fmt"

	"codebox/internal/approval"
	"codebox/internal/audit"
	"codebox/internal/gate"
	"codebox/internal/logging"
	"codebox/internal/tools"
)

// Dispatcher is the single entry point the agent loop calls tools through.
// Gated tools pass their command text through the gate first; a flagged
// command is suspended into the approval station instead of executing.
type Dispatcher struct {
	manager *Manager
	gate    *gate.Gate
	station *approval.Station
	trail   *audit.Store // nil when auditing is disabled
}

// NewDispatcher wires the dispatcher. trail may be nil.
func NewDispatcher(manager *Manager, g *gate.Gate, station *approval.Station, trail *audit.Store) *Dispatcher {
	return &Dispatcher{manager: manager, gate: g, station: station, trail: trail}
}

// Dispatch runs one tool call for a session. When the gate flags a gated
// tool, the call is suspended: the returned result carries the approval
// prompt text and the session holds a PENDING entry until resolved.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID, toolName string, args map[string]any) (*tools.Result, error) {
	b, err := d.manager.Box(sessionID)
	if err != nil {
		return nil, err
	}

	tool, err := b.Registry.Get(toolName)
	if err != nil {
		return &tools.Result{ToolName: toolName, Error: err}, nil
	}

	if tool.Gated {
		command := tools.StringArg(args, "command")
		if reason := d.gate.Evaluate(command); reason != "" {
			d.record(audit.Entry{
				SessionID: sessionID,
				Event:     audit.EventGate,
				ToolName:  toolName,
				Detail:    reason,
			})
			if _, err := d.station.Submit(sessionID, toolName, args, reason); err != nil {
				return nil, err
			}
			return &tools.Result{
				ToolName: toolName,
				Output:   fmt.Sprintf("Command requires approval: %s (%s)", command, reason),
			}, nil
		}
	}

	result := b.Registry.Execute(ctx, toolName, args)
	d.record(audit.Entry{
		SessionID:  sessionID,
		Event:      audit.EventDispatch,
		ToolName:   toolName,
		Detail:     tools.StringArg(args, "command"),
		Success:    result.IsSuccess(),
		DurationMs: result.DurationMs,
	})
	return result, nil
}

// Resolve applies the user's decision to the session's pending call.
// Approval releases the suspended call to execute now; rejection returns a
// rejection result for the agent loop to observe.
func (d *Dispatcher) Resolve(ctx context.Context, sessionID string, approve bool) (*tools.Result, error) {
	var p *approval.Pending
	var err error
	if approve {
		p, err = d.station.Approve(sessionID)
	} else {
		p, err = d.station.Reject(sessionID)
	}
	if err != nil {
		return nil, err
	}

	d.record(audit.Entry{
		SessionID: sessionID,
		Event:     audit.EventApproval,
		ToolName:  p.ToolName,
		Detail:    p.Decision.String(),
		Success:   approve,
	})

	if !approve {
		logging.Approval("suspended call dropped: session=%s tool=%s", sessionID, p.ToolName)
		return &tools.Result{
			ToolName: p.ToolName,
			Output:   "Command rejected by user.",
		}, nil
	}

	b, err := d.manager.Box(sessionID)
	if err != nil {
		return nil, err
	}
	result := b.Registry.Execute(ctx, p.ToolName, p.Args)
	d.record(audit.Entry{
		SessionID:  sessionID,
		Event:      audit.EventDispatch,
		ToolName:   p.ToolName,
		Detail:     tools.StringArg(p.Args, "command"),
		Success:    result.IsSuccess(),
		DurationMs: result.DurationMs,
	})
	return result, nil
}

func (d *Dispatcher) record(e audit.Entry) {
	if d.trail != nil {
		d.trail.Record(e)
	}
}

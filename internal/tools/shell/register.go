package shell

import (
	"context"

	"codebox/internal/tools"
)

// Register wires the shell runner into a registry. The tool is gated: calls
// pass through the command gate before execution.
func (r *Runner) Register(reg *tools.Registry) error {
	return reg.Register(&tools.Tool{
		Name:        "run_terminal_command",
		Description: "Execute a command in the shell. Never use absolute paths.",
		Category:    tools.CategoryShell,
		Gated:       true,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return r.Run(ctx, tools.StringArg(args, "command"))
		},
		Schema: tools.Schema{
			Required: []string{"command"},
			Properties: map[string]tools.Property{
				"command": {Type: "string", Description: "The command to execute."},
			},
		},
	})
}

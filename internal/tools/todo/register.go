package todo

import (
	"context"

	"codebox/internal/tools"
)

// Register wires the task-list tools into a registry.
func (o *Ops) Register(reg *tools.Registry) error {
	defs := []*tools.Tool{
		{
			Name:        "todoread",
			Description: "Read the session task list. Check it when resuming work and between steps of a multi-step task.",
			Category:    tools.CategoryFile,
			Execute: func(_ context.Context, _ map[string]any) (string, error) {
				return o.Read()
			},
		},
		{
			Name:        "todowrite",
			Description: "Replace the session task list. Use for tasks of three or more steps; keep exactly one item marked in_progress and mark items completed as soon as they finish.",
			Category:    tools.CategoryFile,
			Execute: func(_ context.Context, args map[string]any) (string, error) {
				return o.Write(tools.StringArg(args, "todos"))
			},
			Schema: tools.Schema{
				Required: []string{"todos"},
				Properties: map[string]tools.Property{
					"todos": {Type: "string", Description: "The complete updated markdown task list."},
				},
			},
		},
	}

	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

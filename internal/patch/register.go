package patch

import (
	"context"

	"codebox/internal/tools"
)

const toolDescription = "Edit files with a file-oriented patch format. Each section starts with " +
	"'*** Add File: <path>', '*** Update File: <path>' (optionally followed by '*** Move to: <path>'), " +
	"or '*** Delete File: <path>'. Add sections carry '+'-prefixed content lines. Update sections carry " +
	"one or more blocks delimited by '<<<<<<< SEARCH', '=======', and '>>>>>>> REPLACE'; the SEARCH text " +
	"must match the current file content exactly."

// Register wires the patch engine into a registry.
func (e *Engine) Register(reg *tools.Registry) error {
	return reg.Register(&tools.Tool{
		Name:        "apply_patch",
		Description: toolDescription,
		Category:    tools.CategoryPatch,
		Execute: func(_ context.Context, args map[string]any) (string, error) {
			return e.Apply(tools.StringArg(args, "patch_text"))
		},
		Schema: tools.Schema{
			Required: []string{"patch_text"},
			Properties: map[string]tools.Property{
				"patch_text": {Type: "string", Description: "The full patch text describing all changes."},
			},
		},
	})
}

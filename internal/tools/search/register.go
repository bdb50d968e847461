package search

import (
	"context"

	"codebox/internal/tools"
)

// Register wires the search tools into a registry.
func (o *Ops) Register(reg *tools.Registry) error {
	defs := []*tools.Tool{
		{
			Name:        "grep_search",
			Description: "Recursive content search. Returns 'path:line: content'. Search before guessing file locations.",
			Category:    tools.CategorySearch,
			Execute: func(_ context.Context, args map[string]any) (string, error) {
				return o.Grep(tools.StringArg(args, "query"), tools.StringArg(args, "path"))
			},
			Schema: tools.Schema{
				Required: []string{"query", "path"},
				Properties: map[string]tools.Property{
					"query": {Type: "string", Description: "Literal substring to search for."},
					"path":  {Type: "string", Description: "Directory path relative to the box root, or '.' for the root."},
				},
			},
		},
		{
			Name:        "glob_search",
			Description: "Find files by wildcard pattern (e.g. **/*.go). The most efficient way to scope a file set.",
			Category:    tools.CategorySearch,
			Execute: func(_ context.Context, args map[string]any) (string, error) {
				return o.Glob(tools.StringArg(args, "pattern"), tools.StringArg(args, "path"))
			},
			Schema: tools.Schema{
				Required: []string{"pattern", "path"},
				Properties: map[string]tools.Property{
					"pattern": {Type: "string", Description: "Glob pattern."},
					"path":    {Type: "string", Description: "Directory path relative to the box root, or '.' for the root."},
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

package fsops

import (
	"context"

	"codebox/internal/tools"
)

// Register wires the file-surface tools into a registry.
func (o *Ops) Register(reg *tools.Registry) error {
	defs := []*tools.Tool{
		{
			Name:        "list_files",
			Description: "List directory contents. Recursive mode renders a depth-capped tree.",
			Category:    tools.CategoryFile,
			Execute: func(_ context.Context, args map[string]any) (string, error) {
				return o.List(
					tools.StringArg(args, "path"),
					tools.BoolArg(args, "recursive", false),
					tools.BoolArg(args, "show_hidden", false),
				)
			},
			Schema: tools.Schema{
				Required: []string{"path"},
				Properties: map[string]tools.Property{
					"path":        {Type: "string", Description: "Directory path relative to the box root, or '.' for the root. Do not start with ./"},
					"recursive":   {Type: "boolean", Description: "Render a recursive tree instead of a flat list."},
					"show_hidden": {Type: "boolean", Description: "Include dotfiles."},
				},
			},
		},
		{
			Name:        "read_file",
			Description: "Read file content. Always read before editing to confirm current text, indentation, and line endings. Large files are paged.",
			Category:    tools.CategoryFile,
			Execute: func(_ context.Context, args map[string]any) (string, error) {
				return o.Read(
					tools.StringArg(args, "path"),
					tools.IntArg(args, "start_line", 0),
					tools.IntArg(args, "end_line", 0),
				)
			},
			Schema: tools.Schema{
				Required: []string{"path"},
				Properties: map[string]tools.Property{
					"path":       {Type: "string", Description: "File path relative to the box root. Do not start with ./"},
					"start_line": {Type: "integer", Description: "First line to read (1-based)."},
					"end_line":   {Type: "integer", Description: "Last line to read."},
				},
			},
		},
		{
			Name:        "write_to_file",
			Description: "Create a new file or fully overwrite an existing one.",
			Category:    tools.CategoryFile,
			Execute: func(_ context.Context, args map[string]any) (string, error) {
				return o.Write(tools.StringArg(args, "path"), tools.StringArg(args, "content"))
			},
			Schema: tools.Schema{
				Required: []string{"path", "content"},
				Properties: map[string]tools.Property{
					"path":    {Type: "string", Description: "File path relative to the box root."},
					"content": {Type: "string", Description: "Complete file content."},
				},
			},
		},
		{
			Name:        "str_replace_editor",
			Description: "Exact text replacement. old_str must be unique in the file and carry exact indentation.",
			Category:    tools.CategoryFile,
			Execute: func(_ context.Context, args map[string]any) (string, error) {
				return o.Edit(
					tools.StringArg(args, "path"),
					tools.StringArg(args, "old_str"),
					tools.StringArg(args, "new_str"),
				)
			},
			Schema: tools.Schema{
				Required: []string{"path", "old_str", "new_str"},
				Properties: map[string]tools.Property{
					"path":    {Type: "string", Description: "File path relative to the box root."},
					"old_str": {Type: "string", Description: "Unique text block to replace."},
					"new_str": {Type: "string", Description: "Replacement text."},
				},
			},
		},
		{
			Name:        "undo_edit",
			Description: "Undo the last write_to_file or str_replace_editor on a file.",
			Category:    tools.CategoryFile,
			Execute: func(_ context.Context, args map[string]any) (string, error) {
				return o.Undo(tools.StringArg(args, "path"))
			},
			Schema: tools.Schema{
				Required: []string{"path"},
				Properties: map[string]tools.Property{
					"path": {Type: "string", Description: "File path relative to the box root."},
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

// Package todo implements the per-session task list: a TODO.md file at the
// box root that the agent reads and rewrites as a progress state machine.
package todo

import (
	"os"
	"path/filepath"
	"strings"

	"codebox/internal/logging"
	"codebox/internal/sandbox"
)

const todoFile = "TODO.md"

// Ops holds the task-list surface for one box.
type Ops struct {
	sb *sandbox.Sandbox
}

// New creates the task-list surface over a sandbox.
func New(sb *sandbox.Sandbox) *Ops {
	return &Ops{sb: sb}
}

// Read returns the current task list, or an empty-list hint when no list
// has been written yet.
func (o *Ops) Read() (string, error) {
	target, err := o.sb.Resolve(todoFile, false)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return "[] (task list is empty; use todowrite to plan multi-step work)", nil
	}
	return string(data), nil
}

// Write replaces the task list with the given markdown. The file always
// carries a "# TODO" heading, and TODO.md is added to an existing
// .gitignore so session state never lands in commits.
func (o *Ops) Write(todos string) (string, error) {
	target, err := o.sb.Resolve(todoFile, true)
	if err != nil {
		return "", err
	}

	content := "# TODO\n\n" + strings.TrimSpace(todos) + "\n"
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return "", err
	}
	o.ensureIgnored()
	logging.Tools("task list updated (%d bytes)", len(content))
	return "TODO.md updated. Continue with the task marked in_progress.", nil
}

// ensureIgnored appends TODO.md to the box's .gitignore when one exists and
// does not already list it. Failures are logged, never surfaced.
func (o *Ops) ensureIgnored() {
	gitignore := filepath.Join(o.sb.Root(), ".gitignore")
	data, err := os.ReadFile(gitignore)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == todoFile {
			return
		}
	}

	f, err := os.OpenFile(gitignore, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logging.ToolsWarn("gitignore update failed: %v", err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString("\n# task tracker\n" + todoFile + "\n"); err != nil {
		logging.ToolsWarn("gitignore update failed: %v", err)
	}
}

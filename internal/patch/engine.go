package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codebox/internal/diff"
	"codebox/internal/logging"
	"codebox/internal/sandbox"
)

// fileChange is the fully computed effect of one hunk: everything needed to
// write it to disk. All changes in a patch are computed before any write.
type fileChange struct {
	kind        Kind
	logicalPath string // display path for the summary
	physical    string
	movePhys    string
	newContent  string
	stats       diff.Stats
}

// Engine applies patches inside one box.
type Engine struct {
	sb *sandbox.Sandbox
	de *diff.Engine
}

// NewEngine creates a patch engine over a sandbox.
func NewEngine(sb *sandbox.Sandbox) *Engine {
	return &Engine{sb: sb, de: diff.NewEngine()}
}

// Apply parses and applies a patch. Every section is resolved and computed
// before the first disk write; a parse failure, path violation, or SEARCH
// mismatch therefore leaves the box untouched. Disk failures during the
// write phase do not roll back already-written files: the summary reports
// per-file which writes succeeded and which failed.
func (e *Engine) Apply(patchText string) (string, error) {
	if strings.TrimSpace(patchText) == "" {
		return "", ErrEmptyPatch
	}

	hunks, err := Parse(patchText)
	if err != nil {
		return "", err
	}
	logging.PatchDebug("parsed %d hunks", len(hunks))

	// Stage phase: resolve and compute every change before writing.
	changes := make([]fileChange, 0, len(hunks))
	for _, h := range hunks {
		change, err := e.stage(h)
		if err != nil {
			logging.PatchError("staging failed for %s: %v", h.Path, err)
			return "", err
		}
		changes = append(changes, change)
	}

	// Write phase. Failures here are collected, not rolled back.
	var lines []string
	var failed int
	for _, c := range changes {
		if err := e.writeChange(c); err != nil {
			failed++
			logging.PatchError("write failed for %s: %v", c.logicalPath, err)
			lines = append(lines, fmt.Sprintf("FAILED %s: %v", c.logicalPath, err))
			continue
		}
		lines = append(lines, summaryLine(c))
	}

	if failed > 0 {
		return fmt.Sprintf("Partially applied: %d of %d files failed.\n%s",
			failed, len(changes), strings.Join(lines, "\n")), nil
	}
	logging.Patch("applied patch: %d files", len(changes))
	return "Success. Updated the following files:\n" + strings.Join(lines, "\n"), nil
}

// stage resolves one hunk and computes its file change without writing.
func (e *Engine) stage(h Hunk) (fileChange, error) {
	change := fileChange{kind: h.Kind, logicalPath: h.Path}

	physical, err := e.sb.Resolve(h.Path, true)
	if err != nil {
		return change, err
	}
	change.physical = physical

	switch h.Kind {
	case KindAdd:
		change.newContent = h.NewContent
		change.stats = e.de.LineStats("", change.newContent)

	case KindUpdate:
		data, err := os.ReadFile(physical)
		if err != nil {
			return change, fmt.Errorf("failed to read file to update: %s", h.Path)
		}
		updated, err := applyChunks(h.Path, string(data), h.Chunks)
		if err != nil {
			return change, err
		}
		change.newContent = updated
		change.stats = e.de.LineStats(string(data), updated)

		if h.MovePath != "" {
			movePhys, err := e.sb.Resolve(h.MovePath, true)
			if err != nil {
				return change, err
			}
			change.movePhys = movePhys
			change.logicalPath = h.MovePath
		}

	case KindDelete:
		data, err := os.ReadFile(physical)
		if err != nil {
			return change, fmt.Errorf("failed to read file to delete: %s", h.Path)
		}
		change.stats = e.de.LineStats(string(data), "")
	}
	return change, nil
}

// applyChunks applies SEARCH/REPLACE chunks by exact substring replacement.
// A missing exact match is retried once with both blocks whitespace-trimmed;
// an empty search block appends.
func applyChunks(path, content string, chunks []Chunk) (string, error) {
	for _, c := range chunks {
		if c.Search == "" {
			if content != "" && !strings.HasSuffix(content, "\n") {
				content += "\n"
			}
			content += c.Replace + "\n"
			continue
		}

		if strings.Contains(content, c.Search) {
			content = strings.Replace(content, c.Search, c.Replace, 1)
			continue
		}

		trimmedSearch := strings.TrimSpace(c.Search)
		if trimmedSearch != "" && strings.Contains(content, trimmedSearch) {
			content = strings.Replace(content, trimmedSearch, strings.TrimSpace(c.Replace), 1)
			continue
		}

		return "", &MismatchError{Path: path, Search: c.Search}
	}
	return content, nil
}

// writeChange commits one staged change to disk.
func (e *Engine) writeChange(c fileChange) error {
	if c.kind == KindDelete {
		return os.Remove(c.physical)
	}

	target := c.physical
	if c.movePhys != "" {
		target = c.movePhys
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(target, []byte(c.newContent), 0o644); err != nil {
		return err
	}
	if c.movePhys != "" {
		return os.Remove(c.physical)
	}
	return nil
}

func summaryLine(c fileChange) string {
	switch c.kind {
	case KindAdd:
		return fmt.Sprintf("A %s (+%d)", c.logicalPath, c.stats.Added)
	case KindDelete:
		return fmt.Sprintf("D %s (-%d)", c.logicalPath, c.stats.Removed)
	default:
		return fmt.Sprintf("M %s (+%d -%d)", c.logicalPath, c.stats.Added, c.stats.Removed)
	}
}

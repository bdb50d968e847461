// Package diff computes per-file change statistics using the sergi/go-diff
// library. The patch engine uses these for its summary lines; nothing here
// touches disk.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Stats holds added/removed line counts for one file change.
type Stats struct {
	Added   int
	Removed int
}

// Engine wraps a configured diffmatchpatch instance.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewEngine creates a diff engine tuned for code content.
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0 // accuracy over speed
	return &Engine{dmp: dmp}
}

// LineStats computes added/removed line counts between two contents using
// line-mode diffing, so intra-line edits count as one removal plus one
// addition rather than character noise.
func (e *Engine) LineStats(oldContent, newContent string) Stats {
	if oldContent == newContent {
		return Stats{}
	}

	c1, c2, lineArray := e.dmp.DiffLinesToChars(oldContent, newContent)
	diffs := e.dmp.DiffMain(c1, c2, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	var s Stats
	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			s.Added += n
		case diffmatchpatch.DiffDelete:
			s.Removed += n
		}
	}
	return s
}

// countLines counts content lines, not separators: a fragment without a
// trailing newline is still one line.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

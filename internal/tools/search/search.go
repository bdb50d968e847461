// Package search implements the content and filename search tools: literal
// grep with an output cap, and glob matching via doublestar patterns.
package search

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"codebox/internal/sandbox"
)

const (
	// grepOutputCap bounds grep result size; the walk terminates early
	// once the cap is hit.
	grepOutputCap = 8000

	// globMatchCap bounds glob result count.
	globMatchCap = 500
)

var errCapReached = errors.New("cap reached")

// Ops holds the search surface for one box.
type Ops struct {
	sb *sandbox.Sandbox
}

// New creates the search surface over a sandbox.
func New(sb *sandbox.Sandbox) *Ops {
	return &Ops{sb: sb}
}

// Grep searches all non-ignored files under path for a literal substring,
// returning "path:line: content" lines. Output is capped and the search
// terminates early at the cap.
func (o *Ops) Grep(query, path string) (string, error) {
	target, err := o.sb.Resolve(path, false)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	walkErr := filepath.WalkDir(target, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != target && sandbox.IsIgnored(o.sb.Root(), p) {
				return filepath.SkipDir
			}
			return nil
		}
		if sandbox.IsIgnored(o.sb.Root(), p) {
			return nil
		}
		return o.grepFile(p, target, path, query, &sb)
	})
	if walkErr != nil && !errors.Is(walkErr, errCapReached) {
		return "", walkErr
	}

	if sb.Len() == 0 {
		return "No matches found.", nil
	}
	return sb.String(), nil
}

func (o *Ops) grepFile(file, targetDir, inputPath, query string, sb *strings.Builder) error {
	f, err := os.Open(file)
	if err != nil {
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.Contains(line, query) {
			display := displayPath(o.sb.Root(), inputPath, targetDir, file)
			fmt.Fprintf(sb, "%s:%d: %s\n", display, lineNum, strings.TrimSpace(line))
		}
		if sb.Len() > grepOutputCap {
			return errCapReached
		}
	}
	return nil
}

// Glob finds files matching a doublestar pattern (e.g. **/*.go) under path,
// capped at 500 matches, sorted.
func (o *Ops) Glob(pattern, path string) (string, error) {
	target, err := o.sb.Resolve(path, false)
	if err != nil {
		return "", err
	}

	var results []string
	walkErr := filepath.WalkDir(target, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != target && sandbox.IsIgnored(o.sb.Root(), p) {
				return filepath.SkipDir
			}
			return nil
		}
		if sandbox.IsIgnored(o.sb.Root(), p) {
			return nil
		}

		rel, err := filepath.Rel(target, p)
		if err != nil {
			return nil
		}
		ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("bad glob pattern %q: %w", pattern, err)
		}
		if ok {
			results = append(results, "[FILE] "+displayPath(o.sb.Root(), path, target, p))
		}
		if len(results) >= globMatchCap {
			return errCapReached
		}
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, errCapReached) {
		return "", walkErr
	}

	if len(results) == 0 {
		return "No matching files found.", nil
	}
	sort.Strings(results)
	return strings.Join(results, "\n"), nil
}

// displayPath formats a physical path back to its logical form, keeping the
// @alias prefix for pool searches.
func displayPath(boxRoot, input, targetDir, file string) string {
	rel := func(base string) string {
		r, err := filepath.Rel(base, file)
		if err != nil {
			return filepath.Base(file)
		}
		return filepath.ToSlash(r)
	}
	if strings.HasPrefix(input, "@") {
		return path.Join(filepath.ToSlash(input), rel(targetDir))
	}
	return rel(boxRoot)
}

// Package fsops implements the file-surface tools: listing, bounded reads,
// writes with undo snapshots, exact-match edits, and undo. All paths in and
// out are logical (box-relative or @alias-qualified); physical paths never
// appear in tool output.
package fsops

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"codebox/internal/logging"
	"codebox/internal/pool"
	"codebox/internal/sandbox"
)

const (
	// readWindow bounds an unbounded read_file call.
	readWindow = 500

	// treeMaxDepth caps recursive listings.
	treeMaxDepth = 3
)

// Ops holds the file-surface state for one box: the sandbox and the undo
// snapshots keyed by resolved physical path, so spelling variants of the
// same logical path ("f.txt", "./f.txt") share one record.
type Ops struct {
	sb *sandbox.Sandbox

	mu   sync.Mutex
	undo map[string]string
}

// New creates the file surface over a sandbox.
func New(sb *sandbox.Sandbox) *Ops {
	return &Ops{
		sb:   sb,
		undo: make(map[string]string),
	}
}

// List renders a directory. Flat mode annotates entries with [DIR]/[FILE],
// file sizes, and a marker on capability directories; recursive mode renders
// a depth-capped tree instead.
func (o *Ops) List(path string, recursive, showHidden bool) (string, error) {
	target, err := o.sb.Resolve(path, false)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(target); err != nil {
		return "Error: path does not exist.", nil
	}

	if recursive {
		display := path
		if display == "" || display == "." {
			display = "."
		}
		var sb strings.Builder
		sb.WriteString(display + "\n")
		o.renderTree(target, 0, "", showHidden, &sb)
		return sb.String(), nil
	}
	return o.flatList(target, path, showHidden)
}

func (o *Ops) flatList(target, inputPath string, showHidden bool) (string, error) {
	entries, err := os.ReadDir(target)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, e := range entries {
		name := e.Name()
		full := filepath.Join(target, name)
		if sandbox.IsIgnored(o.sb.Root(), full) {
			continue
		}
		if !showHidden && strings.HasPrefix(name, ".") {
			continue
		}

		display := displayPath(o.sb.Root(), inputPath, target, full)
		if e.IsDir() {
			line := "[DIR] " + display + "/"
			if pool.ManifestFile(full) != "" {
				line += " [capability]"
			}
			lines = append(lines, line)
		} else {
			info, err := e.Info()
			size := int64(0)
			if err == nil {
				size = info.Size()
			}
			lines = append(lines, fmt.Sprintf("[FILE] %s (%.2f KB)", display, float64(size)/1024.0))
		}
	}
	if len(lines) == 0 {
		return "(directory is empty)", nil
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

func (o *Ops) renderTree(dir string, depth int, indent string, showHidden bool, out *strings.Builder) {
	if depth >= treeMaxDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		out.WriteString(indent + "└── [access denied]\n")
		return
	}

	var children []os.DirEntry
	for _, e := range entries {
		if sandbox.IsIgnored(o.sb.Root(), filepath.Join(dir, e.Name())) {
			continue
		}
		if !showHidden && strings.HasPrefix(e.Name(), ".") {
			continue
		}
		children = append(children, e)
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].IsDir() != children[j].IsDir() {
			return children[i].IsDir()
		}
		return children[i].Name() < children[j].Name()
	})

	for i, child := range children {
		last := i == len(children)-1
		branch := "├── "
		childIndent := indent + "│   "
		if last {
			branch = "└── "
			childIndent = indent + "    "
		}
		out.WriteString(indent + branch + child.Name() + "\n")
		if child.IsDir() {
			o.renderTree(filepath.Join(dir, child.Name()), depth+1, childIndent, showHidden, out)
		}
	}
}

// Read returns a bounded window of a file with a header reporting the
// observed range and file size. Line numbers are one-based.
func (o *Ops) Read(path string, startLine, endLine int) (string, error) {
	target, err := o.sb.Resolve(path, false)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(target)
	if err != nil {
		return "Error: file does not exist.", nil
	}
	if info.Size() == 0 {
		return "(file is empty)", nil
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return "", err
	}
	lines := splitLines(string(data))

	start := 0
	if startLine > 0 {
		start = startLine - 1
	}
	end := start + readWindow
	if endLine > 0 {
		end = endLine
	}
	if start >= len(lines) {
		return "Error: start line is beyond end of file.", nil
	}
	if end <= start {
		return "Error: end line must be greater than start line.", nil
	}
	if end > len(lines) {
		end = len(lines)
	}
	window := lines[start:end]

	var sb strings.Builder
	fmt.Fprintf(&sb, "[File: %s (%d - %d, Size: %.2f KB)]\n", path, start+1, start+len(window), float64(info.Size())/1024.0)
	sb.WriteString(strings.Repeat("-", 50) + "\n")
	for i, line := range window {
		fmt.Fprintf(&sb, "%6d | %s\n", start+i+1, line)
	}
	return sb.String(), nil
}

// Write creates or fully overwrites a file, creating parent directories as
// needed. Prior content is snapshotted for undo when the file existed.
func (o *Ops) Write(path, content string) (string, error) {
	target, err := o.sb.Resolve(path, true)
	if err != nil {
		return "", err
	}

	if prev, err := os.ReadFile(target); err == nil {
		o.snapshot(target, string(prev))
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return "", err
	}
	logging.Tools("wrote file: %s (%d bytes)", path, len(content))
	return "File written: " + path, nil
}

// Edit replaces oldText with newText; oldText must match exactly once.
// When the file uses CRLF line endings and oldText arrives with bare LF,
// both blocks are normalized to CRLF before matching.
func (o *Ops) Edit(path, oldText, newText string) (string, error) {
	target, err := o.sb.Resolve(path, true)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return "Error: file does not exist.", nil
	}
	content := string(data)

	finalOld, finalNew := oldText, newText
	if strings.Contains(content, "\r\n") {
		if strings.Contains(finalOld, "\n") && !strings.Contains(finalOld, "\r\n") {
			finalOld = strings.ReplaceAll(finalOld, "\n", "\r\n")
		}
		if strings.Contains(finalNew, "\n") && !strings.Contains(finalNew, "\r\n") {
			finalNew = strings.ReplaceAll(finalNew, "\n", "\r\n")
		}
	}

	first := strings.Index(content, finalOld)
	if first == -1 {
		// Distinguish a genuine miss from a line-ending mismatch: the
		// block may exist once both sides are normalized to LF.
		lfContent := strings.ReplaceAll(content, "\r\n", "\n")
		lfOld := strings.ReplaceAll(oldText, "\r\n", "\n")
		if strings.Contains(lfContent, lfOld) {
			return "Error: text block found only after line-ending normalization. Re-read the file and match its actual line endings.", nil
		}
		return "Error: text block not found. Ensure old_str matches the read_file output exactly, including indentation.", nil
	}
	if strings.LastIndex(content, finalOld) != first {
		return "Error: text block is not unique in the file. Add surrounding context lines.", nil
	}

	o.snapshot(target, content)
	updated := content[:first] + finalNew + content[first+len(finalOld):]
	if err := os.WriteFile(target, []byte(updated), 0o644); err != nil {
		return "", err
	}
	logging.Tools("edited file: %s", path)
	return "File modified: " + path, nil
}

// Undo restores the last snapshot for a path and removes it.
func (o *Ops) Undo(path string) (string, error) {
	target, err := o.sb.Resolve(path, true)
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	prev, ok := o.undo[target]
	delete(o.undo, target)
	o.mu.Unlock()

	if !ok {
		return "Error: no undo record for this file.", nil
	}
	if err := os.WriteFile(target, []byte(prev), 0o644); err != nil {
		return "", err
	}
	logging.Tools("restored file: %s", path)
	return "File content restored.", nil
}

func (o *Ops) snapshot(physical, content string) {
	o.mu.Lock()
	o.undo[physical] = content
	o.mu.Unlock()
}

// splitLines splits on LF while keeping CR handling consistent with the
// read header: a trailing newline does not produce a phantom empty line.
func splitLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// displayPath formats a physical path back to its logical form. Pool paths
// keep their @alias prefix; box paths are root-relative.
func displayPath(boxRoot, inputPath, targetDir, file string) string {
	rel := func(base string) string {
		r, err := filepath.Rel(base, file)
		if err != nil {
			return filepath.Base(file)
		}
		return filepath.ToSlash(r)
	}
	if strings.HasPrefix(inputPath, "@") {
		return path.Join(filepath.ToSlash(inputPath), rel(targetDir))
	}
	return rel(boxRoot)
}

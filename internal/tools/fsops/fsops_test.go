package fsops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codebox/internal/pool"
	"codebox/internal/sandbox"
	"codebox/internal/tools"
)

func newOps(t *testing.T) (*Ops, string) {
	t.Helper()
	root := t.TempDir()
	reg := pool.NewRegistry()
	sb, err := sandbox.New(root, reg)
	require.NoError(t, err)
	return New(sb), root
}

func newOpsWithPool(t *testing.T) (*Ops, string, string) {
	t.Helper()
	root := t.TempDir()
	poolDir := t.TempDir()
	reg := pool.NewRegistry()
	require.NoError(t, reg.RegisterPool("@docs", poolDir, false))
	sb, err := sandbox.New(root, reg)
	require.NoError(t, err)
	return New(sb), root, poolDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestListFlat(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "a.txt"), "hello")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))

	out, err := ops.List(".", false, false)
	require.NoError(t, err)
	assert.Contains(t, out, "[DIR] sub/")
	assert.Contains(t, out, "[FILE] a.txt")
	assert.Contains(t, out, "KB)")
}

func TestListMarksCapabilityDirs(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "video", "SKILL.md"), "# Video\n\nTranscode clips.\n")

	out, err := ops.List(".", false, false)
	require.NoError(t, err)
	assert.Contains(t, out, "[DIR] video/ [capability]")
}

func TestListSkipsIgnoredAndHidden(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "node_modules", "x.js"), "x")
	writeFile(t, filepath.Join(root, ".hidden"), "x")
	writeFile(t, filepath.Join(root, "kept.txt"), "x")

	out, err := ops.List(".", false, false)
	require.NoError(t, err)
	assert.NotContains(t, out, "node_modules")
	assert.NotContains(t, out, ".hidden")
	assert.Contains(t, out, "kept.txt")

	withHidden, err := ops.List(".", false, true)
	require.NoError(t, err)
	assert.Contains(t, withHidden, ".hidden")
}

func TestListRecursiveTree(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "a", "b", "c", "d", "deep.txt"), "x")
	writeFile(t, filepath.Join(root, "top.txt"), "x")

	out, err := ops.List(".", true, false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, ".\n"))
	assert.Contains(t, out, "├── ")
	assert.Contains(t, out, "└── ")
	assert.Contains(t, out, "c")
	// depth cap: children of the third level are not rendered
	assert.NotContains(t, out, "deep.txt")
}

func TestListMissingPath(t *testing.T) {
	ops, _ := newOps(t)
	out, err := ops.List("nope", false, false)
	require.NoError(t, err)
	assert.Equal(t, "Error: path does not exist.", out)
}

func TestListEmptyDir(t *testing.T) {
	ops, _ := newOps(t)
	out, err := ops.List(".", false, false)
	require.NoError(t, err)
	assert.Equal(t, "(directory is empty)", out)
}

func TestReadWindowAndHeader(t *testing.T) {
	ops, root := newOps(t)
	var lines []string
	for i := 1; i <= 600; i++ {
		lines = append(lines, "line")
	}
	writeFile(t, filepath.Join(root, "big.txt"), strings.Join(lines, "\n")+"\n")

	out, err := ops.Read("big.txt", 0, 0)
	require.NoError(t, err)
	assert.Contains(t, out, "[File: big.txt (1 - 500,")
	assert.Contains(t, out, "     1 | line")
	assert.Contains(t, out, "   500 | line")
	assert.NotContains(t, out, "   501 |")
}

func TestReadExplicitRange(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "f.txt"), "one\ntwo\nthree\nfour\n")

	out, err := ops.Read("f.txt", 2, 3)
	require.NoError(t, err)
	assert.Contains(t, out, "[File: f.txt (2 - 3,")
	assert.Contains(t, out, "     2 | two")
	assert.Contains(t, out, "     3 | three")
	assert.NotContains(t, out, "one")
}

func TestReadEmptyFile(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "empty.txt"), "")

	out, err := ops.Read("empty.txt", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "(file is empty)", out)
}

func TestReadStartBeyondEnd(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "f.txt"), "one\n")

	out, err := ops.Read("f.txt", 99, 0)
	require.NoError(t, err)
	assert.Equal(t, "Error: start line is beyond end of file.", out)
}

func TestReadMissingFile(t *testing.T) {
	ops, _ := newOps(t)
	out, err := ops.Read("ghost.txt", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "Error: file does not exist.", out)
}

func TestWriteCreatesParents(t *testing.T) {
	ops, root := newOps(t)

	out, err := ops.Write("deep/nested/f.txt", "content")
	require.NoError(t, err)
	assert.Equal(t, "File written: deep/nested/f.txt", out)

	data, err := os.ReadFile(filepath.Join(root, "deep", "nested", "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestWriteToReadOnlyPoolFails(t *testing.T) {
	ops, _, _ := newOpsWithPool(t)

	_, err := ops.Write("@docs/readme.md", "x")
	var sv *sandbox.SecurityViolation
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, sandbox.ReasonReadOnlyPool, sv.Reason)
}

func TestEditExactlyOnce(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "f.txt"), "alpha\nbeta\ngamma\n")

	out, err := ops.Edit("f.txt", "beta", "BETA")
	require.NoError(t, err)
	assert.Equal(t, "File modified: f.txt", out)

	data, _ := os.ReadFile(filepath.Join(root, "f.txt"))
	assert.Equal(t, "alpha\nBETA\ngamma\n", string(data))
}

func TestEditNotFound(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "f.txt"), "alpha\n")

	out, err := ops.Edit("f.txt", "missing", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "not found")
}

func TestEditAmbiguous(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "f.txt"), "dup\ndup\n")

	out, err := ops.Edit("f.txt", "dup", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "not unique")
}

func TestEditCRLFNormalization(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "f.txt"), "alpha\r\nbeta\r\n")

	// old_str arrives with bare LF; the file uses CRLF
	out, err := ops.Edit("f.txt", "alpha\nbeta", "one\ntwo")
	require.NoError(t, err)
	assert.Equal(t, "File modified: f.txt", out)

	data, _ := os.ReadFile(filepath.Join(root, "f.txt"))
	assert.Equal(t, "one\r\ntwo\r\n", string(data))
}

func TestEditLineEndingMismatchIsDistinct(t *testing.T) {
	ops, root := newOps(t)
	// file uses LF but old_str arrives with CRLF: the CRLF-adapt pass
	// cannot help, yet LF-normalized both sides do match
	writeFile(t, filepath.Join(root, "f.txt"), "alpha\nbeta\n")

	out, err := ops.Edit("f.txt", "alpha\r\nbeta", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "line-ending normalization")
}

func TestEditSecondApplyFailsNotFound(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "f.txt"), "old value\n")

	_, err := ops.Edit("f.txt", "old value", "new value")
	require.NoError(t, err)

	out, err := ops.Edit("f.txt", "old value", "new value")
	require.NoError(t, err)
	assert.Contains(t, out, "not found")
}

func TestWriteUndoRoundTrip(t *testing.T) {
	ops, root := newOps(t)
	original := "line one\r\nline two\nmixed endings\n"
	writeFile(t, filepath.Join(root, "f.txt"), original)

	_, err := ops.Write("f.txt", "overwritten")
	require.NoError(t, err)

	out, err := ops.Undo("f.txt")
	require.NoError(t, err)
	assert.Equal(t, "File content restored.", out)

	data, _ := os.ReadFile(filepath.Join(root, "f.txt"))
	assert.Equal(t, original, string(data))
}

func TestUndoWithoutRecord(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "f.txt"), "x")

	out, err := ops.Undo("f.txt")
	require.NoError(t, err)
	assert.Equal(t, "Error: no undo record for this file.", out)
}

func TestUndoConsumesRecord(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "f.txt"), "v1")

	_, err := ops.Write("f.txt", "v2")
	require.NoError(t, err)
	_, err = ops.Undo("f.txt")
	require.NoError(t, err)

	out, err := ops.Undo("f.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "no undo record")
}

func TestUndoMatchesPathSpellingVariants(t *testing.T) {
	ops, root := newOps(t)
	writeFile(t, filepath.Join(root, "f.txt"), "v1")

	_, err := ops.Write("f.txt", "v2")
	require.NoError(t, err)

	// A different spelling of the same logical path hits the same record.
	out, err := ops.Undo("./f.txt")
	require.NoError(t, err)
	assert.Equal(t, "File content restored.", out)

	data, _ := os.ReadFile(filepath.Join(root, "f.txt"))
	assert.Equal(t, "v1", string(data))
}

func TestPoolDisplayPaths(t *testing.T) {
	ops, _, poolDir := newOpsWithPool(t)
	writeFile(t, filepath.Join(poolDir, "guide.md"), "x")

	out, err := ops.List("@docs", false, false)
	require.NoError(t, err)
	assert.Contains(t, out, "[FILE] @docs/guide.md")
	assert.NotContains(t, out, poolDir)
}

func TestPoolSubdirectoryDisplayPaths(t *testing.T) {
	ops, _, poolDir := newOpsWithPool(t)
	writeFile(t, filepath.Join(poolDir, "sub", "guide.md"), "x")

	// Listing a pool subdirectory must report paths that resolve back
	// through the same subdirectory.
	out, err := ops.List("@docs/sub", false, false)
	require.NoError(t, err)
	assert.Contains(t, out, "[FILE] @docs/sub/guide.md")

	read, err := ops.Read("@docs/sub/guide.md", 0, 0)
	require.NoError(t, err)
	assert.Contains(t, read, "x")
}

func TestRegisterWiresAllTools(t *testing.T) {
	ops, _ := newOps(t)
	reg := tools.NewRegistry()
	require.NoError(t, ops.Register(reg))

	for _, name := range []string{"list_files", "read_file", "write_to_file", "str_replace_editor", "undo_edit"} {
		assert.True(t, reg.Has(name), name)
	}
}

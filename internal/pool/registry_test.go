package pool

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0644))
}

func TestRegisterPoolAndLookup(t *testing.T) {
	root := t.TempDir()
	r := NewRegistry()

	require.NoError(t, r.RegisterPool("docs", root, false))

	// Alias is normalized to the @ form.
	got, writable, ok := r.Lookup("@docs")
	require.True(t, ok)
	assert.False(t, writable)
	assert.Equal(t, root, got)

	_, _, ok = r.Lookup("@missing")
	assert.False(t, ok)
}

func TestRegisterPoolDuplicateAlias(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterPool("@docs", t.TempDir(), false))
	err := r.RegisterPool("docs", t.TempDir(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestScanFindsManifestsFirstMatchWins(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "video"), "# Video\n\nRenders video clips.\n")
	// A nested manifest below a matched directory must not be discovered.
	writeManifest(t, filepath.Join(root, "video", "inner"), "# Inner\n\nHidden.\n")
	writeManifest(t, filepath.Join(root, "audio", "mix"), "# Mix\n\nMixes audio tracks.\n")

	r := NewRegistry()
	require.NoError(t, r.RegisterPool("@shared", root, false))

	ms := r.Manifests()
	require.Len(t, ms, 2)
	assert.Equal(t, "@shared/audio/mix", ms[0].AliasPath)
	assert.Equal(t, "@shared/video", ms[1].AliasPath)
	assert.Equal(t, "Mixes audio tracks.", ms[0].Description)
}

func TestScanDepthBound(t *testing.T) {
	root := t.TempDir()
	// Depth 3 is found, depth 4 is not.
	writeManifest(t, filepath.Join(root, "a", "b", "c"), "# C\n\nAt depth three.\n")
	writeManifest(t, filepath.Join(root, "x", "y", "z", "w"), "# W\n\nToo deep.\n")

	r := NewRegistry()
	require.NoError(t, r.RegisterPool("@p", root, false))

	ms := r.Manifests()
	require.Len(t, ms, 1)
	assert.Equal(t, "@p/a/b/c", ms[0].AliasPath)
}

func TestScanSkipsDotDirs(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, ".hidden", "skill"), "# S\n\nHidden pool dir.\n")

	r := NewRegistry()
	require.NoError(t, r.RegisterPool("@p", root, false))
	assert.Zero(t, r.Count())
}

func TestManifestAtPoolRoot(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "# Root skill\n\nThe pool itself is a capability.\n")

	r := NewRegistry()
	require.NoError(t, r.RegisterPool("@solo", root, false))

	ms := r.Manifests()
	require.Len(t, ms, 1)
	assert.Equal(t, "@solo", ms[0].AliasPath)
}

func TestManifestFileCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skill.md"), []byte("# X\n\nLower case name.\n"), 0644))
	assert.NotEmpty(t, ManifestFile(dir))

	empty := t.TempDir()
	assert.Empty(t, ManifestFile(empty))
}

func TestRefreshReplacesSnapshotWholesale(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "one"), "# One\n\nFirst.\n")

	r := NewRegistry()
	require.NoError(t, r.RegisterPool("@p", root, false))
	require.Equal(t, 1, r.Count())

	// Remove the manifest and add another; refresh must reflect both changes.
	require.NoError(t, os.Remove(filepath.Join(root, "one", "SKILL.md")))
	writeManifest(t, filepath.Join(root, "two"), "# Two\n\nSecond.\n")

	n := r.Refresh()
	assert.Equal(t, 1, n)
	ms := r.Manifests()
	require.Len(t, ms, 1)
	assert.Equal(t, "@p/two", ms[0].AliasPath)
}

func TestParseDescriptionFrontMatter(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "SKILL.md")
	content := "---\nname: video\ndescription: \"Creates short video clips from stills.\"\n---\n# Video\n\nBody text.\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	assert.Equal(t, "Creates short video clips from stills.", ParseDescription(file))
}

func TestParseDescriptionHeadingParagraph(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "SKILL.md")
	content := "# Video tools\n\n> quoted note\n\nTurns image sequences into clips.\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	assert.Equal(t, "Turns image sequences into clips.", ParseDescription(file))
}

func TestParseDescriptionFallbackLine(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "SKILL.md")
	content := "- bullet\nplain first line\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	assert.Equal(t, "plain first line", ParseDescription(file))
}

func TestParseDescriptionTruncates(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "SKILL.md")
	long := strings.Repeat("x", 500)
	require.NoError(t, os.WriteFile(file, []byte("# T\n\n"+long+"\n"), 0644))

	desc := ParseDescription(file)
	assert.Len(t, desc, 150)
	assert.True(t, strings.HasSuffix(desc, "..."))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "DOCS", EnvName("@docs"))
	assert.Equal(t, "POOL1", EnvName("pool1"))
}

func TestDirtyCacheRescansLazily(t *testing.T) {
	root := t.TempDir()
	r := NewRegistry()
	require.NoError(t, r.RegisterPool("@p", root, false))
	require.Zero(t, r.Count())

	writeManifest(t, root, "# New\n\nAppeared at runtime.\n")
	r.markDirty()

	// The next snapshot read performs the rescan.
	require.Len(t, r.Manifests(), 1)
}

func TestWatcherStartStop(t *testing.T) {
	root := t.TempDir()
	r := NewRegistry()
	require.NoError(t, r.RegisterPool("@p", root, false))

	require.NoError(t, r.StartWatching())
	r.StopWatching()

	// Stopping twice is harmless.
	r.StopWatching()
}

package sandbox

import (
	"path/filepath"
	"strings"
)

// defaultIgnores lists directory/file names skipped by listing and search
// operations. This is a noise filter, not a security boundary.
var defaultIgnores = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	".codebox":     true,
	".DS_Store":    true,
	"node_modules": true,
	"__pycache__":  true,
	"vendor":       true,
	"target":       true,
	"dist":         true,
}

// IsIgnored reports whether any segment of path (taken relative to root when
// absolute) is in the ignore set.
func IsIgnored(root, path string) bool {
	name := filepath.Base(path)
	if defaultIgnores[name] {
		return true
	}

	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(root, path)
		if err != nil {
			return false
		}
		rel = r
	}
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		if defaultIgnores[seg] {
			return true
		}
	}
	return false
}

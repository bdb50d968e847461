// Package sandbox resolves logical paths (box-relative or @alias-qualified)
// to physical paths, enforcing containment and read/write policy.
//
// This is a policy boundary, not a kernel sandbox: it protects against
// accidental path misuse by a cooperating caller, not a hostile subprocess.
package sandbox

import (
	"path/filepath"
	"strings"
)

// PoolLookup supplies pool alias bindings to the sandbox. Implemented by
// pool.Registry; decoupled here so this package has no dependencies.
type PoolLookup interface {
	// Lookup returns the physical root and write policy for an alias
	// (including the @ prefix). ok is false for unknown aliases.
	Lookup(alias string) (root string, writable bool, ok bool)
}

// Sandbox binds one box root to a pool lookup.
type Sandbox struct {
	root  string
	pools PoolLookup
}

// New creates a sandbox for the given box root. The root is made absolute
// and cleaned once; every resolution is checked against it.
func New(root string, pools PoolLookup) (*Sandbox, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Sandbox{root: filepath.Clean(abs), pools: pools}, nil
}

// Root returns the physical box root.
func (s *Sandbox) Root() string {
	return s.root
}

// Resolve maps a logical path to a physical one.
//
// "." or "" resolve to the box root. "@alias/..." resolves against the pool
// registry and fails with SecurityViolation on an unknown alias or a write
// to a read-only pool. Anything else resolves relative to the box root and
// must normalize to a descendant of it.
func (s *Sandbox) Resolve(path string, writeIntent bool) (string, error) {
	if path == "" || path == "." {
		return s.root, nil
	}

	if strings.HasPrefix(path, "@") {
		return s.resolvePool(path, writeIntent)
	}

	if filepath.IsAbs(path) || isWindowsAbs(path) {
		return "", &SecurityViolation{Reason: ReasonPathEscape, Path: path}
	}

	clean := strings.TrimPrefix(path, "./")
	target := filepath.Clean(filepath.Join(s.root, filepath.FromSlash(clean)))
	if !isDescendant(s.root, target) {
		return "", &SecurityViolation{Reason: ReasonPathEscape, Path: path}
	}
	return target, nil
}

func (s *Sandbox) resolvePool(path string, writeIntent bool) (string, error) {
	alias := SplitAlias(path)
	if s.pools == nil {
		return "", &SecurityViolation{Reason: ReasonUnknownPool, Path: path}
	}
	root, writable, ok := s.pools.Lookup(alias)
	if !ok {
		return "", &SecurityViolation{Reason: ReasonUnknownPool, Path: path}
	}
	if writeIntent && !writable {
		return "", &SecurityViolation{Reason: ReasonReadOnlyPool, Path: path}
	}

	sub := strings.TrimPrefix(path, alias)
	sub = strings.TrimLeft(sub, "/\\")
	target := filepath.Clean(filepath.Join(root, filepath.FromSlash(sub)))
	if !isDescendant(root, target) {
		return "", &SecurityViolation{Reason: ReasonPathEscape, Path: path}
	}
	return target, nil
}

// SplitAlias returns the leading @alias segment of a logical path
// ("@docs/readme.md" -> "@docs").
func SplitAlias(path string) string {
	if i := strings.IndexAny(path, "/\\"); i >= 0 {
		return path[:i]
	}
	return path
}

// isDescendant reports whether target equals root or lives below it.
func isDescendant(root, target string) bool {
	if target == root {
		return true
	}
	return strings.HasPrefix(target, root+string(filepath.Separator))
}

// isWindowsAbs catches drive-letter prefixes even on non-Windows hosts, so
// a model-supplied "C:\..." never silently joins onto the box root.
func isWindowsAbs(path string) bool {
	if len(path) < 3 {
		return false
	}
	c := path[0]
	isLetter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
	return isLetter && path[1] == ':' && (path[2] == '\\' || path[2] == '/')
}

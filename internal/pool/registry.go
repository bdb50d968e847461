// Package pool maps @alias pool mounts to physical roots and owns
// capability-manifest discovery: each pool is scanned to a bounded depth for
// directories carrying a SKILL.md descriptor, and the results are cached as
// immutable snapshots replaced wholesale on refresh.
package pool

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"codebox/internal/logging"
)

// Pool is one alias binding.
type Pool struct {
	Alias    string // with the @ prefix
	Root     string // absolute physical root
	Writable bool
}

// Manifest is one discovered capability directory.
type Manifest struct {
	// AliasPath is the logical location, e.g. "@shared/video".
	AliasPath string
	// RealPath is the physical directory.
	RealPath string
	// Description is the one-liner extracted from the descriptor file.
	Description string
}

// Registry owns the alias map and the manifest cache for one box scope.
// It is explicit instance state: multiple registries coexist in a process
// without cross-talk.
type Registry struct {
	mu        sync.RWMutex
	pools     map[string]Pool
	manifests map[string]Manifest
	dirty     bool

	watcher *watcher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		pools:     make(map[string]Pool),
		manifests: make(map[string]Manifest),
	}
}

// NormalizeAlias ensures the @ prefix.
func NormalizeAlias(alias string) string {
	if strings.HasPrefix(alias, "@") {
		return alias
	}
	return "@" + alias
}

// EnvName returns the environment variable name a pool alias maps to in
// spawned shells: the uppercased alias without the @ prefix.
func EnvName(alias string) string {
	return strings.ToUpper(strings.TrimPrefix(alias, "@"))
}

// RegisterPool binds an alias to a physical root and scans it for
// capability manifests. Aliases are unique; re-registering one fails.
func (r *Registry) RegisterPool(alias, dir string, writable bool) error {
	key := NormalizeAlias(alias)
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("bad pool root %q: %w", dir, err)
	}
	abs = filepath.Clean(abs)

	r.mu.Lock()
	if _, exists := r.pools[key]; exists {
		r.mu.Unlock()
		return fmt.Errorf("pool alias %s already registered", key)
	}
	r.pools[key] = Pool{Alias: key, Root: abs, Writable: writable}
	r.mu.Unlock()

	found := scanPool(key, abs)
	r.mu.Lock()
	for _, m := range found {
		r.manifests[m.AliasPath] = m
	}
	r.mu.Unlock()

	logging.Pools("registered pool %s -> %s (writable=%v, %d manifests)", key, abs, writable, len(found))

	if r.watcher != nil {
		r.watcher.addRoot(abs)
	}
	return nil
}

// Lookup implements sandbox.PoolLookup.
func (r *Registry) Lookup(alias string) (string, bool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[alias]
	if !ok {
		return "", false, false
	}
	return p.Root, p.Writable, true
}

// Pools returns a snapshot of all registered pools, sorted by alias.
func (r *Registry) Pools() []Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Pool, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

// Manifests returns the current manifest snapshot sorted by alias path,
// rescanning first if a watcher marked the cache dirty.
func (r *Registry) Manifests() []Manifest {
	r.mu.RLock()
	needsRefresh := r.dirty
	r.mu.RUnlock()
	if needsRefresh {
		r.Refresh()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Manifest, 0, len(r.manifests))
	for _, m := range r.manifests {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AliasPath < out[j].AliasPath })
	return out
}

// Manifest returns one cached manifest by alias path.
func (r *Registry) Manifest(aliasPath string) (Manifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.manifests[aliasPath]
	return m, ok
}

// Count returns the number of cached manifests.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.manifests)
}

// Refresh rescans every pool and replaces the manifest cache wholesale.
// Pools are scanned in parallel; the swap happens once all scans finish.
func (r *Registry) Refresh() int {
	r.mu.RLock()
	pools := make([]Pool, 0, len(r.pools))
	for _, p := range r.pools {
		pools = append(pools, p)
	}
	r.mu.RUnlock()

	var scanMu sync.Mutex
	fresh := make(map[string]Manifest)

	var g errgroup.Group
	for _, p := range pools {
		g.Go(func() error {
			found := scanPool(p.Alias, p.Root)
			scanMu.Lock()
			for _, m := range found {
				fresh[m.AliasPath] = m
			}
			scanMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	r.mu.Lock()
	r.manifests = fresh
	r.dirty = false
	n := len(fresh)
	r.mu.Unlock()

	logging.Pools("manifest cache refreshed: %d entries across %d pools", n, len(pools))
	return n
}

// markDirty flags the manifest cache for lazy rescan on the next read.
func (r *Registry) markDirty() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

// Package box owns the isolation unit: one session identifier bound to a
// working-directory root under <workdir>/boxes/<sessionID>, with a lazily
// built tool surface. Boxes are created on first use and never explicitly
// destroyed; the backing session lifecycle is external.
package box

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"codebox/internal/config"
	"codebox/internal/discovery"
	"codebox/internal/logging"
	"codebox/internal/patch"
	"codebox/internal/pool"
	"codebox/internal/sandbox"
	"codebox/internal/tools"
	"codebox/internal/tools/fsops"
	"codebox/internal/tools/search"
	"codebox/internal/tools/shell"
	"codebox/internal/tools/todo"
)

// Box is one session's working context.
type Box struct {
	SessionID string
	Root      string

	Sandbox   *sandbox.Sandbox
	Registry  *tools.Registry
	Files     *fsops.Ops
	Search    *search.Ops
	Todo      *todo.Ops
	Shell     *shell.Runner
	Patch     *patch.Engine
	Discovery *discovery.Service
}

// Manager lazily creates and caches boxes. Each box gets its own tool
// surface; the pool registry is shared.
type Manager struct {
	cfg   *config.Config
	pools *pool.Registry

	mu    sync.Mutex
	boxes map[string]*Box
}

// NewManager creates a box manager over a shared pool registry.
func NewManager(cfg *config.Config, pools *pool.Registry) *Manager {
	return &Manager{
		cfg:   cfg,
		pools: pools,
		boxes: make(map[string]*Box),
	}
}

// NewSessionID mints a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Box returns the session's box, building it on first use.
func (m *Manager) Box(sessionID string) (*Box, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.boxes[sessionID]; ok {
		return b, nil
	}

	b, err := m.build(sessionID)
	if err != nil {
		return nil, err
	}
	m.boxes[sessionID] = b
	logging.Session("box created: session=%s root=%s", sessionID, b.Root)
	return b, nil
}

// Count returns the number of live boxes.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.boxes)
}

func (m *Manager) build(sessionID string) (*Box, error) {
	root := filepath.Join(m.cfg.WorkDir, "boxes", sessionID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create box root: %w", err)
	}

	sb, err := sandbox.New(root, m.pools)
	if err != nil {
		return nil, err
	}

	b := &Box{
		SessionID: sessionID,
		Root:      sb.Root(),
		Sandbox:   sb,
		Registry:  tools.NewRegistry(),
		Files:     fsops.New(sb),
		Search:    search.New(sb),
		Todo:      todo.New(sb),
		Shell:     shell.NewRunner(sb, m.pools),
		Patch:     patch.NewEngine(sb),
	}

	disc := discovery.NewService(m.pools)
	disc.DynamicThreshold = m.cfg.Discovery.DynamicThreshold
	disc.SearchThreshold = m.cfg.Discovery.SearchThreshold
	disc.ResolvePath = func(p string) (string, error) { return sb.Resolve(p, false) }
	b.Discovery = disc

	if err := b.registerSurface(); err != nil {
		return nil, err
	}
	return b, nil
}

// registerSurface wires every tool into the box registry, including the
// tier-appropriate discovery sub-tools.
func (b *Box) registerSurface() error {
	if err := b.Files.Register(b.Registry); err != nil {
		return err
	}
	if err := b.Search.Register(b.Registry); err != nil {
		return err
	}
	if err := b.Todo.Register(b.Registry); err != nil {
		return err
	}
	if err := b.Shell.Register(b.Registry); err != nil {
		return err
	}
	if err := b.Patch.Register(b.Registry); err != nil {
		return err
	}
	return b.registerDiscoveryTools()
}

// registerDiscoveryTools syncs the discovery sub-tools with the current
// disclosure tier. Called again after refresh, when the tier may change.
func (b *Box) registerDiscoveryTools() error {
	defs := map[string]*tools.Tool{
		"explain_capability": {
			Name:        "explain_capability",
			Description: "Fetch the full manifest of one capability by its alias path (e.g. @shared/video).",
			Category:    tools.CategoryCapability,
			Execute: func(_ context.Context, args map[string]any) (string, error) {
				return b.Discovery.Explain(tools.StringArg(args, "path")), nil
			},
			Schema: tools.Schema{
				Required: []string{"path"},
				Properties: map[string]tools.Property{
					"path": {Type: "string", Description: "Alias-qualified capability path."},
				},
			},
		},
		"list_capabilities": {
			Name:        "list_capabilities",
			Description: "List every available capability with its one-line description.",
			Category:    tools.CategoryCapability,
			Execute: func(_ context.Context, _ map[string]any) (string, error) {
				return b.Discovery.List(), nil
			},
		},
		"search_capabilities": {
			Name:        "search_capabilities",
			Description: "Keyword search over capability names and descriptions.",
			Category:    tools.CategoryCapability,
			Execute: func(_ context.Context, args map[string]any) (string, error) {
				return b.Discovery.Search(tools.StringArg(args, "query")), nil
			},
			Schema: tools.Schema{
				Required: []string{"query"},
				Properties: map[string]tools.Property{
					"query": {Type: "string", Description: "Space-separated keywords."},
				},
			},
		},
	}

	exposed := make(map[string]bool)
	for _, name := range b.Discovery.ExposedTools() {
		exposed[name] = true
	}

	for name, def := range defs {
		if exposed[name] && !b.Registry.Has(name) {
			if err := b.Registry.Register(def); err != nil {
				return err
			}
		}
		if !exposed[name] && b.Registry.Has(name) {
			b.Registry.Unregister(name)
		}
	}
	return nil
}

// RefreshCapabilities rescans the pools and re-syncs the discovery tools
// with the possibly changed tier.
func (b *Box) RefreshCapabilities() (string, error) {
	msg := b.Discovery.Refresh()
	if err := b.registerDiscoveryTools(); err != nil {
		return "", err
	}
	return msg, nil
}

// Instruction renders the per-turn context block: shell environment plus
// the tier-appropriate capability disclosure.
func (b *Box) Instruction() string {
	out := b.Shell.Instruction()
	if disc := b.Discovery.Instruction(); disc != "" {
		out += "\n" + disc
	}
	return out
}

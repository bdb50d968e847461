package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"codebox/internal/logging"
)

// Registry holds the tool surface for one session. Each session builds its
// own registry; nothing here is shared process-wide.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool to the registry. Registering a name twice is an error.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}

	r.tools[tool.Name] = tool
	logging.ToolsDebug("registered tool: %s (category=%s)", tool.Name, tool.Category)
	return nil
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, NotFoundError(name)
	}
	return tool, nil
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListByCategory returns registered tools in the given category, sorted by name.
func (r *Registry) ListByCategory(cat Category) []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Tool
	for _, t := range r.tools {
		if t.Category == cat {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Unregister removes a tool from the registry. Used when the capability
// surface changes tier and discovery sub-tools are swapped out.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Execute runs the named tool with the given arguments, validating required
// arguments first and timing the call.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) *Result {
	start := time.Now()
	result := &Result{ToolName: name}

	tool, err := r.Get(name)
	if err != nil {
		result.Error = err
		result.DurationMs = time.Since(start).Milliseconds()
		return result
	}

	if err := validateArgs(tool, args); err != nil {
		result.Error = err
		result.DurationMs = time.Since(start).Milliseconds()
		return result
	}

	logging.ToolsDebug("executing tool: %s", name)
	output, err := tool.Execute(ctx, args)
	result.Output = output
	result.Error = err
	result.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		logging.ToolsWarn("tool %s failed after %dms: %v", name, result.DurationMs, err)
	} else {
		logging.ToolsDebug("tool %s completed in %dms", name, result.DurationMs)
	}
	return result
}

// validateArgs checks that all required arguments are present.
func validateArgs(tool *Tool, args map[string]any) error {
	for _, req := range tool.Schema.Required {
		if _, ok := args[req]; !ok {
			return MissingArgumentError(tool.Name, req)
		}
	}
	return nil
}

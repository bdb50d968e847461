// Package discovery decides how much of the capability-manifest pool to
// expose to the agent, based purely on how many manifests exist. A handful
// gets inlined wholesale; tens get a compact index plus an explain tool;
// hundreds force keyword search before anything is disclosed.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"codebox/internal/logging"
	"codebox/internal/pool"
)

// Tier is a disclosure strategy.
type Tier int

const (
	// TierInline renders every manifest's full content into the
	// instructions; no extra tool call needed.
	TierInline Tier = iota
	// TierIndexed renders a name+description index and exposes explain.
	TierIndexed
	// TierSearch renders neither content nor index; the agent must search.
	TierSearch
)

func (t Tier) String() string {
	switch t {
	case TierInline:
		return "inline"
	case TierIndexed:
		return "indexed"
	case TierSearch:
		return "search"
	default:
		return "unknown"
	}
}

const (
	searchResultLimit = 15
	sampleFileLimit   = 10
	sampleFileDepth   = 2
)

// Service selects tiers and renders discovery output over one registry.
type Service struct {
	registry *pool.Registry

	// DynamicThreshold is the largest count still inlined in full.
	DynamicThreshold int
	// SearchThreshold is the largest count still indexed.
	SearchThreshold int

	// ResolvePath optionally maps a logical path to a physical one for
	// Explain calls that miss the cache. Usually sandbox.Resolve with
	// read intent.
	ResolvePath func(path string) (string, error)
}

// NewService creates a discovery service with the standard thresholds.
func NewService(registry *pool.Registry) *Service {
	return &Service{
		registry:         registry,
		DynamicThreshold: 8,
		SearchThreshold:  80,
	}
}

// SelectTier picks the disclosure tier for the current manifest count.
// Only the count matters, never manifest size.
func (s *Service) SelectTier() Tier {
	count := s.registry.Count()
	switch {
	case count <= s.DynamicThreshold:
		return TierInline
	case count <= s.SearchThreshold:
		return TierIndexed
	default:
		return TierSearch
	}
}

// ExposedTools names the discovery sub-tools the current tier offers.
func (s *Service) ExposedTools() []string {
	switch s.SelectTier() {
	case TierInline:
		return []string{"explain_capability"}
	case TierIndexed:
		return []string{"explain_capability", "list_capabilities"}
	default:
		return []string{"explain_capability", "list_capabilities", "search_capabilities"}
	}
}

// Instruction renders the tier-appropriate discovery block for prompt
// construction. Returns "" when no manifests exist.
func (s *Service) Instruction() string {
	manifests := s.registry.Manifests()
	if len(manifests) == 0 {
		return ""
	}

	tier := s.SelectTier()
	logging.PoolsDebug("discovery render: %d manifests, tier=%s", len(manifests), tier)

	var sb strings.Builder
	fmt.Fprintf(&sb, "#### Capability library (%d available)\n", len(manifests))

	switch tier {
	case TierInline:
		sb.WriteString("The following capabilities are loaded; their content is the execution standard:\n")
		for _, m := range manifests {
			sb.WriteString(s.renderManifest(m, false))
		}
	case TierIndexed:
		sb.WriteString("Multiple capabilities detected. Call `explain_capability` before acting in a covered domain:\n")
		sb.WriteString("<available_skills>\n")
		for _, m := range manifests {
			fmt.Fprintf(&sb, "  <skill name=%q>%s</skill>\n", m.AliasPath, m.Description)
		}
		sb.WriteString("</available_skills>")
	default:
		sb.WriteString("The capability library is large. Before touching a specific stack:\n")
		sb.WriteString("1. Call `search_capabilities` with domain keywords.\n")
		sb.WriteString("2. Call `explain_capability` on a match to load its full contract.\n")
		sb.WriteString("3. Do not fall back to generic commands without checking for a capability first.")
	}
	return sb.String()
}

// List renders the full alias/description listing.
func (s *Service) List() string {
	manifests := s.registry.Manifests()
	if len(manifests) == 0 {
		return "No capabilities available."
	}
	var sb strings.Builder
	sb.WriteString("Available capabilities:\n")
	for _, m := range manifests {
		fmt.Fprintf(&sb, "- %s: %s\n", m.AliasPath, m.Description)
	}
	return sb.String()
}

// Search matches space-separated keywords (OR, case-insensitive) against
// alias paths and descriptions, capped at searchResultLimit entries.
func (s *Service) Search(query string) string {
	keys := strings.Fields(strings.ToLower(query))
	if len(keys) == 0 {
		return "No matching capabilities found."
	}

	var matches []pool.Manifest
	for _, m := range s.registry.Manifests() {
		alias := strings.ToLower(m.AliasPath)
		desc := strings.ToLower(m.Description)
		for _, k := range keys {
			if strings.Contains(alias, k) || strings.Contains(desc, k) {
				matches = append(matches, m)
				break
			}
		}
		if len(matches) >= searchResultLimit {
			break
		}
	}

	if len(matches) == 0 {
		return "No matching capabilities found."
	}
	var sb strings.Builder
	sb.WriteString("<search_results>\n")
	for _, m := range matches {
		fmt.Fprintf(&sb, "  <skill path=%q>%s</skill>\n", m.AliasPath, m.Description)
	}
	sb.WriteString("</search_results>")
	return sb.String()
}

// Explain returns one manifest's full content plus a sample of the files
// next to it. Unknown cache entries fall back to physical resolution when a
// resolver is configured.
func (s *Service) Explain(path string) string {
	if m, ok := s.registry.Manifest(path); ok {
		return s.renderManifest(m, true)
	}

	if s.ResolvePath != nil {
		physical, err := s.ResolvePath(path)
		if err == nil {
			if pool.ManifestFile(physical) != "" {
				return s.renderManifest(pool.Manifest{AliasPath: path, RealPath: physical}, true)
			}
		}
	}
	return fmt.Sprintf("Error: %s is not a capability directory (no SKILL.md found)", path)
}

// Refresh rescans every pool and reports the new count.
func (s *Service) Refresh() string {
	n := s.registry.Refresh()
	return fmt.Sprintf("Capability library refreshed; %d capabilities available.", n)
}

func (s *Service) renderManifest(m pool.Manifest, includeFiles bool) string {
	content := ""
	if file := pool.ManifestFile(m.RealPath); file != "" {
		if data, err := os.ReadFile(file); err == nil {
			content = strings.TrimSpace(string(data))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n<skill_content name=%q>\n", m.AliasPath)
	sb.WriteString(content)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Base Directory: %s\n", m.AliasPath)
	if includeFiles {
		sb.WriteString("<skill_files>\n")
		sb.WriteString(sampleFiles(m.RealPath))
		sb.WriteString("</skill_files>\n")
	}
	sb.WriteString("</skill_content>\n")
	return sb.String()
}

// sampleFiles lists up to sampleFileLimit regular files within
// sampleFileDepth of the capability directory, excluding the manifest.
func sampleFiles(dir string) string {
	var files []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		if strings.Count(rel, string(filepath.Separator)) >= sampleFileDepth {
			return nil
		}
		if strings.EqualFold(d.Name(), "SKILL.md") {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})

	sort.Strings(files)
	if len(files) > sampleFileLimit {
		files = files[:sampleFileLimit]
	}
	var sb strings.Builder
	for _, f := range files {
		fmt.Fprintf(&sb, "  <file>%s</file>\n", f)
	}
	return sb.String()
}

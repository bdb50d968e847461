package pool

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"codebox/internal/logging"
)

const (
	// manifestName is matched case-insensitively against directory entries.
	manifestName = "SKILL.md"

	// scanDepth bounds how deep below a pool root the scan looks.
	scanDepth = 3

	// descriptionLimit caps extracted descriptions.
	descriptionLimit = 150

	fallbackDescription = "Capability manifest."
)

// ManifestFile returns the physical path of the descriptor inside dir, or ""
// if the directory carries none. The filename match is case-insensitive.
func ManifestFile(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), manifestName) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

// scanPool walks a pool root to scanDepth looking for manifest directories.
// The first match wins: scanning never descends into a matched directory,
// so nested manifests are not discovered. Dot-directories are skipped.
func scanPool(alias, root string) []Manifest {
	var found []Manifest

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep going
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if rel != "." {
			depth := strings.Count(rel, string(filepath.Separator)) + 1
			if depth > scanDepth {
				return filepath.SkipDir
			}
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
		}

		if file := ManifestFile(path); file != "" {
			aliasPath := alias
			if rel != "." {
				aliasPath = alias + "/" + filepath.ToSlash(rel)
			}
			found = append(found, Manifest{
				AliasPath:   aliasPath,
				RealPath:    path,
				Description: ParseDescription(file),
			})
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		logging.PoolsWarn("scan of pool %s failed: %v", alias, err)
	}
	return found
}

// frontMatter is the YAML block an optional manifest header may carry.
type frontMatter struct {
	Description string `yaml:"description"`
}

// ParseDescription extracts a one-line description from a manifest file.
//
// Priority: a description field in a leading --- delimited front-matter
// block; then the first plain paragraph after the first # heading; then the
// first non-empty, non-bullet, non-heading line. The result is truncated to
// descriptionLimit characters.
func ParseDescription(file string) string {
	data, err := os.ReadFile(file)
	if err != nil {
		return fallbackDescription
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	if len(lines) == 0 {
		return fallbackDescription
	}

	if lines[0] == "---" {
		if desc := frontMatterDescription(lines); desc != "" {
			return truncateDescription(desc)
		}
	}

	// First plain paragraph after the first top-level heading.
	foundTitle := false
	for _, line := range lines {
		if strings.HasPrefix(line, "# ") {
			foundTitle = true
			continue
		}
		if foundTitle && line != "" && !strings.HasPrefix(line, "#") &&
			!strings.HasPrefix(line, "`") && !strings.HasPrefix(line, ">") {
			return truncateDescription(line)
		}
	}

	// Fallback: first plain line anywhere.
	for _, line := range lines {
		if line != "" && !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "#") {
			return truncateDescription(line)
		}
	}
	return fallbackDescription
}

// frontMatterDescription parses the --- delimited block with the YAML
// decoder so quoted and folded values come out right.
func frontMatterDescription(lines []string) string {
	end := -1
	for i := 1; i < len(lines); i++ {
		if lines[i] == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		return ""
	}
	var fm frontMatter
	block := strings.Join(lines[1:end], "\n")
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return ""
	}
	return strings.TrimSpace(fm.Description)
}

func truncateDescription(desc string) string {
	if len(desc) > descriptionLimit {
		return desc[:descriptionLimit-3] + "..."
	}
	return desc
}

package reader

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// maxInputs limits glob expansion to prevent resource exhaustion.
const maxInputs = 10000

// ExpandInputs resolves input patterns to dataset directories.
//
// Patterns may use doublestar wildcards:
//   - * matches any sequence of non-separator characters
//   - ** matches any number of directories
//   - ? matches any single non-separator character
//   - {a,b} matches either a or b
//
// Plain paths are returned as given. Matches that are not directories are
// skipped. The result is sorted and free of duplicates.
func ExpandInputs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			dirs = append(dirs, path)
		}
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[]{}") {
			add(pattern)
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern: %w", err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no datasets match pattern: %s", pattern)
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.IsDir() {
				add(m)
			}
		}
	}

	if len(dirs) > maxInputs {
		return nil, fmt.Errorf("inputs matched too many datasets (%d), maximum is %d", len(dirs), maxInputs)
	}
	sort.Strings(dirs)
	return dirs, nil
}

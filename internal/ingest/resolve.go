package ingest

import (
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolveRosterPath turns the configured roster path into a concrete file.
// Plain paths are checked for existence; glob patterns resolve to the most
// recently modified match, so dropping a fresh export next to old ones
// picks up the new file without config changes.
func ResolveRosterPath(pattern string) (string, error) {
	if strings.TrimSpace(pattern) == "" {
		return "", fmt.Errorf("roster path is not configured")
	}

	if !strings.ContainsAny(pattern, "*?[{") {
		if _, err := os.Stat(pattern); err != nil {
			return "", fmt.Errorf("roster file not found: %s", pattern)
		}
		return pattern, nil
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid roster glob %q: %w", pattern, err)
	}

	var newest string
	var newestMod int64
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = match
			newestMod = mod
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no roster file matches %q", pattern)
	}
	return newest, nil
}

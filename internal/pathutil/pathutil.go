// Package pathutil normalizes sync paths to a canonical forward-slash form
// and classifies the handful of names the engine never syncs.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ignoredNames never participate in sync, regardless of which side holds
// them: desktop-integration litter that every platform leaves behind.
var ignoredNames = map[string]bool{
	".directory":  true,
	"Thumbs.db":   true,
	"Desktop.ini": true,
	".DS_Store":   true,
}

// Normalize converts a path to the canonical forward-slash form used
// throughout the engine and in the state document, regardless of host OS.
func Normalize(path string) string {
	return filepath.ToSlash(path)
}

// IsIgnored reports whether path (already normalized) should never be
// synced: a name in ignoredNames, or anything under a .git/ directory.
func IsIgnored(path string) bool {
	normalized := Normalize(path)
	if normalized == ".git" || strings.HasPrefix(normalized, ".git/") || strings.Contains(normalized, "/.git/") {
		return true
	}
	name := filepath.Base(normalized)
	return ignoredNames[name]
}

// ValidateRelative joins rel onto base and rejects the result if it would
// escape base, guarding against path traversal in a remote file listing.
func ValidateRelative(base, rel string) (string, error) {
	joined := filepath.Join(base, filepath.FromSlash(rel))

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("resolve joined path: %w", err)
	}

	if absJoined != absBase && !strings.HasPrefix(absJoined, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes sync root: %s", rel)
	}
	return joined, nil
}

// Depth returns the number of '/' separators in the normalized path (so a
// top-level file has depth 0), used to order deletes so that
// children are removed before their parent directories are reconsidered.
func Depth(path string) int {
	return strings.Count(Normalize(path), "/")
}

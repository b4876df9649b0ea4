package paths

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

var entryIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateEntryID checks that id can be used as a single directory name
// inside the storage root
func ValidateEntryID(id string) error {
	if id == "" {
		return fmt.Errorf("invalid identifier: empty")
	}
	if strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid identifier %q: must not contain path separators", id)
	}
	if id == "." || id == ".." {
		return fmt.Errorf("invalid identifier %q: path traversal not allowed", id)
	}
	if !entryIDPattern.MatchString(id) {
		return fmt.Errorf("invalid identifier %q: use letters, digits, '.', '_' or '-'", id)
	}
	return nil
}

// IsWithin reports whether path lies strictly inside root
func IsWithin(root, path string) bool {
	rel, ok := relativeTo(root, path)
	return ok && rel != "."
}

// RelativeTo returns path relative to root when path lies strictly inside it
func RelativeTo(root, path string) (string, bool) {
	rel, ok := relativeTo(root, path)
	if !ok || rel == "." {
		return "", false
	}
	return rel, true
}

// SamePath compares two paths after cleaning, case-insensitively on Windows
func SamePath(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

func relativeTo(root, path string) (string, bool) {
	if root == "" || path == "" {
		return "", false
	}
	// filepath.Rel already compares case-insensitively on Windows
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// SnapshotTree describes everything below root: file contents keyed by
// slash-separated relative path, "<dir>" for directories and "-> target"
// for links. Two equal snapshots mean byte-for-byte identical trees.
func SnapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()

	snapshot := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		key := filepath.ToSlash(rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			snapshot[key] = "-> " + target
		case d.IsDir():
			snapshot[key] = "<dir>"
		default:
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			snapshot[key] = string(content)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to snapshot %s: %v", root, err)
	}
	return snapshot
}

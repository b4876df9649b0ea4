package filesystem

import (
	"errors"
	"io/fs"
	"path/filepath"
	"runtime"

	"github.com/arthur-debert/saveli/pkg/types"
)

// IsLink reports whether info describes a symlink or, on Windows, a
// directory junction. Since Go 1.23 junctions report ModeIrregular rather
// than ModeSymlink, so the caller must confirm with Readlink.
func IsLink(info fs.FileInfo) bool {
	mode := info.Mode()
	if mode&fs.ModeSymlink != 0 {
		return true
	}
	return runtime.GOOS == "windows" && mode&fs.ModeIrregular != 0
}

// LinkTarget returns the absolute target of the link at path. Relative
// targets are resolved against the link's directory.
func LinkTarget(fsys types.FS, path string) (string, error) {
	target, err := fsys.Readlink(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return filepath.Clean(target), nil
}

// Exists reports whether anything, including a dangling link, is at path
func Exists(fsys types.FS, path string) (bool, error) {
	_, err := fsys.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// IsEmptyDir reports whether path is a directory with no entries
func IsEmptyDir(fsys types.FS, path string) (bool, error) {
	entries, err := fsys.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

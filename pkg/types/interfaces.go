package types

import (
	"io"
	"io/fs"
)

// FS is the filesystem interface required for saveli operations
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	OpenFile(name string, flag int, perm fs.FileMode) (File, error)

	// AtomicWrite replaces name with data so that readers observe either the
	// old or the new content. The data is synced to disk before it returns.
	AtomicWrite(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Symlink operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)

	// Other operations
	Rename(oldpath, newpath string) error
	Remove(name string) error
	RemoveAll(path string) error
	Lstat(name string) (fs.FileInfo, error)
}

// File is the subset of *os.File the copy and write paths need
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Sync() error
}

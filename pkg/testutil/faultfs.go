package testutil

import (
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/arthur-debert/saveli/pkg/types"
)

// Op names a filesystem operation FaultFS can fail
type Op string

const (
	OpSymlink     Op = "symlink"
	OpRename      Op = "rename"
	OpRemove      Op = "remove"
	OpRemoveAll   Op = "removeall"
	OpMkdirAll    Op = "mkdirall"
	OpOpenFile    Op = "openfile"
	OpWriteFile   Op = "writefile"
	OpAtomicWrite Op = "atomicwrite"
)

type fault struct {
	op        Op
	path      string
	err       error
	remaining int // -1 means every call
}

// FaultFS wraps a types.FS and returns configured errors for chosen
// operations. For Rename and Symlink the path matched is the destination
// (newpath / newname).
type FaultFS struct {
	types.FS

	mu     sync.Mutex
	faults []*fault
	calls  map[Op]int
}

// NewFaultFS wraps inner
func NewFaultFS(inner types.FS) *FaultFS {
	return &FaultFS{FS: inner, calls: make(map[Op]int)}
}

// FailOn makes every call of op on path return err. An empty path matches
// any path.
func (f *FaultFS) FailOn(op Op, path string, err error) *FaultFS {
	return f.add(op, path, err, -1)
}

// FailOnce makes the next call of op on path return err
func (f *FaultFS) FailOnce(op Op, path string, err error) *FaultFS {
	return f.add(op, path, err, 1)
}

// Calls returns how many times op was attempted
func (f *FaultFS) Calls(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FaultFS) add(op Op, path string, err error, times int) *FaultFS {
	f.mu.Lock()
	defer f.mu.Unlock()
	if path != "" {
		path = filepath.Clean(path)
	}
	f.faults = append(f.faults, &fault{op: op, path: path, err: err, remaining: times})
	return f
}

func (f *FaultFS) check(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	path = filepath.Clean(path)
	for _, flt := range f.faults {
		if flt.op != op || flt.remaining == 0 {
			continue
		}
		if flt.path != "" && flt.path != path {
			continue
		}
		if flt.remaining > 0 {
			flt.remaining--
		}
		return flt.err
	}
	return nil
}

func (f *FaultFS) Symlink(oldname, newname string) error {
	if err := f.check(OpSymlink, newname); err != nil {
		return err
	}
	return f.FS.Symlink(oldname, newname)
}

func (f *FaultFS) Rename(oldpath, newpath string) error {
	if err := f.check(OpRename, newpath); err != nil {
		return err
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultFS) Remove(name string) error {
	if err := f.check(OpRemove, name); err != nil {
		return err
	}
	return f.FS.Remove(name)
}

func (f *FaultFS) RemoveAll(path string) error {
	if err := f.check(OpRemoveAll, path); err != nil {
		return err
	}
	return f.FS.RemoveAll(path)
}

func (f *FaultFS) MkdirAll(path string, perm fs.FileMode) error {
	if err := f.check(OpMkdirAll, path); err != nil {
		return err
	}
	return f.FS.MkdirAll(path, perm)
}

func (f *FaultFS) OpenFile(name string, flag int, perm fs.FileMode) (types.File, error) {
	if err := f.check(OpOpenFile, name); err != nil {
		return nil, err
	}
	return f.FS.OpenFile(name, flag, perm)
}

func (f *FaultFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if err := f.check(OpWriteFile, name); err != nil {
		return err
	}
	return f.FS.WriteFile(name, data, perm)
}

func (f *FaultFS) AtomicWrite(name string, data []byte, perm fs.FileMode) error {
	if err := f.check(OpAtomicWrite, name); err != nil {
		return err
	}
	return f.FS.AtomicWrite(name, data, perm)
}

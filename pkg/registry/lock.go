package registry

import (
	"errors"
	"os"
	"path/filepath"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
)

// errWouldBlock is returned by the platform lock when another holder exists
var errWouldBlock = errors.New("lock is held by another process")

// Lock is an exclusive advisory lock next to the registry file
type Lock struct {
	file *os.File
	path string
}

// LockPath returns the lock file used for a registry
func LockPath(registryPath string) string {
	return registryPath + ".lock"
}

// AcquireLock takes the lock for registryPath without waiting. It fails
// with REGISTRY_LOCKED if another process holds it.
func AcquireLock(registryPath string) (*Lock, error) {
	path := LockPath(registryPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, serrors.Wrapf(err, serrors.ErrIO, "cannot create registry directory for %s", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, serrors.Wrapf(err, serrors.ErrIO, "cannot open lock file %s", path).
			WithDetail("path", path)
	}

	if err := lockFile(f); err != nil {
		_ = f.Close()
		if errors.Is(err, errWouldBlock) {
			return nil, serrors.Newf(serrors.ErrRegistryLocked,
				"registry %s is in use by another saveli process", registryPath).
				WithDetail("path", path)
		}
		return nil, serrors.Wrapf(err, serrors.ErrIO, "cannot lock %s", path).
			WithDetail("path", path)
	}

	return &Lock{file: f, path: path}, nil
}

// Release drops the lock. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return serrors.Wrapf(unlockErr, serrors.ErrIO, "cannot unlock %s", l.path)
	}
	if closeErr != nil {
		return serrors.Wrapf(closeErr, serrors.ErrIO, "cannot close %s", l.path)
	}
	return nil
}

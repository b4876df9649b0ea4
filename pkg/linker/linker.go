// Package linker performs the filesystem primitives the link engine builds
// on: creating, reading and removing links, and moving save data between
// its original location and storage.
package linker

import (
	"fmt"
	"os"
	"path/filepath"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/filesystem"
	"github.com/arthur-debert/saveli/pkg/logging"
	"github.com/arthur-debert/saveli/pkg/types"
	"github.com/rs/zerolog"
)

// Strategy selects how links are created
type Strategy string

const (
	// StrategyAuto uses symlinks, falling back to directory junctions on
	// Windows when symlinks need a privilege the user lacks
	StrategyAuto Strategy = "auto"

	StrategySymlink  Strategy = "symlink"
	StrategyJunction Strategy = "junction"
)

// ParseStrategy maps a configuration value to a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyAuto, StrategySymlink, StrategyJunction:
		return Strategy(s), nil
	case "":
		return StrategyAuto, nil
	}
	return "", serrors.Newf(serrors.ErrInvalidInput, "unknown link strategy %q", s)
}

// Linker creates links and moves data through a types.FS
type Linker struct {
	fs       types.FS
	strategy Strategy
	logger   zerolog.Logger
}

// New creates a linker
func New(fsys types.FS, strategy Strategy) *Linker {
	if strategy == "" {
		strategy = StrategyAuto
	}
	return &Linker{
		fs:       fsys,
		strategy: strategy,
		logger:   logging.GetLogger("linker"),
	}
}

// Strategy returns the configured strategy
func (l *Linker) Strategy() Strategy {
	return l.strategy
}

// CreateLink makes link point at target. The parent of link must exist.
func (l *Linker) CreateLink(link, target string) error {
	var err error
	switch l.strategy {
	case StrategyJunction:
		err = l.junction(link, target)
	case StrategySymlink:
		err = l.fs.Symlink(target, link)
	default:
		err = l.fs.Symlink(target, link)
		if err != nil && junctionsSupported && isPrivilegeError(err) && l.isDir(target) {
			l.logger.Debug().Err(err).
				Str("link", link).
				Msg("Symlink not permitted, falling back to junction")
			err = l.junction(link, target)
		}
	}

	if err != nil {
		return classify(err, "cannot create link %s -> %s", link, target).
			WithDetail("link", link).
			WithDetail("target", target)
	}

	l.logger.Trace().Str("link", link).Str("target", target).Msg("Link created")
	return nil
}

func (l *Linker) junction(link, target string) error {
	if !junctionsSupported {
		return serrors.New(serrors.ErrInvalidInput, "junctions are only available on Windows")
	}
	if !l.isDir(target) {
		return serrors.Newf(serrors.ErrInvalidInput, "junction target %s is not a directory", target)
	}
	return createJunction(link, target)
}

func (l *Linker) isDir(path string) bool {
	info, err := l.fs.Stat(path)
	return err == nil && info.IsDir()
}

// ReadLink returns the absolute target of the link at path
func (l *Linker) ReadLink(path string) (string, error) {
	target, err := filesystem.LinkTarget(l.fs, path)
	if err != nil {
		return "", serrors.Wrapf(err, serrors.ErrIO, "cannot read link %s", path).
			WithDetail("path", path)
	}
	return target, nil
}

// RemoveLink deletes the link at path. It refuses to touch anything that is
// not a link.
func (l *Linker) RemoveLink(path string) error {
	info, err := l.fs.Lstat(path)
	if err != nil {
		return serrors.Wrapf(err, serrors.ErrIO, "cannot inspect %s", path).
			WithDetail("path", path)
	}
	if !filesystem.IsLink(info) {
		return serrors.Newf(serrors.ErrIO, "refusing to remove %s: not a link", path).
			WithDetail("path", path)
	}
	if err := l.fs.Remove(path); err != nil {
		return classify(err, "cannot remove link %s", path).WithDetail("path", path)
	}

	l.logger.Trace().Str("link", path).Msg("Link removed")
	return nil
}

// Move relocates the file or directory tree at src to dst. dst must not
// exist; its parent is created if needed. A rename is tried first and a
// copy followed by removal of src is used across devices.
func (l *Linker) Move(src, dst string) error {
	if ok, err := filesystem.Exists(l.fs, dst); err != nil {
		return serrors.Wrapf(err, serrors.ErrIO, "cannot inspect %s", dst).WithDetail("path", dst)
	} else if ok {
		return serrors.Newf(serrors.ErrIO, "cannot move to %s: destination exists", dst).
			WithDetail("path", dst)
	}

	if err := l.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return classify(err, "cannot create %s", filepath.Dir(dst)).
			WithDetail("path", filepath.Dir(dst))
	}

	err := l.fs.Rename(src, dst)
	if err == nil {
		l.logger.Trace().Str("from", src).Str("to", dst).Msg("Renamed")
		return nil
	}
	if !isCrossDevice(err) {
		return classify(err, "cannot move %s to %s", src, dst).
			WithDetail("source", src).
			WithDetail("destination", dst)
	}

	l.logger.Debug().Str("from", src).Str("to", dst).Msg("Cross-device move, copying")
	if err := l.copyTree(src, dst); err != nil {
		if cleanErr := l.fs.RemoveAll(dst); cleanErr != nil {
			l.logger.Warn().Err(cleanErr).Str("path", dst).Msg("Failed to remove partial copy")
		}
		return classify(err, "cannot copy %s to %s", src, dst).
			WithDetail("source", src).
			WithDetail("destination", dst)
	}

	if err := l.fs.RemoveAll(src); err != nil {
		return serrors.Wrapf(err, serrors.ErrPartialFailure,
			"copied %s to %s but could not remove the original", src, dst).
			WithDetail("original", src).
			WithDetail("destination", dst)
	}
	return nil
}

func (l *Linker) copyTree(src, dst string) error {
	info, err := l.fs.Lstat(src)
	if err != nil {
		return err
	}

	switch {
	case filesystem.IsLink(info):
		target, err := l.fs.Readlink(src)
		if err != nil {
			return err
		}
		return l.fs.Symlink(target, dst)

	case info.IsDir():
		if err := l.fs.MkdirAll(dst, info.Mode().Perm()); err != nil {
			return err
		}
		children, err := l.fs.ReadDir(src)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := l.copyTree(filepath.Join(src, child.Name()), filepath.Join(dst, child.Name())); err != nil {
				return err
			}
		}
		return nil

	case info.Mode().IsRegular():
		return l.copyFile(src, dst, info.Mode().Perm())

	default:
		return fmt.Errorf("cannot copy %s: unsupported file type %s", src, info.Mode().Type())
	}
}

func (l *Linker) copyFile(src, dst string, perm os.FileMode) (err error) {
	in, err := l.fs.OpenFile(src, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := l.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
	}()

	if _, err = copyBuffer(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// CheckPrivilege verifies that a link can be created inside dir with the
// configured strategy by creating and removing a probe link
func (l *Linker) CheckPrivilege(dir string) error {
	if err := l.fs.MkdirAll(dir, 0755); err != nil {
		return classify(err, "cannot create %s", dir).WithDetail("path", dir)
	}

	probe := filepath.Join(dir, fmt.Sprintf(".saveli-probe-%d", os.Getpid()))
	_ = l.fs.Remove(probe)

	if err := l.CreateLink(probe, dir); err != nil {
		return err
	}
	if err := l.fs.Remove(probe); err != nil {
		l.logger.Warn().Err(err).Str("path", probe).Msg("Failed to remove privilege probe")
	}
	return nil
}

// classify maps a filesystem error onto INSUFFICIENT_PRIVILEGE or IO_ERROR.
// Errors that already carry a code keep it.
func classify(err error, format string, args ...interface{}) *serrors.SaveliError {
	code := serrors.ErrIO
	switch {
	case serrors.GetErrorCode(err) != serrors.ErrUnknown:
		code = serrors.GetErrorCode(err)
	case isPrivilegeError(err):
		code = serrors.ErrInsufficientPrivilege
	}
	return serrors.Wrapf(err, code, format, args...)
}

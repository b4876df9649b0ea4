// Package engine implements the per-entry state machine: Link, Restore,
// Unlink, Ignore and Heed. Each transition inspects the filesystem through
// a Resolver, mutates it through LinkOps and records the outcome in the
// registry. Persisting the registry is left to the caller.
package engine

import (
	"errors"
	"io/fs"
	"path/filepath"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/logging"
	"github.com/arthur-debert/saveli/pkg/registry"
	"github.com/arthur-debert/saveli/pkg/types"
	"github.com/rs/zerolog"
)

// Resolver finds what exists on disk for an entry
type Resolver interface {
	Resolve(entry types.CatalogEntry, storageRoot string) (types.ResolvedLocation, error)
}

// LinkOps are the filesystem primitives transitions are built from
type LinkOps interface {
	CreateLink(link, target string) error
	ReadLink(path string) (string, error)
	RemoveLink(path string) error
	Move(src, dst string) error
}

// Options contains configuration for the engine
type Options struct {
	FS       types.FS
	Resolver Resolver
	Linker   LinkOps
	Registry *registry.Registry
	DryRun   bool
	Logger   zerolog.Logger
}

// Engine runs transitions against one registry
type Engine struct {
	fs       types.FS
	resolver Resolver
	linker   LinkOps
	reg      *registry.Registry
	dryRun   bool
	logger   zerolog.Logger
}

// New creates an engine
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = logging.GetLogger("engine")
	}
	return &Engine{
		fs:       opts.FS,
		resolver: opts.Resolver,
		linker:   opts.Linker,
		reg:      opts.Registry,
		dryRun:   opts.DryRun,
		logger:   logger,
	}
}

// DryRun reports whether the engine only plans operations
func (e *Engine) DryRun() bool {
	return e.dryRun
}

// Apply runs transition t on entry. The returned result is never nil; its
// Err field holds the same error Apply returns.
func (e *Engine) Apply(t types.Transition, entry types.CatalogEntry) (*types.TransitionResult, error) {
	switch t {
	case types.TransitionLink:
		return e.Link(entry)
	case types.TransitionRestore:
		return e.Restore(entry)
	case types.TransitionUnlink:
		return e.Unlink(entry)
	case types.TransitionIgnore:
		return e.Ignore(entry)
	case types.TransitionHeed:
		return e.Heed(entry)
	}
	res := &types.TransitionResult{EntryID: entry.ID, Transition: t}
	return e.fail(res, serrors.Newf(serrors.ErrInvalidInput, "unknown transition %q", t))
}

// begin creates the entry's record if needed and snapshots its state
func (e *Engine) begin(entry types.CatalogEntry, t types.Transition) *types.TransitionResult {
	e.reg.Touch(entry.ID)
	state := e.reg.Get(entry.ID)

	e.logger.Debug().
		Str("entry", entry.ID).
		Str("transition", string(t)).
		Str("state", state.String()).
		Bool("dryRun", e.dryRun).
		Msg("Starting transition")

	return &types.TransitionResult{
		EntryID:    entry.ID,
		Transition: t,
		From:       state,
		To:         state,
		DryRun:     e.dryRun,
	}
}

func (e *Engine) fail(res *types.TransitionResult, err error) (*types.TransitionResult, error) {
	var se *serrors.SaveliError
	if errors.As(err, &se) {
		if _, ok := se.Details["entry"]; !ok {
			se.WithDetail("entry", res.EntryID)
		}
	}
	res.Err = err

	e.logger.Debug().Err(err).
		Str("entry", res.EntryID).
		Str("transition", string(res.Transition)).
		Msg("Transition failed")
	return res, err
}

func (e *Engine) noop(res *types.TransitionResult) (*types.TransitionResult, error) {
	res.NoOp = true
	e.logger.Debug().
		Str("entry", res.EntryID).
		Str("transition", string(res.Transition)).
		Msg("Already in requested state")
	return res, nil
}

// commit records the new state unless this is a dry run
func (e *Engine) commit(res *types.TransitionResult, to types.EntryState) (*types.TransitionResult, error) {
	res.To = to
	if !e.dryRun {
		e.reg.Set(res.EntryID, to)
	}

	e.logger.Info().
		Str("entry", res.EntryID).
		Str("transition", string(res.Transition)).
		Str("from", res.From.String()).
		Str("to", to.String()).
		Bool("dryRun", e.dryRun).
		Msg("Transition complete")
	return res, nil
}

func (e *Engine) storageRoot() (string, error) {
	root := e.reg.StorageRoot()
	if root == "" {
		return "", serrors.New(serrors.ErrStorageNotSet,
			"no storage path configured, run set-storage-path first")
	}
	return root, nil
}

func (e *Engine) resolve(entry types.CatalogEntry, root string) (types.ResolvedLocation, error) {
	return e.resolver.Resolve(entry, root)
}

func (e *Engine) exists(path string) (bool, error) {
	_, err := e.fs.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, serrors.Wrapf(err, serrors.ErrIO, "cannot inspect %s", path).WithDetail("path", path)
}

// hasData reports whether path holds anything: a file, a link or a
// non-empty directory
func (e *Engine) hasData(path string) (bool, error) {
	info, err := e.fs.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, serrors.Wrapf(err, serrors.ErrIO, "cannot inspect %s", path).WithDetail("path", path)
	}
	if !info.IsDir() {
		return true, nil
	}
	children, err := e.fs.ReadDir(path)
	if err != nil {
		return false, serrors.Wrapf(err, serrors.ErrIO, "cannot read %s", path).WithDetail("path", path)
	}
	return len(children) > 0, nil
}

// missingParents returns the ancestors of path that do not exist, nearest
// first
func (e *Engine) missingParents(path string) ([]string, error) {
	var missing []string
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		ok, err := e.exists(dir)
		if err != nil {
			return nil, err
		}
		if ok {
			return missing, nil
		}
		missing = append(missing, dir)
		if filepath.Dir(dir) == dir {
			return missing, nil
		}
	}
}

// removeDirs removes directories nearest first, stopping at the first one
// that cannot be removed
func (e *Engine) removeDirs(dirs []string) {
	for _, dir := range dirs {
		if err := e.fs.Remove(dir); err != nil {
			e.logger.Warn().Err(err).Str("path", dir).Msg("Failed to remove directory")
			return
		}
	}
}

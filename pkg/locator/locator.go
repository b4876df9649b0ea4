// Package locator resolves catalog entries to what actually exists on disk.
// It never mutates the filesystem.
package locator

import (
	"context"
	"errors"
	"io/fs"
	"runtime"
	"strings"
	"syscall"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/filesystem"
	"github.com/arthur-debert/saveli/pkg/logging"
	"github.com/arthur-debert/saveli/pkg/paths"
	"github.com/arthur-debert/saveli/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds ResolveAll when no worker count is configured
const DefaultWorkers = 8

// Locator expands path templates for one platform and inspects the results
type Locator struct {
	fs       types.FS
	platform paths.PlatformContext
	workers  int
	logger   zerolog.Logger
}

// New creates a locator for the given platform context
func New(fsys types.FS, platform paths.PlatformContext) *Locator {
	return &Locator{
		fs:       fsys,
		platform: platform,
		workers:  DefaultWorkers,
		logger:   logging.GetLogger("locator"),
	}
}

// WithWorkers sets how many entries ResolveAll inspects concurrently
func (l *Locator) WithWorkers(n int) *Locator {
	if n > 0 {
		l.workers = n
	}
	return l
}

// Platform returns the context templates are expanded with
func (l *Locator) Platform() paths.PlatformContext {
	return l.platform
}

// Resolve lists the expected paths of entry on this platform and classifies
// the ones that exist. Templates that cannot be expanded are skipped.
func (l *Locator) Resolve(entry types.CatalogEntry, storageRoot string) (types.ResolvedLocation, error) {
	loc := types.ResolvedLocation{EntryID: entry.ID}
	seen := make(map[string]bool)

	for _, tpl := range entry.Templates {
		path, ok, err := paths.ExpandTemplate(tpl, l.platform)
		if !ok {
			continue
		}
		if err != nil {
			l.logger.Debug().Err(err).
				Str("entry", entry.ID).
				Str("template", tpl.Path).
				Msg("Skipping template")
			continue
		}

		key := path
		if runtime.GOOS == "windows" {
			key = strings.ToLower(path)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		loc.Expected = append(loc.Expected, path)

		candidate, found, err := l.inspect(path, storageRoot)
		if err != nil {
			return loc, serrors.Wrapf(err, serrors.ErrIO, "cannot inspect %s", path).
				WithDetail("entry", entry.ID).
				WithDetail("path", path)
		}
		if found {
			loc.Candidates = append(loc.Candidates, candidate)
		}
	}

	l.logger.Trace().
		Str("entry", entry.ID).
		Strs("expected", loc.Expected).
		Int("candidates", len(loc.Candidates)).
		Msg("Resolved entry")

	return loc, nil
}

func (l *Locator) inspect(path, storageRoot string) (types.Candidate, bool, error) {
	info, err := l.fs.Lstat(path)
	if err != nil {
		if notExist(err) {
			return types.Candidate{}, false, nil
		}
		return types.Candidate{}, false, err
	}

	candidate := types.Candidate{Path: path}
	if filesystem.IsLink(info) {
		target, err := filesystem.LinkTarget(l.fs, path)
		switch {
		case err == nil:
			candidate.Kind = types.CandidateExistingLink
			candidate.Target = target
			candidate.InStorage = paths.IsWithin(storageRoot, target)
			return candidate, true, nil
		case info.Mode()&fs.ModeSymlink != 0:
			return types.Candidate{}, false, err
		}
		// Another kind of Windows reparse point: treat it as plain data
	}

	if info.IsDir() {
		candidate.Kind = types.CandidateRealDirectory
	} else {
		candidate.Kind = types.CandidateRealFile
	}
	return candidate, true, nil
}

func notExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// Result is the outcome of resolving one entry in ResolveAll
type Result struct {
	Entry    types.CatalogEntry
	Location types.ResolvedLocation
	Err      error
}

// ResolveAll resolves entries concurrently and returns results in input
// order. Per-entry failures are reported in Result.Err; only cancellation
// of ctx fails the whole call.
func (l *Locator) ResolveAll(ctx context.Context, entries []types.CatalogEntry, storageRoot string) ([]Result, error) {
	results := make([]Result, len(entries))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i := range entries {
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			loc, err := l.Resolve(entries[i], storageRoot)
			results[i] = Result{Entry: entries[i], Location: loc, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

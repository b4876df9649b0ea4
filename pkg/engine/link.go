package engine

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/paths"
	"github.com/arthur-debert/saveli/pkg/types"
)

// Link moves the entry's save data into <storage root>/<id> and leaves a
// link at the original location
func (e *Engine) Link(entry types.CatalogEntry) (*types.TransitionResult, error) {
	res := e.begin(entry, types.TransitionLink)
	if res.From.IsIgnored() {
		return e.fail(res, ignoredError(entry.ID))
	}

	root, err := e.storageRoot()
	if err != nil {
		return e.fail(res, err)
	}
	loc, err := e.resolve(entry, root)
	if err != nil {
		return e.fail(res, err)
	}

	// Already linked into storage, possibly by an earlier run whose
	// registry record was lost
	for _, c := range loc.Links() {
		if !c.InStorage {
			continue
		}
		ok, err := e.hasData(c.Target)
		if err != nil {
			return e.fail(res, err)
		}
		if !ok {
			return e.fail(res, serrors.Newf(serrors.ErrStorageEntryMissing,
				"%s links to %s, which is missing or empty", c.Path, c.Target).
				WithDetail("link", c.Path).
				WithDetail("target", c.Target))
		}
		sub, _ := paths.RelativeTo(root, c.Target)
		if owner, ok := e.reg.Owner(sub); ok && owner != entry.ID {
			return e.fail(res, serrors.Newf(serrors.ErrStorageCollision,
				"%s links to %s, which belongs to %s", c.Path, c.Target, owner).
				WithDetail("link", c.Path).
				WithDetail("target", c.Target).
				WithDetail("owner", owner))
		}
		linked := types.Linked(sub, c.Path)
		if res.From != linked && !e.dryRun {
			e.reg.Set(entry.ID, linked)
		}
		res.To = linked
		return e.noop(res)
	}

	data := loc.Real()
	switch len(data) {
	case 0:
		return e.fail(res, serrors.Newf(serrors.ErrNoSaveFound,
			"no save data found for %s", entry.DisplayName()).
			WithDetail("expected", loc.Expected))
	case 1:
	default:
		found := make([]string, len(data))
		for i, c := range data {
			found[i] = c.Path
		}
		return e.fail(res, serrors.Newf(serrors.ErrAmbiguousSaveLocation,
			"save data for %s found in several places: %s", entry.DisplayName(), strings.Join(found, ", ")).
			WithDetail("candidates", found))
	}

	origin := data[0].Path
	dest := filepath.Join(root, entry.ID)

	emptyDest, err := e.checkDestination(dest)
	if err != nil {
		return e.fail(res, err)
	}

	res.Operations = []types.Operation{
		{Type: types.OperationMove, Source: origin, Target: dest},
		{Type: types.OperationLink, Source: origin, Target: dest},
	}
	if e.dryRun {
		return e.commit(res, types.Linked(entry.ID, origin))
	}

	if emptyDest {
		if err := e.fs.Remove(dest); err != nil {
			return e.fail(res, serrors.Wrapf(err, serrors.ErrIO, "cannot replace empty directory %s", dest).
				WithDetail("path", dest))
		}
	}
	restoreDest := func() {
		if emptyDest {
			if err := e.fs.MkdirAll(dest, 0755); err != nil {
				e.logger.Warn().Err(err).Str("path", dest).Msg("Failed to recreate storage directory")
			}
		}
	}

	if err := e.linker.Move(origin, dest); err != nil {
		if !serrors.HasErrorCode(err, serrors.ErrPartialFailure) {
			restoreDest()
		}
		return e.fail(res, err)
	}

	if err := e.linker.CreateLink(origin, dest); err != nil {
		res.Operations = append(res.Operations, types.Operation{
			Type: types.OperationRollback, Source: dest, Target: origin,
		})
		if rbErr := e.linker.Move(dest, origin); rbErr != nil {
			e.logger.Error().Err(rbErr).
				Str("entry", entry.ID).
				Str("original", origin).
				Str("destination", dest).
				Msg("Rollback failed")
			return e.fail(res, serrors.Wrapf(err, serrors.ErrPartialFailure,
				"could not link %s and could not move the data back from %s", origin, dest).
				WithDetail("original", origin).
				WithDetail("destination", dest).
				WithDetail("rollbackError", rbErr.Error()))
		}
		restoreDest()
		return e.fail(res, err)
	}

	return e.commit(res, types.Linked(entry.ID, origin))
}

// checkDestination returns true when dest is an empty directory that must
// be removed before moving, and fails when it holds anything else
func (e *Engine) checkDestination(dest string) (bool, error) {
	info, err := e.fs.Lstat(dest)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, serrors.Wrapf(err, serrors.ErrIO, "cannot inspect %s", dest).WithDetail("path", dest)
	}

	collision := serrors.Newf(serrors.ErrStorageCollision, "%s already exists in storage", dest).
		WithDetail("path", dest)
	if !info.IsDir() {
		return false, collision
	}
	full, err := e.hasData(dest)
	if err != nil {
		return false, err
	}
	if full {
		return false, collision
	}
	return true, nil
}

func ignoredError(id string) error {
	return serrors.Newf(serrors.ErrEntryIgnored, "%s is ignored, run heed first", id)
}

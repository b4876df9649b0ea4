package engine

import (
	"path/filepath"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/paths"
	"github.com/arthur-debert/saveli/pkg/types"
)

// Unlink removes the link and moves the data back to its original location
func (e *Engine) Unlink(entry types.CatalogEntry) (*types.TransitionResult, error) {
	res := e.begin(entry, types.TransitionUnlink)
	switch {
	case res.From.IsIgnored():
		return e.fail(res, ignoredError(entry.ID))
	case !res.From.IsLinked():
		return e.fail(res, serrors.Newf(serrors.ErrNothingToUnlink, "%s is not linked", entry.ID))
	}

	root, err := e.storageRoot()
	if err != nil {
		return e.fail(res, err)
	}
	storagePath := filepath.Join(root, res.From.StorageSubpath)
	ok, err := e.exists(storagePath)
	if err != nil {
		return e.fail(res, err)
	}
	if !ok {
		return e.fail(res, missingInStorage(storagePath))
	}

	loc, err := e.resolve(entry, root)
	if err != nil {
		return e.fail(res, err)
	}

	origin := ""
	var others []string
	for _, c := range loc.Links() {
		if paths.SamePath(c.Target, storagePath) {
			origin = c.Path
			break
		}
		others = append(others, c.Path+" -> "+c.Target)
	}
	if origin == "" {
		return e.fail(res, serrors.Newf(serrors.ErrLinkTargetMismatch,
			"no link to %s found at the save locations of %s", storagePath, entry.DisplayName()).
			WithDetail("expected", storagePath).
			WithDetail("links", others))
	}

	res.Operations = []types.Operation{
		{Type: types.OperationUnlink, Source: origin, Target: storagePath},
		{Type: types.OperationMove, Source: storagePath, Target: origin},
	}
	if e.dryRun {
		return e.commit(res, types.Unmanaged())
	}

	if err := e.linker.RemoveLink(origin); err != nil {
		return e.fail(res, err)
	}
	if err := e.linker.Move(storagePath, origin); err != nil {
		if serrors.HasErrorCode(err, serrors.ErrPartialFailure) {
			return e.fail(res, err)
		}
		if relinkErr := e.linker.CreateLink(origin, storagePath); relinkErr != nil {
			e.logger.Error().Err(relinkErr).
				Str("entry", entry.ID).
				Str("original", origin).
				Str("destination", storagePath).
				Msg("Could not restore link after failed move")
			return e.fail(res, serrors.Wrapf(err, serrors.ErrPartialFailure,
				"could not move %s back and could not recreate the link at %s", storagePath, origin).
				WithDetail("original", origin).
				WithDetail("destination", storagePath).
				WithDetail("relinkError", relinkErr.Error()))
		}
		return e.fail(res, err)
	}

	e.pruneEmptyParents(root, storagePath)
	return e.commit(res, types.Unmanaged())
}

// pruneEmptyParents removes directories left empty between path and root,
// root itself excluded
func (e *Engine) pruneEmptyParents(root, path string) {
	for dir := filepath.Dir(path); paths.IsWithin(root, dir); dir = filepath.Dir(dir) {
		full, err := e.hasData(dir)
		if err != nil || full {
			return
		}
		if err := e.fs.Remove(dir); err != nil {
			e.logger.Debug().Err(err).Str("path", dir).Msg("Leaving storage directory in place")
			return
		}
	}
}

package engine

import (
	"path/filepath"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/paths"
	"github.com/arthur-debert/saveli/pkg/types"
)

// Restore recreates the link at the original location of a linked entry,
// typically on a fresh machine sharing the same storage
func (e *Engine) Restore(entry types.CatalogEntry) (*types.TransitionResult, error) {
	res := e.begin(entry, types.TransitionRestore)
	switch {
	case res.From.IsIgnored():
		return e.fail(res, ignoredError(entry.ID))
	case !res.From.IsLinked():
		return e.fail(res, serrors.Newf(serrors.ErrNothingToRestore, "%s is not linked", entry.ID))
	}

	root, err := e.storageRoot()
	if err != nil {
		return e.fail(res, err)
	}
	storagePath := filepath.Join(root, res.From.StorageSubpath)
	ok, err := e.hasData(storagePath)
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

	for _, c := range loc.Links() {
		if paths.SamePath(c.Target, storagePath) {
			return e.noop(res)
		}
	}
	for _, c := range loc.Candidates {
		if c.Kind == types.CandidateExistingLink {
			return e.fail(res, serrors.Newf(serrors.ErrLinkTargetMismatch,
				"%s already links to %s instead of %s", c.Path, c.Target, storagePath).
				WithDetail("link", c.Path).
				WithDetail("target", c.Target).
				WithDetail("expected", storagePath))
		}
		return e.fail(res, serrors.Newf(serrors.ErrOriginOccupied,
			"%s already holds save data, move it aside before restoring", c.Path).
			WithDetail("path", c.Path))
	}

	origin, err := chooseOrigin(entry, loc, res.From.Origin)
	if err != nil {
		return e.fail(res, err)
	}

	created, err := e.missingParents(origin)
	if err != nil {
		return e.fail(res, err)
	}
	if len(created) > 0 {
		res.Operations = append(res.Operations, types.Operation{
			Type: types.OperationMkdir, Source: created[len(created)-1], Target: filepath.Dir(origin),
		})
	}
	res.Operations = append(res.Operations, types.Operation{
		Type: types.OperationLink, Source: origin, Target: storagePath,
	})

	to := types.Linked(res.From.StorageSubpath, origin)
	if e.dryRun {
		return e.commit(res, to)
	}

	if len(created) > 0 {
		if err := e.fs.MkdirAll(filepath.Dir(origin), 0755); err != nil {
			e.removeDirs(created)
			return e.fail(res, serrors.Wrapf(err, serrors.ErrIO, "cannot create %s", filepath.Dir(origin)).
				WithDetail("path", filepath.Dir(origin)))
		}
	}
	if err := e.linker.CreateLink(origin, storagePath); err != nil {
		e.removeDirs(created)
		return e.fail(res, err)
	}

	return e.commit(res, to)
}

// chooseOrigin picks where the link goes. With several expected paths the
// recorded origin breaks the tie.
func chooseOrigin(entry types.CatalogEntry, loc types.ResolvedLocation, recorded string) (string, error) {
	switch len(loc.Expected) {
	case 0:
		return "", serrors.Newf(serrors.ErrNoSaveFound,
			"%s has no save location on this platform", entry.DisplayName())
	case 1:
		return loc.Expected[0], nil
	}
	for _, p := range loc.Expected {
		if recorded != "" && paths.SamePath(p, recorded) {
			return p, nil
		}
	}
	return "", serrors.Newf(serrors.ErrAmbiguousSaveLocation,
		"%s has several possible save locations and none was recorded", entry.DisplayName()).
		WithDetail("candidates", loc.Expected)
}

func missingInStorage(path string) error {
	return serrors.Newf(serrors.ErrStorageEntryMissing, "%s is missing or empty in storage", path).
		WithDetail("path", path)
}

package engine

import (
	"fmt"

	serrors "github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/types"
)

// Ignore excludes the entry from bulk operations. It only changes the
// registry; an existing link is left in place.
func (e *Engine) Ignore(entry types.CatalogEntry) (*types.TransitionResult, error) {
	res := e.begin(entry, types.TransitionIgnore)
	switch {
	case res.From.IsIgnored():
		return e.noop(res)
	case res.From.IsLinked():
		msg := fmt.Sprintf("%s stays linked to storage; run heed and link to manage it again", entry.ID)
		res.Warnings = append(res.Warnings, msg)
		e.logger.Warn().Str("entry", entry.ID).Msg("Ignoring a linked entry, the link stays in place")
	}
	return e.commit(res, types.Ignored())
}

// Heed undoes Ignore
func (e *Engine) Heed(entry types.CatalogEntry) (*types.TransitionResult, error) {
	res := e.begin(entry, types.TransitionHeed)
	switch {
	case res.From.IsLinked():
		return e.fail(res, serrors.Newf(serrors.ErrNotIgnored, "%s is linked, not ignored", entry.ID))
	case !res.From.IsIgnored():
		return e.noop(res)
	}
	return e.commit(res, types.Unmanaged())
}
